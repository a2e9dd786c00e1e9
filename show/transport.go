package show

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/cue"
	"github.com/cueforge/cueforge/health"
)

// Go fires the standby cue and, for continue-mode cues, advances the
// playhead and arms the auto-follow chain. Returns whether a cue
// actually started.
func (m *Manager) Go() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goLocked()
}

func (m *Manager) goLocked() bool {
	if len(m.cues) == 0 {
		log.Warn("GO with an empty cue list")
		m.report(health.Warning, "GO pressed with no cues loaded", "Manager")
		return false
	}

	id := m.standByID
	if id == "" {
		id = m.cues[0].ID()
	}
	index := m.indexOfLocked(id)
	if index < 0 {
		// Standby invariant slipped; recover to the head of the list.
		log.Warnf("standby id %s not in top-level list", id)
		m.setStandByLocked("")
		return false
	}
	c := m.cues[index]

	if !c.CanExecute() {
		log.Warnf("GO: cue %s cannot execute (%s)", c.Number(), c.ValidationError())
		m.report(health.Warning,
			"Cue "+c.Number()+" cannot execute", "Manager")
		return false
	}

	m.active[c.ID()] = struct{}{}

	// Continue-mode playheads advance before execution so instantaneous
	// cues (control kinds) see the post-advance standby when their
	// finish is processed inline.
	prevStandBy := m.standByID
	if c.ContinueMode() {
		next := ""
		if index+1 < len(m.cues) {
			next = m.cues[index+1].ID()
		}
		m.autoAdvance[c.ID()] = next
		m.setStandByLocked(next)
	}

	if !c.Execute() {
		delete(m.active, c.ID())
		delete(m.autoAdvance, c.ID())
		if c.ContinueMode() {
			m.setStandByLocked(prevStandBy)
		}
		if c.Status() == cue.StatusRunning {
			c.SetStatus(cue.StatusLoaded)
		}
		log.Errorf("GO: cue %s failed to start", c.Number())
		m.report(health.Error, "Cue "+c.Number()+" failed to start", "Manager")
		return false
	}

	log.Infof("GO: cue %s (%s)", c.Number(), c.Name())
	m.playbackChangedLocked()
	return true
}

// cueFinishedLocked handles a top-level cue's completion. It runs on
// the control thread: either inline from an instantaneous Execute or
// via a posted callback.
func (m *Manager) cueFinishedLocked(id string) {
	if _, ok := m.active[id]; !ok {
		return
	}
	delete(m.active, id)

	c := m.findLocked(id)
	if c == nil {
		return
	}
	log.Debugf("cue %s finished", c.Number())
	if c.Status() == cue.StatusFinished {
		c.SetStatus(cue.StatusLoaded)
	}
	m.playbackChangedLocked()

	advancedTo, chained := m.autoAdvance[id]
	delete(m.autoAdvance, id)
	if !chained || !c.ContinueMode() {
		return
	}
	if advancedTo == "" || m.standByID != advancedTo {
		// The operator moved the playhead; the chain is cancelled.
		return
	}
	m.scheduleAutoGoLocked(c, advancedTo)
}

// scheduleAutoGoLocked fires the follow-on GO after the finished cue's
// post-wait, unless the operator has moved the playhead in the
// meantime.
func (m *Manager) scheduleAutoGoLocked(finished cue.Cue, target string) {
	delay := time.Duration(finished.PostWait() * float64(time.Second))
	m.clk.AfterFunc(delay, func() {
		m.post(func() {
			if m.standByID != target {
				return
			}
			log.Debugf("auto-follow GO after cue %s", finished.Number())
			m.goLocked()
		})
	})
}

// StopCue stops one cue with the given fade and evicts it from the
// active set.
func (m *Manager) StopCue(id string, fadeTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCueLocked(id, fadeTime)
}

func (m *Manager) stopCueLocked(id string, fadeTime float64) {
	if c := m.findLocked(id); c != nil {
		c.Stop(fadeTime)
	}
	delete(m.active, id)
	delete(m.autoAdvance, id)
	m.playbackChangedLocked()
}

// StopAll stops every active cue with the given fade.
func (m *Manager) StopAll(fadeTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.active {
		if c := m.findLocked(id); c != nil {
			c.Stop(fadeTime)
		}
		delete(m.autoAdvance, id)
	}
	m.active = make(map[string]struct{})
	m.playbackChangedLocked()
	log.Info("stop all")
}

// Panic is the emergency stop: every cue in the workspace, active or
// not, is hard-stopped and the active set cleared. It always succeeds.
func (m *Manager) Panic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cues {
		panicStop(c)
	}
	m.active = make(map[string]struct{})
	m.autoAdvance = make(map[string]string)
	m.playbackChangedLocked()
	log.Warn("PANIC: all cues stopped")
	m.report(health.Info, "Panic stop issued", "Manager")
}

func panicStop(c cue.Cue) {
	c.Stop(0)
	if g, ok := c.(*cue.GroupCue); ok {
		for _, child := range g.Children() {
			panicStop(child)
		}
	}
}

// TogglePause pauses every running cue, or resumes every paused one if
// nothing is running.
func (m *Manager) TogglePause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.togglePauseLocked()
}

func (m *Manager) togglePauseLocked() {
	anyRunning := false
	for id := range m.active {
		if c := m.findLocked(id); c != nil && c.Status() == cue.StatusRunning {
			anyRunning = true
			break
		}
	}
	for id := range m.active {
		c := m.findLocked(id)
		if c == nil {
			continue
		}
		if anyRunning {
			c.Pause()
		} else {
			c.Resume()
		}
	}
	m.playbackChangedLocked()
}

// ActiveIDs returns the ids currently running or paused.
func (m *Manager) ActiveIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.active))
	for _, c := range m.cues {
		if _, ok := m.active[c.ID()]; ok {
			out = append(out, c.ID())
		}
	}
	return out
}

// StandBy returns the playhead cue id, empty when unset.
func (m *Manager) StandBy() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.standByID
}

// SetStandBy points the playhead at a top-level cue. Returns false for
// ids not in the top-level list.
func (m *Manager) SetStandBy(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStandByCheckedLocked(id)
}

func (m *Manager) setStandByCheckedLocked(id string) bool {
	if id != "" && m.indexOfLocked(id) < 0 {
		log.Warnf("standby: cue %s is not a top-level cue", id)
		return false
	}
	m.setStandByLocked(id)
	return true
}

func (m *Manager) setStandByLocked(id string) {
	if m.standByID == id {
		return
	}
	m.standByID = id
	if m.notify.StandByChanged != nil {
		m.notify.StandByChanged(id)
	}
}

// NextCue advances the playhead one position; from an unset playhead
// it lands on the first cue.
func (m *Manager) NextCue() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cues) == 0 {
		return false
	}
	index := -1
	if m.standByID != "" {
		index = m.indexOfLocked(m.standByID)
	}
	if index+1 >= len(m.cues) {
		return false
	}
	m.setStandByLocked(m.cues[index+1].ID())
	return true
}

// PreviousCue moves the playhead one position back.
func (m *Manager) PreviousCue() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cues) == 0 || m.standByID == "" {
		return false
	}
	index := m.indexOfLocked(m.standByID)
	if index <= 0 {
		return false
	}
	m.setStandByLocked(m.cues[index-1].ID())
	return true
}

func (m *Manager) playbackChangedLocked() {
	if m.notify.PlaybackChanged != nil {
		m.notify.PlaybackChanged()
	}
}

// transport adapts the manager for control cues. Control cues only
// ever execute on the control thread, so these methods assume the
// manager mutex is already held.
type transport struct {
	m *Manager
}

func (t *transport) Cue(id string) cue.Cue {
	return t.m.findLocked(id)
}

func (t *transport) StartCue(id string) bool {
	m := t.m
	c := m.findLocked(id)
	if c == nil || !c.CanExecute() {
		return false
	}
	topLevel := m.indexOfLocked(id) >= 0
	if topLevel {
		m.active[id] = struct{}{}
	}
	if !c.Execute() {
		if topLevel {
			delete(m.active, id)
		}
		return false
	}
	m.playbackChangedLocked()
	return true
}

func (t *transport) StopCue(id string, fadeTime float64) {
	t.m.stopCueLocked(id, fadeTime)
}

func (t *transport) SetStandBy(id string) bool {
	return t.m.setStandByCheckedLocked(id)
}

func (t *transport) TogglePause() {
	t.m.togglePauseLocked()
}
