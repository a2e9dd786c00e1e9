// Package show implements the cue manager: the orchestrator that owns
// the top-level cue list, the standby playhead, the active set, the
// selection and clipboard, and the workspace file.
//
// The manager is logically single-threaded. One mutex serializes every
// public operation; asynchronous completions (timers, playback
// callbacks) re-enter through the same mutex via the environment's
// Post hook. Notification callbacks fire with the mutex held and must
// not call back into the manager.
package show

import (
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/audio"
	"github.com/cueforge/cueforge/cue"
	"github.com/cueforge/cueforge/health"
	"github.com/spf13/afero"
	"k8s.io/utils/clock"
)

// Notifier carries the presentation-layer callbacks. Every field is
// optional. Callbacks run synchronously at the point of state change.
type Notifier struct {
	CueAdded         func(c cue.Cue, index int)
	CueRemoved       func(id string)
	CueMoved         func(id string, from, to int)
	CueCountChanged  func(count int)
	SelectionChanged func(ids []string)
	StandByChanged   func(id string)
	PlaybackChanged  func()
	WorkspaceCleared func()
	WorkspaceLoaded  func(path string)
}

// Options configures a Manager. Zero fields get production defaults:
// the real clock, the OS filesystem, no audio engine, no health sink.
type Options struct {
	Clock    clock.WithTickerAndDelayedExecution
	Files    afero.Fs
	Audio    audio.Engine
	Health   health.Reporter
	Notifier Notifier
}

// Manager owns the master cue list and all execution bookkeeping.
type Manager struct {
	mu sync.Mutex

	clk    clock.WithTickerAndDelayedExecution
	fs     afero.Fs
	engine audio.Engine
	sink   health.Reporter
	notify Notifier

	env  *cue.Env
	cues []cue.Cue

	standByID string
	active    map[string]struct{}
	selection map[string]struct{}
	clipboard []cue.Document
	expanded  map[string]struct{}

	// autoAdvance maps a continue-mode cue's id to the standby id its
	// GO advanced to. The follow-on GO fires only while the standby
	// still points there.
	autoAdvance map[string]string

	path  string
	dirty bool
}

func New(opts Options) *Manager {
	m := &Manager{
		clk:         opts.Clock,
		fs:          opts.Files,
		engine:      opts.Audio,
		sink:        opts.Health,
		notify:      opts.Notifier,
		active:      make(map[string]struct{}),
		selection:   make(map[string]struct{}),
		expanded:    make(map[string]struct{}),
		autoAdvance: make(map[string]string),
	}
	if m.clk == nil {
		m.clk = clock.RealClock{}
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	m.env = &cue.Env{
		Clock:     m.clk,
		Files:     m.fs,
		Health:    m.sink,
		Audio:     m.engine,
		Transport: &transport{m: m},
		Post:      m.post,
	}
	return m
}

// post marshals a completion callback onto the control thread.
func (m *Manager) post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *Manager) report(sev health.Severity, message, source string) {
	if m.sink != nil {
		m.sink.Report(sev, message, source)
	}
}

// adopt binds a cue as a top-level citizen: environment attached,
// finished signal routed to the manager.
func (m *Manager) adopt(c cue.Cue) {
	c.Attach(m.env)
	id := c.ID()
	c.OnFinished(func() { m.cueFinishedLocked(id) })
}

func (m *Manager) indexOfLocked(id string) int {
	for i, c := range m.cues {
		if c.ID() == id {
			return i
		}
	}
	return -1
}

// findLocked resolves an id anywhere in the workspace, descending into
// groups.
func (m *Manager) findLocked(id string) cue.Cue {
	for _, c := range m.cues {
		if found := findIn(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findIn(c cue.Cue, id string) cue.Cue {
	if c.ID() == id {
		return c
	}
	if g, ok := c.(*cue.GroupCue); ok {
		for _, child := range g.Children() {
			if found := findIn(child, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// Cue resolves an id anywhere in the workspace, or nil.
func (m *Manager) Cue(id string) cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(id)
}

// CueByNumber resolves a top-level cue by display number. Numbers are
// reassigned on every structural change, so ids are the stable handle.
func (m *Manager) CueByNumber(number string) cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cues {
		if c.Number() == number {
			return c
		}
	}
	return nil
}

// Cues returns the top-level list in order.
func (m *Manager) Cues() []cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cue.Cue, len(m.cues))
	copy(out, m.cues)
	return out
}

func (m *Manager) CueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cues)
}

// CreateCue makes a cue of the given type, appends it and renumbers.
func (m *Manager) CreateCue(t cue.Type) cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cue.New(t)
	m.insertLocked(len(m.cues), c)
	log.Infof("created %s cue %s", t, c.Number())
	return c
}

// InsertCue places an already-built cue at the given index, clamped to
// the list.
func (m *Manager) InsertCue(index int, c cue.Cue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(m.cues) {
		index = len(m.cues)
	}
	m.insertLocked(index, c)
}

func (m *Manager) insertLocked(index int, c cue.Cue) {
	m.adopt(c)
	m.cues = append(m.cues, nil)
	copy(m.cues[index+1:], m.cues[index:])
	m.cues[index] = c
	m.renumberLocked()
	m.markDirtyLocked()
	if m.notify.CueAdded != nil {
		m.notify.CueAdded(c, index)
	}
	if m.notify.CueCountChanged != nil {
		m.notify.CueCountChanged(len(m.cues))
	}
}

// RemoveCue stops the cue if active, evicts it from every index and
// deletes it. Returns false for an unknown id.
func (m *Manager) RemoveCue(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id, true)
}

// RemoveCueQuiet removes without firing notifications. Cut uses it so
// a multi-cue cut reads as one operation.
func (m *Manager) RemoveCueQuiet(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id, false)
}

func (m *Manager) removeLocked(id string, loud bool) bool {
	index := m.indexOfLocked(id)
	if index < 0 {
		log.Warnf("remove: unknown cue id %s", id)
		return false
	}
	c := m.cues[index]
	if _, running := m.active[id]; running {
		c.Stop(0)
	}
	delete(m.active, id)
	delete(m.selection, id)
	delete(m.expanded, id)
	delete(m.autoAdvance, id)
	if m.standByID == id {
		m.setStandByLocked("")
	}
	c.OnFinished(nil)
	m.cues = append(m.cues[:index], m.cues[index+1:]...)
	m.renumberLocked()
	m.markDirtyLocked()
	if loud {
		if m.notify.CueRemoved != nil {
			m.notify.CueRemoved(id)
		}
		if m.notify.CueCountChanged != nil {
			m.notify.CueCountChanged(len(m.cues))
		}
	}
	return true
}

// MoveCue relocates a top-level cue to a new index. Returns false when
// the id is unknown or the index is out of range.
func (m *Manager) MoveCue(id string, to int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(id, to)
}

func (m *Manager) moveLocked(id string, to int) bool {
	from := m.indexOfLocked(id)
	if from < 0 {
		log.Warnf("move: unknown cue id %s", id)
		return false
	}
	if to < 0 || to >= len(m.cues) {
		log.Warnf("move: index %d out of range", to)
		return false
	}
	if from == to {
		return true
	}
	c := m.cues[from]
	m.cues = append(m.cues[:from], m.cues[from+1:]...)
	m.cues = append(m.cues, nil)
	copy(m.cues[to+1:], m.cues[to:])
	m.cues[to] = c
	m.renumberLocked()
	m.markDirtyLocked()
	if m.notify.CueMoved != nil {
		m.notify.CueMoved(id, from, to)
	}
	return true
}

// MoveCueUp swaps the cue with its predecessor.
func (m *Manager) MoveCueUp(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.indexOfLocked(id)
	if from <= 0 {
		return false
	}
	return m.moveLocked(id, from-1)
}

// MoveCueDown swaps the cue with its successor.
func (m *Manager) MoveCueDown(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.indexOfLocked(id)
	if from < 0 || from >= len(m.cues)-1 {
		return false
	}
	return m.moveLocked(id, from+1)
}

// DuplicateCue deep-clones the cue, names the copy "<name> Copy" and
// inserts it right after the original.
func (m *Manager) DuplicateCue(id string) cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := m.indexOfLocked(id)
	if index < 0 {
		log.Warnf("duplicate: unknown cue id %s", id)
		return nil
	}
	clone := m.cues[index].Clone()
	clone.SetName(clone.Name() + " Copy")
	m.insertLocked(index+1, clone)
	return clone
}

// RenumberAll reassigns top-level numbers to 1-based positions.
func (m *Manager) RenumberAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renumberLocked()
}

func (m *Manager) renumberLocked() {
	for i, c := range m.cues {
		c.SetNumber(numberFor(i))
	}
}

func numberFor(index int) string {
	return strconv.Itoa(index + 1)
}

// ValidateAll revalidates every cue, descending into groups. Returns
// the ids of broken cues.
func (m *Manager) ValidateAll() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var broken []string
	for _, c := range m.cues {
		broken = append(broken, validateTree(c)...)
	}
	return broken
}

func validateTree(c cue.Cue) []string {
	// Group validation descends on its own; collect the broken ids
	// afterwards.
	c.Validate()
	var broken []string
	collectBroken(c, &broken)
	return broken
}

func collectBroken(c cue.Cue, out *[]string) {
	if c.Broken() {
		*out = append(*out, c.ID())
	}
	if g, ok := c.(*cue.GroupCue); ok {
		for _, child := range g.Children() {
			collectBroken(child, out)
		}
	}
}

// SetExpanded records a group's display expansion. Persisted with the
// workspace, never executed.
func (m *Manager) SetExpanded(id string, expanded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expanded {
		m.expanded[id] = struct{}{}
	} else {
		delete(m.expanded, id)
	}
	m.markDirtyLocked()
}

func (m *Manager) IsExpanded(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.expanded[id]
	return ok
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
}

// IsDirty reports unsaved changes since the last save or load.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Path returns the current workspace file path, empty for a new show.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}
