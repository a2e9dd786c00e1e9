package show

import "github.com/charmbracelet/log"

// Selection tracks top-level cues for structural operations. It has no
// execution semantics.

// SelectCue replaces the selection with a single cue.
func (m *Manager) SelectCue(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOfLocked(id) < 0 {
		log.Warnf("select: unknown cue id %s", id)
		return false
	}
	m.selection = map[string]struct{}{id: {}}
	m.selectionChangedLocked()
	return true
}

// AddToSelection grows the selection by one cue.
func (m *Manager) AddToSelection(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOfLocked(id) < 0 {
		return false
	}
	m.selection[id] = struct{}{}
	m.selectionChangedLocked()
	return true
}

// RemoveFromSelection drops one cue from the selection.
func (m *Manager) RemoveFromSelection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.selection[id]; !ok {
		return
	}
	delete(m.selection, id)
	m.selectionChangedLocked()
}

// ToggleSelection flips one cue's membership.
func (m *Manager) ToggleSelection(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOfLocked(id) < 0 {
		return false
	}
	if _, ok := m.selection[id]; ok {
		delete(m.selection, id)
	} else {
		m.selection[id] = struct{}{}
	}
	m.selectionChangedLocked()
	return true
}

// SelectRange selects the contiguous span between two cues, inclusive,
// in either direction.
func (m *Manager) SelectRange(fromID, toID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.indexOfLocked(fromID)
	to := m.indexOfLocked(toID)
	if from < 0 || to < 0 {
		log.Warnf("select range: unknown cue id")
		return false
	}
	if from > to {
		from, to = to, from
	}
	m.selection = make(map[string]struct{})
	for i := from; i <= to; i++ {
		m.selection[m.cues[i].ID()] = struct{}{}
	}
	m.selectionChangedLocked()
	return true
}

// SelectAll selects every top-level cue.
func (m *Manager) SelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = make(map[string]struct{}, len(m.cues))
	for _, c := range m.cues {
		m.selection[c.ID()] = struct{}{}
	}
	m.selectionChangedLocked()
}

// ClearSelection empties the selection.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.selection) == 0 {
		return
	}
	m.selection = make(map[string]struct{})
	m.selectionChangedLocked()
}

// SelectedIDs returns the selection ordered by list position.
func (m *Manager) SelectedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedIDsLocked()
}

func (m *Manager) selectedIDsLocked() []string {
	out := make([]string, 0, len(m.selection))
	for _, c := range m.cues {
		if _, ok := m.selection[c.ID()]; ok {
			out = append(out, c.ID())
		}
	}
	return out
}

func (m *Manager) IsSelected(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selection[id]
	return ok
}

func (m *Manager) selectionChangedLocked() {
	if m.notify.SelectionChanged != nil {
		m.notify.SelectionChanged(m.selectedIDsLocked())
	}
}
