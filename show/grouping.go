package show

import (
	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/cue"
)

// GroupSelection folds the selected top-level cues into a new group at
// the lowest selected index, preserving their relative order. The
// selection collapses to the group. Returns nil when fewer than two
// cues are selected.
func (m *Manager) GroupSelection(name string) *cue.GroupCue {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.selectedIDsLocked()
	if len(ids) < 2 {
		log.Warn("group: need at least two selected cues")
		return nil
	}

	lowest := m.indexOfLocked(ids[0])

	group := cue.NewGroupCue()
	if name != "" {
		group.SetName(name)
	}

	// Relocate by id; every removal shifts the indices under us.
	for _, id := range ids {
		index := m.indexOfLocked(id)
		if index < 0 {
			continue
		}
		c := m.cues[index]
		if _, running := m.active[id]; running {
			c.Stop(0)
			delete(m.active, id)
		}
		delete(m.autoAdvance, id)
		if m.standByID == id {
			m.setStandByLocked("")
		}
		c.OnFinished(nil)
		m.cues = append(m.cues[:index], m.cues[index+1:]...)
		group.AddChild(c)
	}

	m.adopt(group)
	m.cues = append(m.cues, nil)
	copy(m.cues[lowest+1:], m.cues[lowest:])
	m.cues[lowest] = group

	m.selection = map[string]struct{}{group.ID(): {}}
	m.renumberLocked()
	m.markDirtyLocked()
	m.selectionChangedLocked()
	if m.notify.CueAdded != nil {
		m.notify.CueAdded(group, lowest)
	}
	if m.notify.CueCountChanged != nil {
		m.notify.CueCountChanged(len(m.cues))
	}
	log.Infof("grouped %d cues into %s", group.ChildCount(), group.Number())
	return group
}

// Ungroup splices a group's children back into the top-level list at
// the group's position, in order, and deletes the group. Returns false
// when the id is unknown or not a group.
func (m *Manager) Ungroup(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexOfLocked(id)
	if index < 0 {
		log.Warnf("ungroup: unknown cue id %s", id)
		return false
	}
	group, ok := m.cues[index].(*cue.GroupCue)
	if !ok {
		log.Warnf("ungroup: cue %s is not a group", m.cues[index].Number())
		return false
	}

	if _, running := m.active[id]; running {
		group.Stop(0)
		delete(m.active, id)
	}
	delete(m.autoAdvance, id)
	delete(m.expanded, id)
	delete(m.selection, id)
	if m.standByID == id {
		m.setStandByLocked("")
	}

	children := group.ClearChildren()
	group.OnFinished(nil)

	// Replace the group slot with the first child, then wedge in the
	// rest.
	m.cues = append(m.cues[:index], m.cues[index+1:]...)
	for i, child := range children {
		m.adopt(child)
		at := index + i
		m.cues = append(m.cues, nil)
		copy(m.cues[at+1:], m.cues[at:])
		m.cues[at] = child
	}

	m.renumberLocked()
	m.markDirtyLocked()
	m.selectionChangedLocked()
	if m.notify.CueRemoved != nil {
		m.notify.CueRemoved(id)
	}
	if m.notify.CueCountChanged != nil {
		m.notify.CueCountChanged(len(m.cues))
	}
	log.Infof("ungrouped %d cues", len(children))
	return true
}
