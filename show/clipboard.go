package show

import (
	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/cue"
)

// The clipboard holds serialized cue documents, decoupled from the
// live objects: deleting the source cues does not invalidate a paste.

// CopySelection snapshots the selected cues in list order.
func (m *Manager) CopySelection() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.selectedIDsLocked()
	if len(ids) == 0 {
		return 0
	}
	m.clipboard = m.clipboard[:0]
	for _, id := range ids {
		if c := m.findLocked(id); c != nil {
			m.clipboard = append(m.clipboard, c.Document())
		}
	}
	log.Debugf("copied %d cues", len(m.clipboard))
	return len(m.clipboard)
}

// CutSelection copies then removes the selected cues.
func (m *Manager) CutSelection() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.selectedIDsLocked()
	if len(ids) == 0 {
		return 0
	}
	m.clipboard = m.clipboard[:0]
	for _, id := range ids {
		if c := m.findLocked(id); c != nil {
			m.clipboard = append(m.clipboard, c.Document())
		}
	}
	for _, id := range ids {
		m.removeLocked(id, false)
	}
	m.selection = make(map[string]struct{})
	m.selectionChangedLocked()
	if m.notify.CueCountChanged != nil {
		m.notify.CueCountChanged(len(m.cues))
	}
	log.Debugf("cut %d cues", len(m.clipboard))
	return len(m.clipboard)
}

// Paste rebuilds the clipboard cues with fresh ids and inserts them
// after the highest selected index, or at the end of the list. Returns
// the pasted cues.
func (m *Manager) Paste() []cue.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.clipboard) == 0 {
		return nil
	}

	at := len(m.cues)
	for i := len(m.cues) - 1; i >= 0; i-- {
		if _, ok := m.selection[m.cues[i].ID()]; ok {
			at = i + 1
			break
		}
	}

	pasted := make([]cue.Cue, 0, len(m.clipboard))
	for i, doc := range m.clipboard {
		// Clone after rebuilding so every pasted cue, children
		// included, gets a fresh id.
		c := cue.FromDocument(doc).Clone()
		m.insertLocked(at+i, c)
		pasted = append(pasted, c)
	}
	log.Debugf("pasted %d cues at index %d", len(pasted), at)
	return pasted
}

// ClipboardCount returns the number of cues on the clipboard.
func (m *Manager) ClipboardCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clipboard)
}
