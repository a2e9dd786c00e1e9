package show

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/cue"
	"github.com/spf13/afero"
)

// workspaceVersion is written on save. Older documents load as long as
// the cue array parses.
const workspaceVersion = "2.0.0"

// workspaceDocument is the persisted show file. StandByCue is the
// written key; LegacyStandBy accepts documents from older writers.
type workspaceDocument struct {
	Version        string         `json:"version"`
	Cues           []cue.Document `json:"cues"`
	ExpandedGroups []string       `json:"expandedGroups,omitempty"`
	StandByCue     string         `json:"standbyCue,omitempty"`
	LegacyStandBy  string         `json:"standByCueId,omitempty"`
}

// NewWorkspace discards everything and starts an empty, clean show.
func (m *Manager) NewWorkspace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	m.path = ""
	m.dirty = false
	if m.notify.WorkspaceCleared != nil {
		m.notify.WorkspaceCleared()
	}
	log.Info("new workspace")
}

func (m *Manager) clearLocked() {
	for id := range m.active {
		if c := m.findLocked(id); c != nil {
			c.Stop(0)
		}
	}
	for _, c := range m.cues {
		c.OnFinished(nil)
	}
	m.cues = nil
	m.active = make(map[string]struct{})
	m.selection = make(map[string]struct{})
	m.expanded = make(map[string]struct{})
	m.autoAdvance = make(map[string]string)
	m.standByID = ""
}

// SaveWorkspace writes the show to the given path and clears the dirty
// flag. An empty path reuses the current one.
func (m *Manager) SaveWorkspace(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == "" {
		path = m.path
	}
	if path == "" {
		return fmt.Errorf("save workspace: no path")
	}

	doc := workspaceDocument{
		Version:    workspaceVersion,
		Cues:       make([]cue.Document, len(m.cues)),
		StandByCue: m.standByID,
	}
	for i, c := range m.cues {
		doc.Cues[i] = c.Document()
	}
	// Expansion is recorded for nested groups too; walk the tree in
	// document order so the saved list is deterministic.
	var walkExpanded func(c cue.Cue)
	walkExpanded = func(c cue.Cue) {
		if _, ok := m.expanded[c.ID()]; ok {
			doc.ExpandedGroups = append(doc.ExpandedGroups, c.ID())
		}
		if g, ok := c.(*cue.GroupCue); ok {
			for _, child := range g.Children() {
				walkExpanded(child)
			}
		}
	}
	for _, c := range m.cues {
		walkExpanded(c)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	if err := afero.WriteFile(m.fs, path, raw, 0o644); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}

	m.path = path
	m.dirty = false
	log.Infof("saved workspace %s (%d cues)", path, len(m.cues))
	return nil
}

// LoadWorkspace replaces the current show with the file's contents.
// The load validates every cue so broken ones surface immediately.
func (m *Manager) LoadWorkspace(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	var doc workspaceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("load workspace: parse: %w", err)
	}

	m.clearLocked()
	for _, cueDoc := range doc.Cues {
		c := cue.FromDocument(cueDoc)
		m.adopt(c)
		m.cues = append(m.cues, c)
	}
	for _, id := range doc.ExpandedGroups {
		m.expanded[id] = struct{}{}
	}

	standBy := doc.StandByCue
	if standBy == "" {
		standBy = doc.LegacyStandBy
	}
	if standBy != "" && m.indexOfLocked(standBy) >= 0 {
		m.standByID = standBy
	}

	broken := 0
	for _, c := range m.cues {
		broken += len(validateTree(c))
	}
	if broken > 0 {
		log.Warnf("workspace %s loaded with %d broken cues", path, broken)
	}

	m.path = path
	m.dirty = false
	if m.notify.WorkspaceLoaded != nil {
		m.notify.WorkspaceLoaded(path)
	}
	if m.notify.CueCountChanged != nil {
		m.notify.CueCountChanged(len(m.cues))
	}
	log.Infof("loaded workspace %s (%d cues, version %s)", path, len(m.cues), doc.Version)
	return nil
}
