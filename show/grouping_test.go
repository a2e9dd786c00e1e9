package show

import (
	"testing"

	"github.com/cueforge/cueforge/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupThenUngroupRestoresOrder(t *testing.T) {
	f := newFixture(t)
	var cues []cue.Cue
	for i := 0; i < 5; i++ {
		cues = append(cues, f.m.CreateCue(cue.TypeWait))
	}

	// Select positions 1, 3 and 4 (0-based).
	require.True(t, f.m.SelectCue(cues[1].ID()))
	require.True(t, f.m.AddToSelection(cues[3].ID()))
	require.True(t, f.m.AddToSelection(cues[4].ID()))

	group := f.m.GroupSelection("Scene")
	require.NotNil(t, group)
	assert.Equal(t, 3, group.ChildCount())
	assert.Equal(t, 3, f.m.CueCount())
	assert.Equal(t, []string{group.ID()}, f.m.SelectedIDs())

	// The group sits at the lowest selected index.
	assert.Equal(t, group.ID(), f.m.Cues()[1].ID())
	// Children keep their original relative order and ids.
	assert.Equal(t, cues[1].ID(), group.ChildAt(0).ID())
	assert.Equal(t, cues[3].ID(), group.ChildAt(1).ID())
	assert.Equal(t, cues[4].ID(), group.ChildAt(2).ID())

	require.True(t, f.m.Ungroup(group.ID()))
	got := f.m.Cues()
	require.Len(t, got, 5)
	want := []string{cues[0].ID(), cues[1].ID(), cues[3].ID(), cues[4].ID(), cues[2].ID()}
	for i, id := range want {
		assert.Equal(t, id, got[i].ID(), "position %d", i)
	}
	assert.Nil(t, f.m.Cue(group.ID()), "the empty group is deleted")
}

func TestGroupNeedsTwoCues(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	require.True(t, f.m.SelectCue(a.ID()))
	assert.Nil(t, f.m.GroupSelection(""))
	assert.Equal(t, 1, f.m.CueCount())
}

func TestUngroupRejectsNonGroup(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	assert.False(t, f.m.Ungroup(a.ID()))
	assert.False(t, f.m.Ungroup("bogus"))
	assert.Equal(t, 1, f.m.CueCount())
}

func TestGroupedChildrenExecuteThroughGroup(t *testing.T) {
	f := newFixture(t)
	a := f.addWait(t, 1)
	b := f.addWait(t, 1)
	require.True(t, f.m.SelectRange(a.ID(), b.ID()))
	group := f.m.GroupSelection("")
	require.NotNil(t, group)

	require.True(t, f.m.SetStandBy(group.ID()))
	require.True(t, f.m.Go())
	assert.Equal(t, cue.StatusRunning, group.Status())
	assert.Equal(t, cue.StatusRunning, a.Status())
}

func TestSelectionPrimitives(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	b := f.m.CreateCue(cue.TypeWait)
	c := f.m.CreateCue(cue.TypeWait)

	require.True(t, f.m.SelectCue(b.ID()))
	assert.Equal(t, []string{b.ID()}, f.m.SelectedIDs())

	require.True(t, f.m.AddToSelection(a.ID()))
	assert.Equal(t, []string{a.ID(), b.ID()}, f.m.SelectedIDs(), "selection reads in list order")

	f.m.RemoveFromSelection(b.ID())
	assert.Equal(t, []string{a.ID()}, f.m.SelectedIDs())

	require.True(t, f.m.ToggleSelection(c.ID()))
	assert.True(t, f.m.IsSelected(c.ID()))
	require.True(t, f.m.ToggleSelection(c.ID()))
	assert.False(t, f.m.IsSelected(c.ID()))

	require.True(t, f.m.SelectRange(c.ID(), a.ID()))
	assert.Equal(t, []string{a.ID(), b.ID(), c.ID()}, f.m.SelectedIDs(), "range works backwards")

	f.m.SelectAll()
	assert.Len(t, f.m.SelectedIDs(), 3)
	f.m.ClearSelection()
	assert.Empty(t, f.m.SelectedIDs())

	assert.False(t, f.m.SelectCue("bogus"))
}

func TestCopyPaste(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	a.SetName("Thunder")
	b := f.m.CreateCue(cue.TypeWait)

	require.True(t, f.m.SelectCue(a.ID()))
	assert.Equal(t, 1, f.m.CopySelection())

	pasted := f.m.Paste()
	require.Len(t, pasted, 1)
	assert.NotEqual(t, a.ID(), pasted[0].ID(), "paste mints fresh ids")
	assert.Equal(t, "Thunder", pasted[0].Name())

	// Pasted after the highest selected index, before the unselected
	// tail.
	cues := f.m.Cues()
	require.Len(t, cues, 3)
	assert.Equal(t, a.ID(), cues[0].ID())
	assert.Equal(t, pasted[0].ID(), cues[1].ID())
	assert.Equal(t, b.ID(), cues[2].ID())
}

func TestCutPaste(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	a.SetName("Rain")
	f.m.CreateCue(cue.TypeWait)

	require.True(t, f.m.SelectCue(a.ID()))
	assert.Equal(t, 1, f.m.CutSelection())
	assert.Equal(t, 1, f.m.CueCount())
	assert.Nil(t, f.m.Cue(a.ID()))

	pasted := f.m.Paste()
	require.Len(t, pasted, 1)
	assert.Equal(t, "Rain", pasted[0].Name())
	assert.Equal(t, 2, f.m.CueCount())
}

func TestPasteSurvivesSourceRemoval(t *testing.T) {
	f := newFixture(t)
	a := f.m.CreateCue(cue.TypeWait)
	a.SetName("Ghost")

	require.True(t, f.m.SelectCue(a.ID()))
	require.Equal(t, 1, f.m.CopySelection())
	require.True(t, f.m.RemoveCue(a.ID()))

	pasted := f.m.Paste()
	require.Len(t, pasted, 1)
	assert.Equal(t, "Ghost", pasted[0].Name())
}

func TestPasteEmptyClipboard(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.m.Paste())
	assert.Equal(t, 0, f.m.ClipboardCount())
}
