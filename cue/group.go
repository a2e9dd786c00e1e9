package cue

import (
	"strings"

	"github.com/charmbracelet/log"
)

// GroupMode selects how a group runs its children.
type GroupMode string

const (
	// Sequential runs children one after another, chaining on each
	// child's finished signal.
	Sequential GroupMode = "Sequential"

	// Parallel starts every executable child at once and finishes when
	// the last one does.
	Parallel GroupMode = "Parallel"
)

// ParseGroupMode is case-insensitive and accepts "Simultaneous" as an
// alias for Parallel. Unknown strings fall back to Sequential.
func ParseGroupMode(s string) GroupMode {
	switch strings.ToLower(s) {
	case "parallel", "simultaneous":
		return Parallel
	default:
		return Sequential
	}
}

// GroupCue runs an ordered list of child cues, sequentially or in
// parallel. The group owns its children: it binds their environment,
// consumes their finished signals and derives its own duration from
// their timing.
type GroupCue struct {
	Base

	children []Cue
	mode     GroupMode

	// cursor is the index of the running child in sequential mode.
	cursor int

	// active tracks running children by id in parallel mode; the group
	// finishes when the set drains.
	active map[string]struct{}
}

func NewGroupCue() *GroupCue {
	c := &GroupCue{
		Base: newBase(TypeGroup),
		mode: Sequential,
	}
	c.name = "Group"
	c.color = "#9664ff"
	return c
}

func (c *GroupCue) Mode() GroupMode { return c.mode }

func (c *GroupCue) SetMode(mode GroupMode) {
	if c.mode != mode {
		c.mode = mode
		c.recalcDuration()
		c.touch()
	}
}

func (c *GroupCue) Children() []Cue { return c.children }

func (c *GroupCue) ChildCount() int { return len(c.children) }

func (c *GroupCue) ChildAt(index int) Cue {
	if index < 0 || index >= len(c.children) {
		return nil
	}
	return c.children[index]
}

// AddChild appends and adopts a child: the group takes over its
// environment and finished signal.
func (c *GroupCue) AddChild(child Cue) {
	if child == nil {
		return
	}
	c.adopt(child)
	c.children = append(c.children, child)
	c.recalcDuration()
	c.touch()
}

// InsertChild places a child at the given index, clamped to the list.
func (c *GroupCue) InsertChild(index int, child Cue) {
	if child == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.children) {
		index = len(c.children)
	}
	c.adopt(child)
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	c.recalcDuration()
	c.touch()
}

// RemoveChildAt detaches and returns the child, or nil if the index is
// out of range.
func (c *GroupCue) RemoveChildAt(index int) Cue {
	if index < 0 || index >= len(c.children) {
		return nil
	}
	child := c.children[index]
	c.children = append(c.children[:index], c.children[index+1:]...)
	child.OnFinished(nil)
	if c.active != nil {
		delete(c.active, child.ID())
	}
	c.recalcDuration()
	c.touch()
	return child
}

// ClearChildren detaches every child and returns them in order.
func (c *GroupCue) ClearChildren() []Cue {
	detached := c.children
	for _, child := range detached {
		child.OnFinished(nil)
	}
	c.children = nil
	c.active = nil
	c.recalcDuration()
	c.touch()
	return detached
}

func (c *GroupCue) adopt(child Cue) {
	child.Attach(c.env)
	id := child.ID()
	child.OnFinished(func() { c.childFinished(id) })
}

// Attach propagates the environment to every child.
func (c *GroupCue) Attach(env *Env) {
	c.env = env
	for _, child := range c.children {
		child.Attach(env)
	}
}

// recalcDuration derives the group duration from the children: the sum
// of each child's preWait+duration+postWait in sequential mode, the
// maximum in parallel mode.
func (c *GroupCue) recalcDuration() {
	total := 0.0
	for _, child := range c.children {
		span := child.PreWait() + child.Duration() + child.PostWait()
		if c.mode == Parallel {
			if span > total {
				total = span
			}
		} else {
			total += span
		}
	}
	c.duration = total
}

func (c *GroupCue) executableChildren() int {
	n := 0
	for _, child := range c.children {
		if child.CanExecute() {
			n++
		}
	}
	return n
}

// CanExecute requires at least one executable child on top of the base
// conditions.
func (c *GroupCue) CanExecute() bool {
	return c.Base.CanExecute() && c.executableChildren() > 0
}

// Validate checks every child without short-circuiting so each one gets
// its broken flag recomputed. An empty group is broken.
func (c *GroupCue) Validate() bool {
	ok := len(c.children) > 0
	for _, child := range c.children {
		if !child.Validate() {
			ok = false
		}
	}
	c.setBroken(!ok)
	if !c.broken && c.status == StatusBroken {
		c.status = StatusLoaded
	}
	return !c.broken
}

func (c *GroupCue) ValidationError() string {
	if len(c.children) == 0 {
		return "Group has no children"
	}
	for _, child := range c.children {
		if child.Broken() {
			return "Child cue " + child.Number() + " is broken"
		}
	}
	return ""
}

func (c *GroupCue) Execute() bool {
	if !c.CanExecute() {
		log.Warnf("group cue %s: cannot execute", c.number)
		return false
	}
	c.SetStatus(StatusRunning)
	c.nextRun()

	if c.mode == Parallel {
		return c.startParallel()
	}
	return c.startSequential()
}

func (c *GroupCue) startSequential() bool {
	c.cursor = -1
	if !c.startNextChild() {
		// Children passed CanExecute moments ago but none started.
		c.SetStatus(StatusFinished)
		c.signalFinished()
		return true
	}
	if c.status == StatusRunning {
		log.Debugf("group cue %s running sequentially, %d children", c.number, len(c.children))
	}
	return true
}

// startNextChild advances the cursor past non-executable children and
// starts the first one that will run. The cursor moves before Execute:
// an instantaneous child fires its finished signal from inside the call
// and childFinished must see it as the current child. Returns false
// when the list is exhausted.
func (c *GroupCue) startNextChild() bool {
	for i := c.cursor + 1; i < len(c.children); i++ {
		child := c.children[i]
		if !child.CanExecute() {
			log.Debugf("group cue %s: skipping child %s", c.number, child.Number())
			continue
		}
		c.cursor = i
		if child.Execute() {
			return true
		}
		log.Warnf("group cue %s: child %s failed to start, skipping", c.number, child.Number())
	}
	return false
}

func (c *GroupCue) startParallel() bool {
	// Register every runnable child before starting any: an
	// instantaneous child finishes inline from Execute and must not
	// drain the set while siblings are still pending.
	c.active = make(map[string]struct{})
	var runnable []Cue
	for _, child := range c.children {
		if child.CanExecute() {
			c.active[child.ID()] = struct{}{}
			runnable = append(runnable, child)
		}
	}
	for _, child := range runnable {
		if c.status != StatusRunning {
			break
		}
		if !child.Execute() {
			log.Warnf("group cue %s: child %s failed to start", c.number, child.Number())
			delete(c.active, child.ID())
		}
	}
	if c.status == StatusRunning {
		if len(c.active) == 0 {
			c.finish()
		} else {
			log.Debugf("group cue %s running %d children in parallel", c.number, len(c.active))
		}
	}
	return true
}

// childFinished advances a sequential group or drains the parallel
// active set. Late signals after a stop are ignored via the status
// check.
func (c *GroupCue) childFinished(id string) {
	if c.status != StatusRunning {
		// A child started outside a group pass (direct start through
		// the transport) still owes its reset to Loaded.
		for _, child := range c.children {
			if child.ID() == id && child.Status() == StatusFinished {
				child.SetStatus(StatusLoaded)
			}
		}
		return
	}

	if c.mode == Parallel {
		delete(c.active, id)
		if len(c.active) > 0 {
			return
		}
		c.finish()
		return
	}

	// Sequential: only the cursor child's completion advances the chain.
	if c.cursor < 0 || c.cursor >= len(c.children) || c.children[c.cursor].ID() != id {
		return
	}
	if c.children[c.cursor].Status() == StatusFinished {
		c.children[c.cursor].SetStatus(StatusLoaded)
	}
	if !c.startNextChild() {
		c.finish()
	}
}

func (c *GroupCue) finish() {
	c.active = nil
	c.SetStatus(StatusFinished)
	log.Debugf("group cue %s finished", c.number)
	c.signalFinished()
}

// Stop forwards to every non-idle child with the same fade time.
func (c *GroupCue) Stop(fadeTime float64) {
	c.invalidateRun()
	// Leave Running before forwarding so late childFinished signals are
	// dropped rather than advancing the chain.
	wasActive := c.status == StatusRunning || c.status == StatusPaused
	if c.status != StatusBroken {
		c.SetStatus(StatusLoaded)
	}
	c.active = nil
	c.cursor = -1
	if !wasActive {
		return
	}
	for _, child := range c.children {
		switch child.Status() {
		case StatusRunning, StatusPaused:
			child.Stop(fadeTime)
		}
	}
}

func (c *GroupCue) Pause() {
	if c.status != StatusRunning {
		return
	}
	for _, child := range c.children {
		if child.Status() == StatusRunning {
			child.Pause()
		}
	}
	c.SetStatus(StatusPaused)
}

func (c *GroupCue) Resume() {
	if c.status != StatusPaused {
		return
	}
	c.SetStatus(StatusRunning)
	for _, child := range c.children {
		if child.Status() == StatusPaused {
			child.Resume()
		}
	}
}

// Clone deep-copies the group and every child.
func (c *GroupCue) Clone() Cue {
	clone := &GroupCue{
		Base: c.cloneBase(),
		mode: c.mode,
	}
	for _, child := range c.children {
		clone.AddChild(child.Clone())
	}
	return clone
}

func (c *GroupCue) Document() Document {
	doc := c.baseDocument()
	doc.Mode = string(c.mode)
	if len(c.children) > 0 {
		doc.Children = make([]Document, len(c.children))
		for i, child := range c.children {
			doc.Children[i] = child.Document()
		}
	}
	return doc
}
