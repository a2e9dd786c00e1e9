package cue

import (
	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/health"
)

// ControlCue acts on another cue through the transport instead of
// producing output itself. One struct serves all control kinds; the
// embedded type selects the action. Control actions are instantaneous:
// Execute runs the action and finishes synchronously.
type ControlCue struct {
	Base

	fadeTime float64
}

// controlDefaults maps each kind to its default name and display color.
var controlDefaults = map[Type]struct {
	name  string
	color string
}{
	TypeStart:  {"Start", "#64c8ff"},
	TypeStop:   {"Stop", "#ff6464"},
	TypeGoto:   {"Goto", "#c8ff64"},
	TypePause:  {"Pause", "#ffb464"},
	TypeLoad:   {"Load", "#64ffc8"},
	TypeReset:  {"Reset", "#c864ff"},
	TypeArm:    {"Arm", "#96ff64"},
	TypeDisarm: {"Disarm", "#ff9664"},
	TypeDevamp: {"Devamp", "#64ffff"},
}

func NewControlCue(kind Type) *ControlCue {
	if !kind.IsControl() {
		kind = TypeStart
	}
	c := &ControlCue{Base: newBase(kind)}
	d := controlDefaults[kind]
	c.name = d.name
	c.color = d.color
	return c
}

func (c *ControlCue) FadeTime() float64 { return c.fadeTime }

// SetFadeTime clamps to >= 0. Only Stop and Devamp actions use it.
func (c *ControlCue) SetFadeTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if c.fadeTime != seconds {
		c.fadeTime = seconds
		c.touch()
	}
}

// CanExecute requires a resolvable target for every kind except Pause,
// which toggles the whole transport when untargeted.
func (c *ControlCue) CanExecute() bool {
	if !c.Base.CanExecute() {
		return false
	}
	if c.typ == TypePause && c.targetCueID == "" {
		return true
	}
	return c.hasValidTarget()
}

func (c *ControlCue) Validate() bool {
	ok := c.typ == TypePause && c.targetCueID == ""
	if !ok {
		ok = c.hasValidTarget()
	}
	c.setBroken(!ok)
	if !c.broken && c.status == StatusBroken {
		c.status = StatusLoaded
	}
	return !c.broken
}

func (c *ControlCue) ValidationError() string {
	if c.typ == TypePause && c.targetCueID == "" {
		return ""
	}
	if c.targetCueID == "" {
		return "No target cue assigned"
	}
	if !c.hasValidTarget() {
		return "Target cue not found: " + c.targetCueID
	}
	return ""
}

// Execute performs the control action and finishes in the same call.
// The finished signal fires inline so sequential groups chain without a
// round trip through the control thread.
func (c *ControlCue) Execute() bool {
	if !c.CanExecute() {
		log.Warnf("control cue %s: cannot execute", c.number)
		return false
	}
	t := c.env.transport()
	if t == nil {
		c.env.report(health.Error, "No transport connected", "ControlCue "+c.number)
		return false
	}

	c.SetStatus(StatusRunning)
	c.perform(t)
	c.SetStatus(StatusFinished)
	c.signalFinished()
	return true
}

func (c *ControlCue) perform(t Transport) {
	switch c.typ {
	case TypeStart:
		if !t.StartCue(c.targetCueID) {
			c.env.report(health.Warning,
				"Start target did not run: "+c.targetCueID, "ControlCue "+c.number)
		}
	case TypeStop:
		t.StopCue(c.targetCueID, c.fadeTime)
	case TypeGoto, TypeLoad:
		if !t.SetStandBy(c.targetCueID) {
			c.env.report(health.Warning,
				"Standby target not found: "+c.targetCueID, "ControlCue "+c.number)
		}
	case TypePause:
		if c.targetCueID == "" {
			t.TogglePause()
			return
		}
		if target := t.Cue(c.targetCueID); target != nil {
			switch target.Status() {
			case StatusRunning:
				target.Pause()
			case StatusPaused:
				target.Resume()
			}
		}
	case TypeReset:
		t.StopCue(c.targetCueID, 0)
		if target := t.Cue(c.targetCueID); target != nil {
			target.SetStatus(StatusLoaded)
		}
	case TypeArm:
		if target := t.Cue(c.targetCueID); target != nil {
			target.SetArmed(true)
		}
	case TypeDisarm:
		if target := t.Cue(c.targetCueID); target != nil {
			target.SetArmed(false)
		}
	case TypeDevamp:
		fade := c.fadeTime
		if fade <= 0 {
			fade = 0.5
		}
		t.StopCue(c.targetCueID, fade)
	}
	log.Debugf("control cue %s performed %s on %s", c.number, c.typ, c.targetCueID)
}

func (c *ControlCue) Clone() Cue {
	return &ControlCue{
		Base:     c.cloneBase(),
		fadeTime: c.fadeTime,
	}
}

func (c *ControlCue) Document() Document {
	doc := c.baseDocument()
	doc.FadeTime = c.fadeTime
	return doc
}
