package cue

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/health"
	"k8s.io/utils/clock"
)

// WaitCue holds the show for its duration, then finishes. The timer runs
// on the injected clock; pause captures the remaining time and resume
// re-arms a fresh timer with it.
type WaitCue struct {
	Base

	timer     clock.Timer
	remaining float64
	startedAt time.Time
}

func NewWaitCue() *WaitCue {
	c := &WaitCue{Base: newBase(TypeWait)}
	c.name = "Wait"
	c.color = "#ffc864"
	c.duration = 5.0
	c.remaining = 5.0
	return c
}

// SetWaitDuration sets the duration and resets the remaining time.
func (c *WaitCue) SetWaitDuration(seconds float64) {
	c.SetDuration(seconds)
	c.remaining = c.duration
}

// Remaining returns the seconds left in the current or paused wait.
func (c *WaitCue) Remaining() float64 { return c.remaining }

func (c *WaitCue) Execute() bool {
	if !c.CanExecute() {
		return false
	}
	if c.duration <= 0 {
		c.env.report(health.Warning, "Wait cue has zero duration", "WaitCue "+c.number)
		return false
	}

	c.SetStatus(StatusRunning)
	c.remaining = c.duration
	c.arm(c.remaining)
	log.Debugf("wait cue %s started, %gs", c.number, c.duration)
	return true
}

// arm schedules the completion timer for the given number of seconds.
func (c *WaitCue) arm(seconds float64) {
	seq := c.nextRun()
	c.startedAt = c.env.clock().Now()
	d := time.Duration(seconds * float64(time.Second))
	c.timer = c.env.clock().AfterFunc(d, func() {
		c.env.post(func() { c.waitElapsed(seq) })
	})
}

func (c *WaitCue) waitElapsed(seq uint64) {
	if !c.runValid(seq) || c.status != StatusRunning {
		return
	}
	c.timer = nil
	c.remaining = 0
	c.SetStatus(StatusFinished)
	log.Debugf("wait cue %s finished", c.number)
	c.signalFinished()
}

func (c *WaitCue) Stop(fadeTime float64) {
	_ = fadeTime
	c.invalidateRun()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.remaining = 0
	if !c.broken {
		c.SetStatus(StatusLoaded)
	}
}

func (c *WaitCue) Pause() {
	if c.status != StatusRunning {
		return
	}
	c.invalidateRun()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	elapsed := c.env.clock().Now().Sub(c.startedAt).Seconds()
	c.remaining -= elapsed
	if c.remaining < 0 {
		c.remaining = 0
	}
	c.SetStatus(StatusPaused)
	log.Debugf("wait cue %s paused with %.2fs remaining", c.number, c.remaining)
}

func (c *WaitCue) Resume() {
	if c.status != StatusPaused {
		return
	}
	c.SetStatus(StatusRunning)
	c.arm(c.remaining)
}

func (c *WaitCue) Clone() Cue {
	clone := &WaitCue{Base: c.cloneBase()}
	clone.remaining = clone.duration
	return clone
}

func (c *WaitCue) Document() Document {
	return c.baseDocument()
}
