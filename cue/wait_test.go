package cue

import (
	"testing"
	"time"
)

func TestWaitCueRunsToCompletion(t *testing.T) {
	env, clk, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(3)

	finished := false
	c.OnFinished(func() { finished = true })

	if !c.Execute() {
		t.Fatal("execute failed")
	}
	if c.Status() != StatusRunning {
		t.Fatalf("status = %v, want Running", c.Status())
	}

	clk.Step(2 * time.Second)
	if finished {
		t.Fatal("finished too early")
	}
	clk.Step(time.Second)
	if !finished {
		t.Fatal("wait did not finish after full duration")
	}
	if c.Status() != StatusFinished {
		t.Errorf("status = %v, want Finished", c.Status())
	}
}

func TestWaitCueZeroDurationRefuses(t *testing.T) {
	env, _, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(0)

	if c.Execute() {
		t.Error("zero-duration wait must refuse to execute")
	}
	if c.Status() != StatusLoaded {
		t.Errorf("status = %v, want Loaded", c.Status())
	}
}

func TestWaitCuePauseResume(t *testing.T) {
	env, clk, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(10)

	finished := false
	c.OnFinished(func() { finished = true })

	c.Execute()
	clk.Step(4 * time.Second)
	c.Pause()
	if c.Status() != StatusPaused {
		t.Fatalf("status = %v, want Paused", c.Status())
	}
	if got := c.Remaining(); got != 6 {
		t.Errorf("remaining = %g, want 6", got)
	}

	// Paused time must not count down.
	clk.Step(30 * time.Second)
	if finished {
		t.Fatal("paused wait must not finish")
	}

	c.Resume()
	clk.Step(5 * time.Second)
	if finished {
		t.Fatal("finished before remaining time elapsed")
	}
	clk.Step(time.Second)
	if !finished {
		t.Fatal("resumed wait did not finish")
	}
}

func TestWaitCueStopCancelsTimer(t *testing.T) {
	env, clk, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(5)

	finished := false
	c.OnFinished(func() { finished = true })

	c.Execute()
	c.Stop(0)
	if c.Status() != StatusLoaded {
		t.Fatalf("status = %v, want Loaded", c.Status())
	}

	clk.Step(time.Minute)
	if finished {
		t.Error("stopped wait must not fire its timer")
	}
}

func TestWaitCueDoubleStopIsIdempotent(t *testing.T) {
	env, _, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(5)

	c.Execute()
	c.Stop(0)
	c.Stop(0)
	if c.Status() != StatusLoaded {
		t.Errorf("status = %v, want Loaded", c.Status())
	}
}

func TestWaitCueRestartAfterStop(t *testing.T) {
	env, clk, _ := testEnv(t)
	c := NewWaitCue()
	c.Attach(env)
	c.SetWaitDuration(2)

	count := 0
	c.OnFinished(func() { count++ })

	c.Execute()
	c.Stop(0)
	c.Execute()
	clk.Step(2 * time.Second)

	if count != 1 {
		t.Errorf("finished fired %d times, want 1", count)
	}
	if c.Status() != StatusFinished {
		t.Errorf("status = %v, want Finished", c.Status())
	}
}
