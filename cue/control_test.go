package cue

import (
	"testing"
)

// fakeTransport records control actions and resolves cues from a fixed
// set.
type fakeTransport struct {
	cues map[string]Cue

	started      []string
	stopped      []string
	stopFades    []float64
	standBy      []string
	pauseToggles int

	startResult   bool
	standByResult bool
}

func newFakeTransport(cues ...Cue) *fakeTransport {
	ft := &fakeTransport{
		cues:          make(map[string]Cue),
		startResult:   true,
		standByResult: true,
	}
	for _, c := range cues {
		ft.cues[c.ID()] = c
	}
	return ft
}

func (ft *fakeTransport) Cue(id string) Cue { return ft.cues[id] }

func (ft *fakeTransport) StartCue(id string) bool {
	ft.started = append(ft.started, id)
	return ft.startResult
}

func (ft *fakeTransport) StopCue(id string, fadeTime float64) {
	ft.stopped = append(ft.stopped, id)
	ft.stopFades = append(ft.stopFades, fadeTime)
}

func (ft *fakeTransport) SetStandBy(id string) bool {
	ft.standBy = append(ft.standBy, id)
	return ft.standByResult
}

func (ft *fakeTransport) TogglePause() { ft.pauseToggles++ }

func controlEnv(t *testing.T, ft *fakeTransport) *Env {
	t.Helper()
	env, _, _ := testEnv(t)
	env.Transport = ft
	return env
}

func TestControlCueStart(t *testing.T) {
	target := NewWaitCue()
	ft := newFakeTransport(target)

	c := NewControlCue(TypeStart)
	c.Attach(controlEnv(t, ft))
	c.SetTargetCueID(target.ID())

	finished := false
	c.OnFinished(func() { finished = true })

	if !c.Execute() {
		t.Fatal("execute failed")
	}
	if len(ft.started) != 1 || ft.started[0] != target.ID() {
		t.Errorf("started = %v, want [%s]", ft.started, target.ID())
	}
	if !finished {
		t.Error("control cue must finish synchronously")
	}
	if c.Status() != StatusFinished {
		t.Errorf("status = %v, want Finished", c.Status())
	}
}

func TestControlCueStopCarriesFade(t *testing.T) {
	target := NewWaitCue()
	ft := newFakeTransport(target)

	c := NewControlCue(TypeStop)
	c.Attach(controlEnv(t, ft))
	c.SetTargetCueID(target.ID())
	c.SetFadeTime(2.5)

	c.Execute()
	if len(ft.stopped) != 1 || ft.stopFades[0] != 2.5 {
		t.Errorf("stop = %v fades = %v, want one stop with 2.5", ft.stopped, ft.stopFades)
	}
}

func TestControlCueGotoAndLoadSetStandby(t *testing.T) {
	for _, kind := range []Type{TypeGoto, TypeLoad} {
		target := NewWaitCue()
		ft := newFakeTransport(target)

		c := NewControlCue(kind)
		c.Attach(controlEnv(t, ft))
		c.SetTargetCueID(target.ID())

		c.Execute()
		if len(ft.standBy) != 1 || ft.standBy[0] != target.ID() {
			t.Errorf("%v: standBy = %v, want [%s]", kind, ft.standBy, target.ID())
		}
	}
}

func TestControlCuePauseTogglesTarget(t *testing.T) {
	target := NewWaitCue()
	target.SetStatus(StatusRunning)
	ft := newFakeTransport(target)

	c := NewControlCue(TypePause)
	c.Attach(controlEnv(t, ft))
	c.SetTargetCueID(target.ID())

	c.Execute()
	if target.Status() != StatusPaused {
		t.Fatalf("target status = %v, want Paused", target.Status())
	}

	c.SetStatus(StatusLoaded)
	c.Execute()
	if target.Status() != StatusRunning {
		t.Fatalf("target status = %v, want Running after second pulse", target.Status())
	}
}

func TestControlCuePauseWithoutTargetTogglesTransport(t *testing.T) {
	ft := newFakeTransport()

	c := NewControlCue(TypePause)
	c.Attach(controlEnv(t, ft))

	if !c.CanExecute() {
		t.Fatal("untargeted pause must be executable")
	}
	c.Execute()
	if ft.pauseToggles != 1 {
		t.Errorf("pause toggles = %d, want 1", ft.pauseToggles)
	}
}

func TestControlCueResetStopsAndReloads(t *testing.T) {
	target := NewWaitCue()
	target.SetStatus(StatusFinished)
	ft := newFakeTransport(target)

	c := NewControlCue(TypeReset)
	c.Attach(controlEnv(t, ft))
	c.SetTargetCueID(target.ID())

	c.Execute()
	if len(ft.stopped) != 1 || ft.stopFades[0] != 0 {
		t.Errorf("reset must hard-stop, got %v %v", ft.stopped, ft.stopFades)
	}
	if target.Status() != StatusLoaded {
		t.Errorf("target status = %v, want Loaded", target.Status())
	}
}

func TestControlCueArmDisarm(t *testing.T) {
	target := NewWaitCue()
	target.SetArmed(false)
	ft := newFakeTransport(target)

	arm := NewControlCue(TypeArm)
	arm.Attach(controlEnv(t, ft))
	arm.SetTargetCueID(target.ID())
	arm.Execute()
	if !target.Armed() {
		t.Error("arm cue must arm the target")
	}

	disarm := NewControlCue(TypeDisarm)
	disarm.Attach(controlEnv(t, ft))
	disarm.SetTargetCueID(target.ID())
	disarm.Execute()
	if target.Armed() {
		t.Error("disarm cue must disarm the target")
	}
}

func TestControlCueDevampDefaultsFade(t *testing.T) {
	target := NewWaitCue()
	ft := newFakeTransport(target)

	c := NewControlCue(TypeDevamp)
	c.Attach(controlEnv(t, ft))
	c.SetTargetCueID(target.ID())

	c.Execute()
	if len(ft.stopFades) != 1 || ft.stopFades[0] != 0.5 {
		t.Errorf("devamp fades = %v, want default 0.5", ft.stopFades)
	}
}

func TestControlCueValidation(t *testing.T) {
	ft := newFakeTransport()

	c := NewControlCue(TypeStart)
	c.Attach(controlEnv(t, ft))

	if c.Validate() {
		t.Error("start cue without target must be broken")
	}
	if got := c.ValidationError(); got != "No target cue assigned" {
		t.Errorf("validation error = %q", got)
	}

	c.SetTargetCueID("missing-id")
	c.Validate()
	if got := c.ValidationError(); got != "Target cue not found: missing-id" {
		t.Errorf("validation error = %q", got)
	}

	target := NewWaitCue()
	ft.cues[target.ID()] = target
	c.SetTargetCueID(target.ID())
	if !c.Validate() {
		t.Error("resolvable target must validate")
	}
	if c.Status() != StatusLoaded {
		t.Errorf("status = %v, want Loaded after repair", c.Status())
	}
}
