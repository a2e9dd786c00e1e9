// Package cue implements the cue data model and execution state machine:
// the base cue contract plus the Audio, Wait, Group and Control variants.
//
// Cues are owned either by the show manager (top level) or by a parent
// group. Owners bind an Env at adoption time and consume the single
// finished notification; all state transitions happen on the owner's
// control thread (see Env.Post).
package cue

import (
	"strings"
	"time"

	"github.com/cueforge/cueforge/audio"
	"github.com/cueforge/cueforge/health"
	"github.com/spf13/afero"
	"k8s.io/utils/clock"
)

// Type identifies a cue variant. The Start..Devamp types are all served by
// the control cue, parameterized by kind.
type Type string

const (
	TypeAudio  Type = "Audio"
	TypeWait   Type = "Wait"
	TypeGroup  Type = "Group"
	TypeStart  Type = "Start"
	TypeStop   Type = "Stop"
	TypeGoto   Type = "Goto"
	TypePause  Type = "Pause"
	TypeLoad   Type = "Load"
	TypeReset  Type = "Reset"
	TypeArm    Type = "Arm"
	TypeDisarm Type = "Disarm"
	TypeDevamp Type = "Devamp"
)

// ParseType is case-insensitive. Unknown strings fall back to TypeAudio,
// matching the historical workspace-document behavior.
func ParseType(s string) Type {
	switch strings.ToLower(s) {
	case "audio":
		return TypeAudio
	case "wait":
		return TypeWait
	case "group":
		return TypeGroup
	case "start":
		return TypeStart
	case "stop":
		return TypeStop
	case "goto":
		return TypeGoto
	case "pause":
		return TypePause
	case "load":
		return TypeLoad
	case "reset":
		return TypeReset
	case "arm":
		return TypeArm
	case "disarm":
		return TypeDisarm
	case "devamp":
		return TypeDevamp
	default:
		return TypeAudio
	}
}

// IsControl reports whether t is one of the control kinds.
func (t Type) IsControl() bool {
	switch t {
	case TypeStart, TypeStop, TypeGoto, TypePause, TypeLoad, TypeReset,
		TypeArm, TypeDisarm, TypeDevamp:
		return true
	}
	return false
}

// Status is the cue state machine:
//
//	Loaded -> Running <-> Paused -> Finished -> (owner resets to Loaded)
//
// Broken is entered from any state on validation failure.
type Status int

const (
	StatusLoaded Status = iota
	StatusRunning
	StatusPaused
	StatusFinished
	StatusBroken
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "Loaded"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	case StatusFinished:
		return "Finished"
	case StatusBroken:
		return "Broken"
	default:
		return "Unknown"
	}
}

// Transport is the slice of the show manager that control cues act
// through. Targets are always resolved by id at execution time; control
// cues never hold a live reference.
type Transport interface {
	// Cue resolves an id anywhere in the workspace, including group
	// children. Returns nil if absent.
	Cue(id string) Cue

	// StartCue executes the target under the manager's active-set
	// bookkeeping. Returns whether the action started.
	StartCue(id string) bool

	// StopCue stops the target and evicts it from the active set.
	StopCue(id string, fadeTime float64)

	// SetStandBy points the playhead at the target.
	SetStandBy(id string) bool

	// TogglePause pauses every running cue or resumes every paused one.
	TogglePause()
}

// Env binds a cue to its surroundings. Owners fill it in at adoption; a
// zero Env keeps every cue operation safe (real clock, OS filesystem, no
// transport, no engine).
type Env struct {
	Clock     clock.WithTickerAndDelayedExecution
	Files     afero.Fs
	Health    health.Reporter
	Audio     audio.Engine
	Transport Transport

	// Post marshals a function onto the control thread. Asynchronous
	// completions (timers, playback callbacks) go through it; nil means
	// call inline.
	Post func(func())
}

func (e *Env) clock() clock.WithTickerAndDelayedExecution {
	if e == nil || e.Clock == nil {
		return clock.RealClock{}
	}
	return e.Clock
}

func (e *Env) files() afero.Fs {
	if e == nil || e.Files == nil {
		return afero.NewOsFs()
	}
	return e.Files
}

func (e *Env) post(fn func()) {
	if e == nil || e.Post == nil {
		fn()
		return
	}
	e.Post(fn)
}

func (e *Env) report(sev health.Severity, message, source string) {
	if e == nil || e.Health == nil {
		return
	}
	e.Health.Report(sev, message, source)
}

func (e *Env) transport() Transport {
	if e == nil {
		return nil
	}
	return e.Transport
}

func (e *Env) audio() audio.Engine {
	if e == nil {
		return nil
	}
	return e.Audio
}

// Cue is the contract shared by every variant. Execute returns whether the
// cue-specific action was initiated, not whether it completed; completion
// arrives later through the OnFinished handler.
type Cue interface {
	ID() string
	Type() Type
	Number() string
	SetNumber(number string)
	Name() string
	SetName(name string)
	Duration() float64
	SetDuration(seconds float64)
	PreWait() float64
	SetPreWait(seconds float64)
	PostWait() float64
	SetPostWait(seconds float64)
	ContinueMode() bool
	SetContinueMode(enabled bool)
	Color() string
	SetColor(hex string)
	Notes() string
	SetNotes(notes string)
	Status() Status
	SetStatus(status Status)
	Armed() bool
	SetArmed(armed bool)
	Broken() bool
	TargetCueID() string
	SetTargetCueID(id string)
	CreatedAt() time.Time
	ModifiedAt() time.Time

	Execute() bool
	Stop(fadeTime float64)
	Pause()
	Resume()
	CanExecute() bool
	Validate() bool
	ValidationError() string

	// Attach binds the environment; owners call it when adopting a cue.
	Attach(env *Env)

	// OnFinished installs the completion handler consumed by the owner.
	OnFinished(fn func())

	// Clone returns a deep copy with fresh ids.
	Clone() Cue

	// Document serializes the cue, recursively for groups.
	Document() Document

	base() *Base
}

// New creates a cue of the given type with the variant's default name,
// color and timing. Control kinds all map onto ControlCue.
func New(t Type) Cue {
	switch t {
	case TypeAudio:
		return NewAudioCue()
	case TypeWait:
		return NewWaitCue()
	case TypeGroup:
		return NewGroupCue()
	default:
		if t.IsControl() {
			return NewControlCue(t)
		}
		return NewAudioCue()
	}
}
