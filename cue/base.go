package cue

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Base carries the identity, timing metadata and flags common to every
// variant, plus the execution bookkeeping (environment, finished handler,
// run generation). Variants embed it and provide Execute/Stop/etc.
type Base struct {
	id           string
	typ          Type
	number       string
	name         string
	duration     float64
	preWait      float64
	postWait     float64
	continueMode bool
	color        string
	notes        string
	status       Status
	armed        bool
	broken       bool
	targetCueID  string
	created      time.Time
	modified     time.Time

	env      *Env
	finished func()

	// runSeq invalidates in-flight asynchronous actions: Stop bumps it so
	// a late timer or playback callback is recognized as stale.
	runSeq uint64
}

func newBase(t Type) Base {
	now := time.Now()
	return Base{
		id:       uuid.NewString(),
		typ:      t,
		number:   "1",
		name:     "New Cue",
		color:    "#ffffff",
		status:   StatusLoaded,
		armed:    true,
		created:  now,
		modified: now,
	}
}

func (b *Base) base() *Base { return b }

func (b *Base) ID() string { return b.id }

func (b *Base) Type() Type { return b.typ }

func (b *Base) Number() string { return b.number }

func (b *Base) SetNumber(number string) {
	if b.number != number {
		b.number = number
		b.touch()
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) SetName(name string) {
	if b.name != name {
		b.name = name
		b.touch()
	}
}

func (b *Base) Duration() float64 { return b.duration }

// SetDuration clamps to >= 0.
func (b *Base) SetDuration(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if b.duration != seconds {
		b.duration = seconds
		b.touch()
	}
}

func (b *Base) PreWait() float64 { return b.preWait }

func (b *Base) SetPreWait(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if b.preWait != seconds {
		b.preWait = seconds
		b.touch()
	}
}

func (b *Base) PostWait() float64 { return b.postWait }

func (b *Base) SetPostWait(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if b.postWait != seconds {
		b.postWait = seconds
		b.touch()
	}
}

func (b *Base) ContinueMode() bool { return b.continueMode }

func (b *Base) SetContinueMode(enabled bool) {
	if b.continueMode != enabled {
		b.continueMode = enabled
		b.touch()
	}
}

func (b *Base) Color() string { return b.color }

// SetColor accepts a hex display color ("#rrggbb"); invalid strings are
// ignored. The color has no execution semantics.
func (b *Base) SetColor(hex string) {
	c, err := colorful.Hex(hex)
	if err != nil {
		log.Debugf("cue %s: ignoring invalid color %q", b.number, hex)
		return
	}
	normalized := strings.ToLower(c.Hex())
	if b.color != normalized {
		b.color = normalized
		b.touch()
	}
}

func (b *Base) Notes() string { return b.notes }

func (b *Base) SetNotes(notes string) {
	if b.notes != notes {
		b.notes = notes
		b.touch()
	}
}

func (b *Base) Status() Status { return b.status }

func (b *Base) SetStatus(status Status) {
	b.status = status
}

func (b *Base) Armed() bool { return b.armed }

func (b *Base) SetArmed(armed bool) {
	if b.armed != armed {
		b.armed = armed
		b.touch()
	}
}

func (b *Base) Broken() bool { return b.broken }

func (b *Base) setBroken(broken bool) {
	if b.broken != broken {
		b.broken = broken
		if broken {
			b.status = StatusBroken
		}
	}
}

func (b *Base) TargetCueID() string { return b.targetCueID }

func (b *Base) SetTargetCueID(id string) {
	if b.targetCueID != id {
		b.targetCueID = id
		b.touch()
	}
}

func (b *Base) CreatedAt() time.Time { return b.created }

func (b *Base) ModifiedAt() time.Time { return b.modified }

// touch stamps the modification time from the bound clock. Before an
// owner attaches an environment this falls back to the real clock.
func (b *Base) touch() {
	b.modified = b.env.clock().Now()
}

// Attach binds the environment. Variants that own children override this
// to propagate downward.
func (b *Base) Attach(env *Env) {
	b.env = env
}

func (b *Base) OnFinished(fn func()) {
	b.finished = fn
}

func (b *Base) signalFinished() {
	if b.finished != nil {
		b.finished()
	}
}

func (b *Base) nextRun() uint64 {
	b.runSeq++
	return b.runSeq
}

func (b *Base) runValid(seq uint64) bool {
	return seq == b.runSeq
}

func (b *Base) invalidateRun() {
	b.runSeq++
}

// Stop is the default: return to Loaded, idempotently. Broken status
// survives a stop; only Validate clears it. Variants with in-flight
// actions override this.
func (b *Base) Stop(fadeTime float64) {
	_ = fadeTime
	b.invalidateRun()
	if !b.broken {
		b.status = StatusLoaded
	}
}

// Pause is only meaningful from Running.
func (b *Base) Pause() {
	if b.status == StatusRunning {
		b.status = StatusPaused
	}
}

// Resume is only meaningful from Paused.
func (b *Base) Resume() {
	if b.status == StatusPaused {
		b.status = StatusRunning
	}
}

// CanExecute holds when the cue is armed, not broken and not already
// running. Variants add their own constraints on top.
func (b *Base) CanExecute() bool {
	return b.armed && !b.broken && b.status != StatusRunning
}

// Validate recomputes the broken flag; the base has no integrity rules.
func (b *Base) Validate() bool {
	return !b.broken
}

func (b *Base) ValidationError() string {
	if b.broken {
		return "Cue is broken"
	}
	return ""
}

// hasValidTarget reports whether targetCueID resolves through the bound
// transport.
func (b *Base) hasValidTarget() bool {
	t := b.env.transport()
	if t == nil || b.targetCueID == "" {
		return false
	}
	return t.Cue(b.targetCueID) != nil
}

// baseDocument serializes the shared fields.
func (b *Base) baseDocument() Document {
	return Document{
		ID:           b.id,
		Type:         string(b.typ),
		Number:       b.number,
		Name:         b.name,
		Duration:     b.duration,
		PreWait:      b.preWait,
		PostWait:     b.postWait,
		ContinueMode: b.continueMode,
		Color:        b.color,
		Notes:        b.notes,
		IsArmed:      boolPtr(b.armed),
		TargetCueID:  b.targetCueID,
		CreatedTime:  b.created.UTC().Format(time.RFC3339),
		ModifiedTime: b.modified.UTC().Format(time.RFC3339),
	}
}

// applyDocument restores the shared fields. The id is kept verbatim when
// present so workspace round-trips preserve identity.
func (b *Base) applyDocument(doc Document) {
	if doc.ID != "" {
		b.id = doc.ID
	}
	if doc.Number != "" {
		b.number = doc.Number
	}
	if doc.Name != "" {
		b.name = doc.Name
	}
	b.SetDuration(doc.Duration)
	b.SetPreWait(doc.PreWait)
	b.SetPostWait(doc.PostWait)
	b.continueMode = doc.ContinueMode
	if doc.Color != "" {
		b.SetColor(doc.Color)
	}
	b.notes = doc.Notes
	b.armed = doc.IsArmed == nil || *doc.IsArmed
	b.targetCueID = doc.TargetCueID
	if t, err := time.Parse(time.RFC3339, doc.CreatedTime); err == nil {
		b.created = t
	}
	if t, err := time.Parse(time.RFC3339, doc.ModifiedTime); err == nil {
		b.modified = t
	}
}

// cloneBase copies everything except identity and live execution state.
func (b *Base) cloneBase() Base {
	now := b.env.clock().Now()
	return Base{
		id:           uuid.NewString(),
		typ:          b.typ,
		number:       b.number,
		name:         b.name,
		duration:     b.duration,
		preWait:      b.preWait,
		postWait:     b.postWait,
		continueMode: b.continueMode,
		color:        b.color,
		notes:        b.notes,
		status:       StatusLoaded,
		armed:        b.armed,
		targetCueID:  b.targetCueID,
		created:      now,
		modified:     now,
	}
}
