package remote

import (
	"testing"
	"time"

	"github.com/cueforge/cueforge/audio"
	"github.com/cueforge/cueforge/cue"
	"github.com/cueforge/cueforge/show"
	"github.com/cueforge/cueforge/testclock"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *show.Manager, *testclock.Clock) {
	t.Helper()
	clk := testclock.New(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))
	m := show.New(show.Options{
		Clock: clk,
		Files: afero.NewMemMapFs(),
		Audio: audio.NewFake(),
	})
	return NewServer("127.0.0.1:53000", m), m, clk
}

func message(addr string, args ...any) *osc.Message {
	msg := osc.NewMessage(addr)
	for _, a := range args {
		msg.Append(a)
	}
	return msg
}

func TestHandleGoFiresStandby(t *testing.T) {
	s, m, _ := newTestServer(t)
	w := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	w.SetWaitDuration(5)

	s.handleGo(message(AddrGo))
	assert.Equal(t, cue.StatusRunning, w.Status())
}

func TestHandleStopWithFade(t *testing.T) {
	s, m, _ := newTestServer(t)
	w := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	w.SetWaitDuration(5)
	require.True(t, m.Go())

	s.handleStop(message(AddrStop, float32(1.5)))
	assert.Equal(t, cue.StatusLoaded, w.Status())
	assert.Empty(t, m.ActiveIDs())
}

func TestHandlePauseToggles(t *testing.T) {
	s, m, _ := newTestServer(t)
	w := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	w.SetWaitDuration(5)
	require.True(t, m.Go())

	s.handlePause(message(AddrPause))
	assert.Equal(t, cue.StatusPaused, w.Status())
	s.handlePause(message(AddrPause))
	assert.Equal(t, cue.StatusRunning, w.Status())
}

func TestHandlePanic(t *testing.T) {
	s, m, _ := newTestServer(t)
	w := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	w.SetWaitDuration(5)
	require.True(t, m.Go())

	s.handlePanic(message(AddrPanic))
	assert.Empty(t, m.ActiveIDs())
	assert.Equal(t, cue.StatusLoaded, w.Status())
}

func TestHandleStandByAcceptsIntAndString(t *testing.T) {
	s, m, _ := newTestServer(t)
	a := m.CreateCue(cue.TypeWait)
	b := m.CreateCue(cue.TypeWait)

	s.handleStandBy(message(AddrStandBy, "1"))
	assert.Equal(t, a.ID(), m.StandBy())

	s.handleStandBy(message(AddrStandBy, int32(2)))
	assert.Equal(t, b.ID(), m.StandBy())

	// Unknown numbers leave the playhead alone.
	s.handleStandBy(message(AddrStandBy, "9"))
	assert.Equal(t, b.ID(), m.StandBy())
}

func TestHandleCueStart(t *testing.T) {
	s, m, _ := newTestServer(t)
	m.CreateCue(cue.TypeWait).(*cue.WaitCue).SetWaitDuration(5)
	second := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	second.SetWaitDuration(5)

	s.handleCueStart(message(AddrCueStart, "2"))
	assert.Equal(t, cue.StatusRunning, second.Status())
}

func TestHandleCueStop(t *testing.T) {
	s, m, _ := newTestServer(t)
	w := m.CreateCue(cue.TypeWait).(*cue.WaitCue)
	w.SetWaitDuration(5)
	require.True(t, m.Go())

	s.handleCueStop(message(AddrCueStop, "1"))
	assert.Equal(t, cue.StatusLoaded, w.Status())
	assert.Empty(t, m.ActiveIDs())
}

func TestHandleNextPrevious(t *testing.T) {
	s, m, _ := newTestServer(t)
	a := m.CreateCue(cue.TypeWait)
	b := m.CreateCue(cue.TypeWait)

	s.handleNext(message(AddrNext))
	assert.Equal(t, a.ID(), m.StandBy())
	s.handleNext(message(AddrNext))
	assert.Equal(t, b.ID(), m.StandBy())
	s.handlePrevious(message(AddrPrevious))
	assert.Equal(t, a.ID(), m.StandBy())
}

func TestArgumentCoercion(t *testing.T) {
	msg := message("/x", int32(7), float32(1.5), "str")

	got, ok := stringArg(msg, 0)
	require.True(t, ok)
	assert.Equal(t, "7", got)

	got, ok = stringArg(msg, 2)
	require.True(t, ok)
	assert.Equal(t, "str", got)

	_, ok = stringArg(msg, 9)
	assert.False(t, ok)

	assert.Equal(t, 1.5, floatArg(msg, 1, 0))
	assert.Equal(t, 7.0, floatArg(msg, 0, 0))
	assert.Equal(t, 2.5, floatArg(msg, 9, 2.5))
}

func TestCueStatusAddress(t *testing.T) {
	assert.Equal(t, "/cueforge/cue/3/status", CueStatusAddress("3"))
}

func TestNewFeedbackAddr(t *testing.T) {
	f, err := NewFeedback("127.0.0.1:53001")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = NewFeedback("not-an-addr")
	assert.Error(t, err)

	_, err = NewFeedback("127.0.0.1:notaport")
	assert.Error(t, err)
}
