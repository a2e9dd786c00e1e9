package health

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/testclock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestHandler(t *testing.T) (*Handler, *testclock.Clock) {
	t.Helper()
	clk := testclock.New(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewHandler(clk), clk
}

func TestSeverityRoundTrip(t *testing.T) {
	tests := []struct {
		sev  Severity
		name string
	}{
		{Info, "Info"},
		{Warning, "Warning"},
		{Error, "Error"},
		{Critical, "Critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.sev.String())
		assert.Equal(t, tt.sev, ParseSeverity(tt.name))
	}
	assert.Equal(t, Info, ParseSeverity("bogus"))
}

func TestSetLoggingDisablesRecording(t *testing.T) {
	h, _ := newTestHandler(t)
	h.SetLogging(false)
	id := h.ReportError("dropped", "S")
	assert.Empty(t, id)
	assert.Empty(t, h.Entries())

	h.SetLogging(true)
	assert.NotEmpty(t, h.ReportError("kept", "S"))
	assert.Len(t, h.Entries(), 1)
}

func TestReportRecordsEntry(t *testing.T) {
	h, _ := newTestHandler(t)
	id := h.Report(Error, "file missing", "AudioCue 3")
	require.NotEmpty(t, id)

	entry, ok := h.Entry(id)
	require.True(t, ok)
	assert.Equal(t, Error, entry.Severity)
	assert.Equal(t, "file missing", entry.Message)
	assert.Equal(t, "AudioCue 3", entry.Source)
	assert.False(t, entry.Resolved)
	assert.Equal(t, 1, h.ErrorCount())
}

func TestResolveAndClear(t *testing.T) {
	h, _ := newTestHandler(t)
	a := h.ReportError("one", "X")
	b := h.ReportWarning("two", "Y")

	h.Resolve(a)
	entry, ok := h.Entry(a)
	require.True(t, ok)
	assert.True(t, entry.Resolved)
	assert.Len(t, h.Unresolved(), 1)

	h.ClearResolved()
	_, ok = h.Entry(a)
	assert.False(t, ok)
	_, ok = h.Entry(b)
	assert.True(t, ok)

	h.ClearAll()
	assert.Empty(t, h.Entries())
}

func TestBySeverity(t *testing.T) {
	h, _ := newTestHandler(t)
	h.ReportInfo("i", "S")
	h.ReportError("e1", "S")
	h.ReportError("e2", "S")
	h.ReportCritical("c", "S")

	assert.Len(t, h.BySeverity(Error), 2)
	assert.Len(t, h.BySeverity(Critical), 1)
	assert.Equal(t, 2, h.ErrorCount())
	assert.Equal(t, 1, h.CriticalCount())
}

func TestHealthyRule(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.True(t, h.Healthy())

	id := h.ReportCritical("audio device lost", "AudioEngine")
	h.CheckHealth()
	assert.False(t, h.Healthy(), "unresolved critical entries are unhealthy")

	h.Resolve(id)
	h.CheckHealth()
	assert.True(t, h.Healthy())
}

func TestHealthyRuleErrorBudget(t *testing.T) {
	h, _ := newTestHandler(t)
	h.SetMaxHistory(200)
	for i := 0; i < 50; i++ {
		h.ReportError("spam", "S")
	}
	h.CheckHealth()
	assert.False(t, h.Healthy(), "50 errors in 24h exceed the budget")
}

func TestEntriesInRangeUsesClock(t *testing.T) {
	h, clk := newTestHandler(t)
	start := clk.Now()
	h.ReportError("early", "S")

	clk.Step(2 * time.Hour)
	h.ReportError("late", "S")

	early := h.EntriesInRange(start, start.Add(time.Hour))
	require.Len(t, early, 1)
	assert.Equal(t, "early", early[0].Message)

	recent := h.Recent(time.Hour)
	require.Len(t, recent, 1)
	assert.Equal(t, "late", recent[0].Message)
}

func TestHistoryBounded(t *testing.T) {
	h, _ := newTestHandler(t)
	h.SetMaxHistory(10)
	for i := 0; i < 25; i++ {
		h.ReportInfo("fill", "S")
	}
	assert.Len(t, h.Entries(), 10)
}

func TestAutoRecovery(t *testing.T) {
	h, _ := newTestHandler(t)
	recovered := false
	h.RegisterRecovery("audioengine", func(e Entry) bool {
		recovered = true
		return true
	})
	h.SetAutoRecovery(true)

	h.ReportCritical("device lost", "AudioEngine")
	assert.True(t, recovered, "critical reports trigger matching recovery")
}

func TestAttemptRecoveryWithoutHook(t *testing.T) {
	h, _ := newTestHandler(t)
	id := h.ReportCritical("no hook", "Mystery")
	assert.False(t, h.AttemptRecovery(id))
}

func TestMonitorRecomputesOnTicker(t *testing.T) {
	h, clk := newTestHandler(t)
	changes := 0
	h.OnHealthChanged = func(bool) { changes++ }

	h.StartMonitor(30 * time.Second)
	defer h.StopMonitor()

	h.ReportCritical("down", "AudioEngine")
	clk.Step(30 * time.Second)

	// The ticker runs on its own goroutine; give it a beat.
	deadline := time.Now().Add(2 * time.Second)
	for changes == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, changes)
}

func TestExportLog(t *testing.T) {
	h, _ := newTestHandler(t)
	h.ReportError("broken cue", "Manager")

	fs := afero.NewMemMapFs()
	require.NoError(t, h.ExportLog(fs, "/logs/errors.txt"))
	raw, err := afero.ReadFile(fs, "/logs/errors.txt")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "broken cue")
	assert.Contains(t, string(raw), "Manager")
}
