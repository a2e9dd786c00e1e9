// Package health is the error sink and health monitor for the cue engine.
// Components report severity-tagged entries; the handler keeps a bounded
// history, recomputes an aggregate health signal on a timer, and can attempt
// best-effort recovery for critical entries.
package health

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"k8s.io/utils/clock"
)

// Severity classifies a reported entry.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ParseSeverity is case-insensitive. Unknown strings map to Info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "warning":
		return Warning
	case "error":
		return Error
	case "critical":
		return Critical
	default:
		return Info
	}
}

// Reporter is the narrow sink interface consumed by the rest of the engine.
// The returned id can be used to resolve the entry later; callers that do
// not care may ignore it.
type Reporter interface {
	Report(severity Severity, message, source string) string
}

// Entry is one recorded report.
type Entry struct {
	ID        string
	Severity  Severity
	Message   string
	Source    string
	Timestamp time.Time
	Context   string
	Resolved  bool
}

// Metrics is the aggregate health snapshot recomputed by the monitor.
type Metrics struct {
	ErrorCount24h      int
	WarningCount24h    int
	AudioSystemHealthy bool
	FileSystemHealthy  bool
	LastCheck          time.Time
}

// RecoveryFunc attempts to recover from a critical entry and reports
// whether it succeeded. Recovery never escalates; a failed attempt is
// only logged.
type RecoveryFunc func(Entry) bool

const unhealthyErrorThreshold = 50

// Handler implements Reporter with bounded history and periodic health
// recomputation. Safe for concurrent use.
type Handler struct {
	mu           sync.Mutex
	clock        clock.WithTickerAndDelayedExecution
	entries      []Entry
	maxHistory   int
	logging      bool
	autoRecovery bool
	recoverers   map[string]RecoveryFunc

	metrics    Metrics
	healthy    bool
	monitoring bool
	stopMon    chan struct{}

	// Optional callbacks, fired outside the lock is not guaranteed; keep
	// them fast and non-reentrant.
	OnEntry         func(Entry)
	OnHealthChanged func(healthy bool)
	OnRecovery      func(Entry, bool)
}

// NewHandler creates a handler with a 1000-entry history bound.
func NewHandler(c clock.WithTickerAndDelayedExecution) *Handler {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Handler{
		clock:      c,
		maxHistory: 1000,
		logging:    true,
		recoverers: make(map[string]RecoveryFunc),
		healthy:    true,
		metrics: Metrics{
			AudioSystemHealthy: true,
			FileSystemHealthy:  true,
		},
	}
}

// Report records an entry and returns its id. Critical entries trigger an
// auto-recovery attempt when enabled.
func (h *Handler) Report(severity Severity, message, source string) string {
	return h.ReportContext(severity, message, source, "")
}

// ReportContext is Report with an extra free-form context payload.
func (h *Handler) ReportContext(severity Severity, message, source, context string) string {
	h.mu.Lock()
	if !h.logging {
		h.mu.Unlock()
		return ""
	}

	entry := Entry{
		ID:        uuid.NewString()[:8],
		Severity:  severity,
		Message:   message,
		Source:    source,
		Timestamp: h.clock.Now(),
		Context:   context,
	}
	h.entries = append(h.entries, entry)
	h.pruneLocked()
	autoRecover := h.autoRecovery && severity == Critical
	cb := h.OnEntry
	h.mu.Unlock()

	switch severity {
	case Warning:
		log.Warnf("%s: %s", source, message)
	case Error, Critical:
		log.Errorf("%s: %s", source, message)
	default:
		log.Infof("%s: %s", source, message)
	}

	if cb != nil {
		cb(entry)
	}
	if autoRecover {
		h.AttemptRecovery(entry.ID)
	}
	return entry.ID
}

func (h *Handler) ReportInfo(message, source string) string {
	return h.Report(Info, message, source)
}

func (h *Handler) ReportWarning(message, source string) string {
	return h.Report(Warning, message, source)
}

func (h *Handler) ReportError(message, source string) string {
	return h.Report(Error, message, source)
}

func (h *Handler) ReportCritical(message, source string) string {
	return h.Report(Critical, message, source)
}

// Resolve marks an entry resolved. Unknown ids are ignored.
func (h *Handler) Resolve(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].ID == id && !h.entries[i].Resolved {
			h.entries[i].Resolved = true
			return
		}
	}
}

// ClearResolved drops resolved entries from the history.
func (h *Handler) ClearResolved() {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.entries[:0]
	for _, e := range h.entries {
		if !e.Resolved {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// ClearAll empties the history.
func (h *Handler) ClearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Entries returns a copy of the full history, oldest first.
func (h *Handler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Unresolved returns the unresolved entries.
func (h *Handler) Unresolved() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Entry
	for _, e := range h.entries {
		if !e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// BySeverity returns all entries of one severity.
func (h *Handler) BySeverity(severity Severity) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Entry
	for _, e := range h.entries {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// Entry looks up a single entry by id.
func (h *Handler) Entry(id string) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// ErrorCount counts unresolved Error and Critical entries.
func (h *Handler) ErrorCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.entries {
		if !e.Resolved && (e.Severity == Error || e.Severity == Critical) {
			n++
		}
	}
	return n
}

// WarningCount counts unresolved warnings.
func (h *Handler) WarningCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.entries {
		if !e.Resolved && e.Severity == Warning {
			n++
		}
	}
	return n
}

// CriticalCount counts unresolved critical entries.
func (h *Handler) CriticalCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.criticalCountLocked()
}

func (h *Handler) criticalCountLocked() int {
	n := 0
	for _, e := range h.entries {
		if !e.Resolved && e.Severity == Critical {
			n++
		}
	}
	return n
}

// Healthy reports the aggregate health signal: no unresolved criticals,
// subsystems up, and fewer than 50 errors in the last 24 hours.
func (h *Handler) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.healthyLocked()
}

func (h *Handler) healthyLocked() bool {
	return h.criticalCountLocked() == 0 &&
		h.metrics.AudioSystemHealthy &&
		h.metrics.FileSystemHealthy &&
		h.metrics.ErrorCount24h < unhealthyErrorThreshold
}

// Metrics returns the last computed snapshot.
func (h *Handler) Metrics() Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics
}

// CheckHealth recomputes the snapshot immediately.
func (h *Handler) CheckHealth() {
	h.mu.Lock()
	was := h.healthyLocked()
	h.updateMetricsLocked()
	now := h.healthyLocked()
	h.healthy = now
	cb := h.OnHealthChanged
	h.mu.Unlock()

	if was != now && cb != nil {
		cb(now)
	}
}

func (h *Handler) updateMetricsLocked() {
	now := h.clock.Now()
	cutoff := now.Add(-24 * time.Hour)
	h.metrics.LastCheck = now
	h.metrics.ErrorCount24h = 0
	h.metrics.WarningCount24h = 0
	for _, e := range h.entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		switch e.Severity {
		case Error, Critical:
			h.metrics.ErrorCount24h++
		case Warning:
			h.metrics.WarningCount24h++
		}
	}
	h.metrics.AudioSystemHealthy = h.criticalCountLocked() == 0
	h.metrics.FileSystemHealthy = true
}

// StartMonitor begins periodic health recomputation. No-op if running.
func (h *Handler) StartMonitor(interval time.Duration) {
	h.mu.Lock()
	if h.monitoring {
		h.mu.Unlock()
		return
	}
	h.monitoring = true
	h.stopMon = make(chan struct{})
	stop := h.stopMon
	h.mu.Unlock()

	h.CheckHealth()

	go func() {
		ticker := h.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				h.CheckHealth()
			}
		}
	}()
	log.Debugf("health monitoring started, interval %s", interval)
}

// StopMonitor stops the periodic recomputation.
func (h *Handler) StopMonitor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.monitoring {
		close(h.stopMon)
		h.monitoring = false
	}
}

// RegisterRecovery installs a recovery hook for entries whose source
// contains the given fragment (case-insensitive), e.g. "audio".
func (h *Handler) RegisterRecovery(sourceFragment string, fn RecoveryFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recoverers[strings.ToLower(sourceFragment)] = fn
}

// SetAutoRecovery toggles recovery attempts for critical entries.
func (h *Handler) SetAutoRecovery(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autoRecovery = enabled
}

// AttemptRecovery runs the matching recovery hook for the entry, resolves
// the entry on success, and reports the outcome. Returns success.
func (h *Handler) AttemptRecovery(id string) bool {
	entry, ok := h.Entry(id)
	if !ok {
		return false
	}

	h.mu.Lock()
	var fn RecoveryFunc
	src := strings.ToLower(entry.Source)
	for frag, f := range h.recoverers {
		if strings.Contains(src, frag) {
			fn = f
			break
		}
	}
	cb := h.OnRecovery
	h.mu.Unlock()

	success := false
	if fn != nil {
		success = fn(entry)
	}
	if success {
		h.Resolve(id)
		log.Infof("recovery succeeded for %s (%s)", id, entry.Source)
	} else {
		log.Warnf("recovery failed for %s (%s)", id, entry.Source)
	}
	if cb != nil {
		cb(entry, success)
	}
	return success
}

// SetMaxHistory bounds the history; the bound is clamped to at least 10.
func (h *Handler) SetMaxHistory(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 10 {
		n = 10
	}
	h.maxHistory = n
	h.pruneLocked()
}

// SetLogging enables or disables recording entirely.
func (h *Handler) SetLogging(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logging = enabled
}

func (h *Handler) pruneLocked() {
	if over := len(h.entries) - h.maxHistory; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// EntriesInRange returns entries with start <= timestamp <= end.
func (h *Handler) EntriesInRange(start, end time.Time) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Entry
	for _, e := range h.entries {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns entries from the trailing window.
func (h *Handler) Recent(window time.Duration) []Entry {
	now := h.clock.Now()
	return h.EntriesInRange(now.Add(-window), now)
}

// ExportLog writes the history as a plain-text report.
func (h *Handler) ExportLog(fs afero.Fs, path string) error {
	entries := h.Entries()

	var b strings.Builder
	fmt.Fprintf(&b, "CueForge Error Log\nGenerated: %s\nTotal Entries: %d\n\n",
		h.clock.Now().Format(time.RFC3339), len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "----------------------------------------\n")
		fmt.Fprintf(&b, "ID: %s\nTimestamp: %s\nSeverity: %s\nSource: %s\nMessage: %s\nResolved: %v\n",
			e.ID, e.Timestamp.Format(time.RFC3339), e.Severity, e.Source, e.Message, e.Resolved)
		if e.Context != "" {
			fmt.Fprintf(&b, "Context: %s\n", e.Context)
		}
		b.WriteString("\n")
	}

	if err := afero.WriteFile(fs, path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("export error log: %w", err)
	}
	return nil
}
