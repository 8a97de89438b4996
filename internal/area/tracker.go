package area

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"area-locator/internal/models"
)

// Logf is the package logger. Replace it with SetLogger to redirect or mute.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Config holds the tracker tuning values
type Config struct {
	MaxScanAge          time.Duration // observations older than this are pruned
	MinSignalsToAnalyze int           // evaluation is skipped below this many observations
}

// DefaultConfig returns default tracker configuration
func DefaultConfig() Config {
	return Config{
		MaxScanAge:          10 * time.Second,
		MinSignalsToAnalyze: 5,
	}
}

// Listener receives state notifications. Calls happen while the tracker lock
// is held, so implementations must not call back into the same Tracker.
type Listener interface {
	AreaChanged(previous, current string)
	Disabled()
}

// DiagnosticsListener receives the match counts of every completed evaluation.
// Same locking rules as Listener.
type DiagnosticsListener interface {
	Diagnostics(scores map[string]int, report string)
}

type noopListener struct{}

func (noopListener) AreaChanged(string, string) {}
func (noopListener) Disabled()                  {}

// catalogSnapshot is never modified after it is published
type catalogSnapshot struct {
	areas models.AreaCatalog
	order []string
}

func newCatalogSnapshot(c models.AreaCatalog) *catalogSnapshot {
	areas := c.Clone()
	return &catalogSnapshot{areas: areas, order: areas.Names()}
}

// Evaluation describes the outcome of one Evaluate call
type Evaluation struct {
	Skipped     bool           // not enough signals, nothing else was computed
	Signals     int            // observations left after pruning
	Fingerprint Fingerprint    // nil when skipped
	Scores      map[string]int // nil when skipped
	Best        string
	Changed     bool
}

// Status is a point-in-time view of a tracker
type Status struct {
	Area          string                    `json:"area"`
	Signals       map[models.Technology]int `json:"signals"`
	Scores        map[string]int            `json:"scores,omitempty"`
	Fingerprint   Fingerprint               `json:"fingerprint,omitempty"`
	LastEvaluated time.Time                 `json:"last_evaluated"`
}

// Tracker owns the sample window and the current area. All mutating
// operations take one mutex for their whole duration, including listener
// calls, so two evaluations never interleave their notifications.
type Tracker struct {
	mu sync.Mutex

	config      Config
	window      *SampleWindow
	catalog     atomic.Pointer[catalogSnapshot]
	current     string
	lastScores  map[string]int
	lastPrint   Fingerprint
	lastEval    time.Time
	listener    Listener
	diagnostics DiagnosticsListener
}

// NewTracker creates a disabled tracker with an empty catalog.
// A nil listener discards notifications.
func NewTracker(config Config, listener Listener) *Tracker {
	if listener == nil {
		listener = noopListener{}
	}
	t := &Tracker{
		config:   config,
		window:   NewSampleWindow(),
		current:  models.NoArea,
		listener: listener,
	}
	t.catalog.Store(newCatalogSnapshot(nil))
	return t
}

// SetDiagnosticsListener registers interest in per-evaluation reports.
// Passing nil unsubscribes and stops report formatting.
func (t *Tracker) SetDiagnosticsListener(d DiagnosticsListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.diagnostics = d
}

// SetCatalog atomically replaces the area definitions. The tracker keeps its own copy.
func (t *Tracker) SetCatalog(c models.AreaCatalog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.catalog.Store(newCatalogSnapshot(c))
	Logf("Updated areas list: %d areas", len(c))
}

// Catalog returns a copy of the current area definitions
func (t *Tracker) Catalog() models.AreaCatalog {
	return t.catalog.Load().areas.Clone()
}

// Ingest adds one observation to the window of the given technology
func (t *Tracker) Ingest(tech models.Technology, obs models.Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window.Ingest(tech, obs)
}

// Prune drops observations older than the configured max scan age
func (t *Tracker) Prune(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window.Prune(now, t.config.MaxScanAge)
}

// Evaluate prunes the window, scores every area and switches the current
// area when the best match changed. With fewer than MinSignalsToAnalyze
// observations the cycle is skipped: no transition and no diagnostics.
func (t *Tracker) Evaluate(now time.Time) Evaluation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.window.Prune(now, t.config.MaxScanAge)
	signals := t.window.Len()
	if signals < t.config.MinSignalsToAnalyze {
		return Evaluation{Skipped: true, Signals: signals, Best: t.current}
	}

	snapshot := t.catalog.Load()
	fp := BuildFingerprint(t.window)
	scores := Score(fp, snapshot.areas)
	best, _ := Best(scores, snapshot.order)

	t.lastScores = scores
	t.lastPrint = fp
	t.lastEval = now

	changed := best != t.current
	if changed {
		previous := t.current
		t.current = best
		Logf("Entered new area: %q (was %q)", best, previous)
		t.listener.AreaChanged(previous, best)
	}

	if t.diagnostics != nil {
		t.diagnostics.Diagnostics(copyScores(scores), models.FormatScores(scores))
	}

	return Evaluation{
		Signals:     signals,
		Fingerprint: fp.clone(),
		Scores:      copyScores(scores),
		Best:        best,
		Changed:     changed,
	}
}

// Disable clears the current area and always notifies the listener, even
// when the tracker was already disabled.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = models.NoArea
	t.listener.Disabled()
}

// Current returns the currently declared area, NoArea when disabled
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Status returns a copy of the tracker state
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Area:          t.current,
		Signals:       t.window.Counts(),
		Scores:        copyScores(t.lastScores),
		Fingerprint:   t.lastPrint.clone(),
		LastEvaluated: t.lastEval,
	}
}

// Averages prunes the window and returns the mean strength per emitter for
// each technology. It runs regardless of MinSignalsToAnalyze and never
// notifies listeners.
func (t *Tracker) Averages(now time.Time) map[models.Technology]Fingerprint {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window.Prune(now, t.config.MaxScanAge)
	return BuildTechnologyFingerprints(t.window)
}

func copyScores(scores map[string]int) map[string]int {
	if scores == nil {
		return nil
	}
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
