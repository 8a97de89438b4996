package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"area-locator/internal/area"
	"area-locator/internal/models"
)

func feed(r *Registry, deviceID string, tech models.Technology, emitter string, strength int, at time.Time) {
	r.Tracker(deviceID).Ingest(tech, models.Observation{EmitterID: emitter, Strength: strength, ObservedAt: at})
}

func newDriftRegistry() *Registry {
	// short window so each step only sees its own readings
	return NewRegistry(area.Config{MaxScanAge: 5 * time.Second, MinSignalsToAnalyze: 1}, nil, nil)
}

func TestRegistryAverages(t *testing.T) {
	t.Parallel()
	now := time.Now()
	r := newDriftRegistry()
	feed(r, "esp-1", models.TechnologyWiFi, "ap", -50, now)
	feed(r, "esp-1", models.TechnologyWiFi, "ap", -60, now)
	feed(r, "esp-2", models.TechnologyWiFi, "ap", -70, now)
	feed(r, "esp-2", models.TechnologyBLE, "tag", -80, now)
	feed(r, "esp-2", models.TechnologyBLE, "gone", -40, now.Add(-time.Minute))

	got := r.Averages(now)

	assert.Equal(t, EmitterAverages{
		models.TechnologyWiFi: {"ap": {"esp-1": -55, "esp-2": -70}},
		models.TechnologyBLE:  {"tag": {"esp-2": -80}},
	}, got)

	mean, ok := got.Lookup(models.TechnologyWiFi, "ap", "esp-2")
	assert.True(t, ok)
	assert.Equal(t, -70.0, mean)
	_, ok = got.Lookup(models.TechnologyBLE, "ap", "esp-1")
	assert.False(t, ok)
}

func TestDriftDetectorExcludesMovedEmitters(t *testing.T) {
	t.Parallel()
	start := time.Now()
	r := newDriftRegistry()
	for _, device := range []string{"esp-1", "esp-2", "esp-3"} {
		feed(r, device, models.TechnologyWiFi, "moved", -50, start)
		feed(r, device, models.TechnologyWiFi, "steady", -60, start)
		feed(r, device, models.TechnologyBLE, "beacon", -70, start)
	}

	d := NewDriftDetector(r, DriftConfig{MaxStrengthDiff: 5, ExcludeThreshold: 2})
	d.Watch(WatchList{
		models.TechnologyWiFi: {"steady", "moved", "moved"},
		models.TechnologyBLE:  {"beacon"},
	}, start)

	later := start.Add(time.Minute)
	// "moved" drifts on two devices, "steady" stays within 5 dB, "beacon" drifts on one only
	feed(r, "esp-1", models.TechnologyWiFi, "moved", -70, later)
	feed(r, "esp-2", models.TechnologyWiFi, "moved", -30, later)
	feed(r, "esp-3", models.TechnologyWiFi, "moved", -52, later)
	for _, device := range []string{"esp-1", "esp-2", "esp-3"} {
		feed(r, device, models.TechnologyWiFi, "steady", -65, later)
	}
	feed(r, "esp-1", models.TechnologyBLE, "beacon", -90, later)

	got := d.Excluded(later)

	assert.Equal(t, WatchList{
		models.TechnologyWiFi: {"moved"},
		models.TechnologyBLE:  {},
	}, got)
}

func TestDriftDetectorIgnoresDevicesWithoutReference(t *testing.T) {
	t.Parallel()
	start := time.Now()
	r := newDriftRegistry()
	feed(r, "esp-1", models.TechnologyWiFi, "ap", -50, start)

	d := NewDriftDetector(r, DriftConfig{MaxStrengthDiff: 5, ExcludeThreshold: 1})
	d.Watch(WatchList{models.TechnologyWiFi: {"ap", "unseen"}}, start)

	later := start.Add(time.Minute)
	feed(r, "esp-2", models.TechnologyWiFi, "ap", -90, later)
	feed(r, "esp-1", models.TechnologyWiFi, "unseen", -90, later)

	assert.Empty(t, d.Excluded(later)[models.TechnologyWiFi])
}

func TestDriftDetectorWatched(t *testing.T) {
	t.Parallel()
	now := time.Now()
	r := newDriftRegistry()
	feed(r, "esp-1", models.TechnologyWiFi, "ap", -50, now)
	d := NewDriftDetector(r, DefaultDriftConfig())

	watched, reference, takenAt := d.Watched()
	assert.Equal(t, WatchList{models.TechnologyWiFi: {}, models.TechnologyBLE: {}}, watched)
	assert.Empty(t, reference)
	assert.True(t, takenAt.IsZero())

	d.Watch(WatchList{models.TechnologyWiFi: {"b", "", "a"}}, now)
	watched, reference, takenAt = d.Watched()

	assert.Equal(t, []string{"a", "b"}, watched[models.TechnologyWiFi])
	assert.Empty(t, watched[models.TechnologyBLE])
	require.Contains(t, reference, models.TechnologyWiFi)
	assert.Equal(t, map[string]float64{"esp-1": -50}, reference[models.TechnologyWiFi]["ap"])
	assert.Equal(t, now, takenAt)

	reference[models.TechnologyWiFi]["ap"]["esp-1"] = 0
	_, again, _ := d.Watched()
	assert.Equal(t, -50.0, again[models.TechnologyWiFi]["ap"]["esp-1"], "reference is returned as a copy")
}
