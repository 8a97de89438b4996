package aggregator

import (
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"area-locator/internal/models"
)

// DriftConfig holds the drift detection thresholds
type DriftConfig struct {
	MaxStrengthDiff  float64 // dB a device's mean may move before it counts as drifted
	ExcludeThreshold int     // drifted devices needed to exclude an emitter
}

// DefaultDriftConfig returns default drift configuration
func DefaultDriftConfig() DriftConfig {
	return DriftConfig{
		MaxStrengthDiff:  5,
		ExcludeThreshold: 2,
	}
}

// WatchList holds emitter ids per technology
type WatchList map[models.Technology][]string

// DriftDetector flags watched emitters whose strength, as seen by the
// scanning devices, moved away from a reference snapshot. A moved or
// replaced access point shows up this way and should be left out of area
// definitions.
type DriftDetector struct {
	registry *Registry
	config   DriftConfig

	mu        sync.Mutex
	watched   WatchList
	reference EmitterAverages
	takenAt   time.Time
}

// NewDriftDetector creates a detector with nothing watched
func NewDriftDetector(registry *Registry, config DriftConfig) *DriftDetector {
	return &DriftDetector{
		registry:  registry,
		config:    config,
		watched:   WatchList{},
		reference: EmitterAverages{},
	}
}

// Watch replaces the watched emitters and snapshots the current averages
// as the new reference
func (d *DriftDetector) Watch(watched WatchList, now time.Time) {
	reference := d.registry.Averages(now)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.watched = normalizeWatchList(watched)
	d.reference = reference
	d.takenAt = now

	log.Printf("Drift: watching %d Wi-Fi and %d BLE emitters",
		len(d.watched[models.TechnologyWiFi]), len(d.watched[models.TechnologyBLE]))
}

// Watched returns the watched emitters, the reference snapshot and when it was taken
func (d *DriftDetector) Watched() (WatchList, EmitterAverages, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return normalizeWatchList(d.watched), d.reference.Clone(), d.takenAt
}

// Excluded returns, per technology, the watched emitters whose mean differs
// from the reference by more than MaxStrengthDiff on at least
// ExcludeThreshold devices. Devices missing from either side are not counted.
func (d *DriftDetector) Excluded(now time.Time) WatchList {
	current := d.registry.Averages(now)

	d.mu.Lock()
	defer d.mu.Unlock()

	out := emptyWatchList()
	for tech, emitters := range d.watched {
		for _, emitter := range emitters {
			if d.driftedDevices(current, tech, emitter) >= d.config.ExcludeThreshold {
				out[tech] = append(out[tech], emitter)
			}
		}
	}
	return out
}

func (d *DriftDetector) driftedDevices(current EmitterAverages, tech models.Technology, emitter string) int {
	drifted := 0
	for device, mean := range current[tech][emitter] {
		ref, ok := d.reference.Lookup(tech, emitter, device)
		if !ok {
			continue
		}
		if math.Abs(ref-mean) > d.config.MaxStrengthDiff {
			drifted++
		}
	}
	return drifted
}

func emptyWatchList() WatchList {
	return WatchList{
		models.TechnologyWiFi: {},
		models.TechnologyBLE:  {},
	}
}

// normalizeWatchList copies, sorts and dedupes, always carrying both technologies
func normalizeWatchList(in WatchList) WatchList {
	out := emptyWatchList()
	for tech, ids := range in {
		seen := make(map[string]struct{}, len(ids))
		list := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			list = append(list, id)
		}
		sort.Strings(list)
		out[tech] = list
	}
	return out
}
