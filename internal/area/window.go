package area

import (
	"sort"
	"time"

	"area-locator/internal/models"
)

// SampleWindow holds recent observations per technology in insertion order.
// It is not safe for concurrent use; the owning Tracker serializes access.
type SampleWindow struct {
	observations map[models.Technology][]models.Observation
}

// NewSampleWindow creates an empty window
func NewSampleWindow() *SampleWindow {
	return &SampleWindow{
		observations: make(map[models.Technology][]models.Observation),
	}
}

// Ingest appends an observation. Duplicates are kept on purpose.
func (w *SampleWindow) Ingest(tech models.Technology, obs models.Observation) {
	w.observations[tech] = append(w.observations[tech], obs)
}

// Prune removes every observation older than maxAge relative to now and
// returns how many were dropped. Observations without a timestamp, or dated
// more than maxAge ahead of now, are stale.
func (w *SampleWindow) Prune(now time.Time, maxAge time.Duration) int {
	removed := 0
	for tech, list := range w.observations {
		kept := list[:0]
		for _, obs := range list {
			if isStale(obs, now, maxAge) {
				removed++
				continue
			}
			kept = append(kept, obs)
		}
		// clear the tail so dropped observations can be collected
		for i := len(kept); i < len(list); i++ {
			list[i] = models.Observation{}
		}
		w.observations[tech] = kept
	}
	return removed
}

func isStale(obs models.Observation, now time.Time, maxAge time.Duration) bool {
	if obs.ObservedAt.IsZero() {
		return true
	}
	age := now.Sub(obs.ObservedAt)
	// readings from a scanner clock running ahead expire symmetrically
	return age > maxAge || -age > maxAge
}

// Len returns the total observation count across technologies
func (w *SampleWindow) Len() int {
	n := 0
	for _, list := range w.observations {
		n += len(list)
	}
	return n
}

// Counts returns the observation count per technology
func (w *SampleWindow) Counts() map[models.Technology]int {
	counts := make(map[models.Technology]int, len(w.observations))
	for tech, list := range w.observations {
		counts[tech] = len(list)
	}
	return counts
}

// Each calls fn for every retained observation, technologies in name order
func (w *SampleWindow) Each(fn func(tech models.Technology, obs models.Observation)) {
	techs := make([]string, 0, len(w.observations))
	for tech := range w.observations {
		techs = append(techs, string(tech))
	}
	sort.Strings(techs)

	for _, tech := range techs {
		for _, obs := range w.observations[models.Technology(tech)] {
			fn(models.Technology(tech), obs)
		}
	}
}
