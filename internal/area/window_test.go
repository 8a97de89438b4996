package area

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"area-locator/internal/models"
)

func obsAt(id string, strength int, at time.Time) models.Observation {
	return models.Observation{EmitterID: id, Strength: strength, ObservedAt: at}
}

func TestSampleWindowPrune(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 10 * time.Second

	t.Run("drops stale and keeps fresh", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		w.Ingest(models.TechnologyWiFi, obsAt("old", -60, now.Add(-11*time.Second)))
		w.Ingest(models.TechnologyWiFi, obsAt("fresh", -60, now.Add(-2*time.Second)))
		w.Ingest(models.TechnologyBLE, obsAt("beacon", -70, now.Add(-30*time.Second)))

		removed := w.Prune(now, maxAge)

		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, w.Len())
		assert.Equal(t, map[models.Technology]int{models.TechnologyWiFi: 1, models.TechnologyBLE: 0}, w.Counts())
	})

	t.Run("entry exactly at max age is kept", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		w.Ingest(models.TechnologyWiFi, obsAt("edge", -60, now.Add(-maxAge)))

		assert.Equal(t, 0, w.Prune(now, maxAge))
		assert.Equal(t, 1, w.Len())
	})

	t.Run("non monotonic timestamps are fully pruned", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		// stale entries interleaved with fresh ones, including at index 0
		w.Ingest(models.TechnologyWiFi, obsAt("a", -60, now.Add(-time.Minute)))
		w.Ingest(models.TechnologyWiFi, obsAt("b", -60, now.Add(-1*time.Second)))
		w.Ingest(models.TechnologyWiFi, obsAt("c", -60, now.Add(-time.Hour)))
		w.Ingest(models.TechnologyWiFi, obsAt("d", -60, now.Add(-3*time.Second)))
		w.Ingest(models.TechnologyWiFi, obsAt("e", -60, now.Add(-20*time.Second)))

		w.Prune(now, maxAge)

		var ids []string
		w.Each(func(_ models.Technology, obs models.Observation) {
			ids = append(ids, obs.EmitterID)
			assert.LessOrEqual(t, now.Sub(obs.ObservedAt), maxAge)
		})
		assert.Equal(t, []string{"b", "d"}, ids)
	})

	t.Run("missing timestamp counts as stale", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		w.Ingest(models.TechnologyBLE, models.Observation{EmitterID: "x", Strength: -50})

		assert.Equal(t, 1, w.Prune(now, maxAge))
		assert.Zero(t, w.Len())
	})

	t.Run("small clock skew is tolerated", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		w.Ingest(models.TechnologyWiFi, obsAt("skewed", -50, now.Add(5*time.Second)))
		w.Ingest(models.TechnologyWiFi, obsAt("edge", -50, now.Add(maxAge)))

		assert.Equal(t, 0, w.Prune(now, maxAge))
		assert.Equal(t, 2, w.Len())
	})

	t.Run("far future timestamps are dropped", func(t *testing.T) {
		t.Parallel()
		w := NewSampleWindow()
		w.Ingest(models.TechnologyWiFi, obsAt("ahead", -50, now.Add(24*time.Hour)))
		w.Ingest(models.TechnologyWiFi, obsAt("barely", -50, now.Add(maxAge+time.Second)))
		w.Ingest(models.TechnologyWiFi, obsAt("fresh", -50, now))

		assert.Equal(t, 2, w.Prune(now, maxAge))
		var ids []string
		w.Each(func(_ models.Technology, obs models.Observation) {
			ids = append(ids, obs.EmitterID)
		})
		assert.Equal(t, []string{"fresh"}, ids)
	})
}

func TestSampleWindowKeepsDuplicatesInOrder(t *testing.T) {
	t.Parallel()
	now := time.Now()
	w := NewSampleWindow()
	w.Ingest(models.TechnologyWiFi, obsAt("ap", -60, now))
	w.Ingest(models.TechnologyWiFi, obsAt("ap", -61, now))
	w.Ingest(models.TechnologyBLE, obsAt("tag", -70, now))

	var got []models.Observation
	w.Each(func(_ models.Technology, obs models.Observation) {
		got = append(got, obs)
	})

	require.Len(t, got, 3)
	// ble sorts before wifi
	assert.Equal(t, "tag", got[0].EmitterID)
	assert.Equal(t, -60, got[1].Strength)
	assert.Equal(t, -61, got[2].Strength)
}
