package area

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"area-locator/internal/models"
)

func TestBuildFingerprint(t *testing.T) {
	t.Parallel()
	now := time.Now()

	tests := []struct {
		name string
		wifi []models.Observation
		ble  []models.Observation
		want Fingerprint
	}{
		{
			name: "empty window",
			want: Fingerprint{},
		},
		{
			name: "mean of one emitter",
			wifi: []models.Observation{
				obsAt("e1", -60, now), obsAt("e1", -70, now), obsAt("e1", -65, now),
			},
			want: Fingerprint{"e1": -65.0},
		},
		{
			name: "fractional mean",
			wifi: []models.Observation{obsAt("e1", -60, now), obsAt("e1", -61, now)},
			want: Fingerprint{"e1": -60.5},
		},
		{
			name: "technologies share identity space",
			wifi: []models.Observation{obsAt("shared", -50, now), obsAt("ap", -80, now)},
			ble:  []models.Observation{obsAt("shared", -70, now), obsAt("tag", -90, now)},
			want: Fingerprint{"shared": -60, "ap": -80, "tag": -90},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := NewSampleWindow()
			for _, o := range tt.wifi {
				w.Ingest(models.TechnologyWiFi, o)
			}
			for _, o := range tt.ble {
				w.Ingest(models.TechnologyBLE, o)
			}

			got := BuildFingerprint(w)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildFingerprint() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildFingerprintIsDeterministic(t *testing.T) {
	t.Parallel()
	now := time.Now()
	w := NewSampleWindow()
	for i := 0; i < 50; i++ {
		w.Ingest(models.TechnologyWiFi, obsAt("ap", -40-i, now))
		w.Ingest(models.TechnologyBLE, obsAt("tag", -90+i, now))
	}

	first := BuildFingerprint(w)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildFingerprint(w))
	}
	assert.Equal(t, 100, w.Len(), "building must not consume the window")
}

func TestBuildTechnologyFingerprints(t *testing.T) {
	t.Parallel()
	now := time.Now()
	w := NewSampleWindow()
	w.Ingest(models.TechnologyWiFi, obsAt("shared", -50, now))
	w.Ingest(models.TechnologyWiFi, obsAt("shared", -60, now))
	w.Ingest(models.TechnologyBLE, obsAt("shared", -80, now))
	w.Ingest(models.TechnologyBLE, obsAt("tag", -71, now))

	got := BuildTechnologyFingerprints(w)

	want := map[models.Technology]Fingerprint{
		models.TechnologyWiFi: {"shared": -55},
		models.TechnologyBLE:  {"shared": -80, "tag": -71},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildTechnologyFingerprints() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, BuildTechnologyFingerprints(NewSampleWindow()))
}
