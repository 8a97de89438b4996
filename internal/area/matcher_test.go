package area

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"area-locator/internal/models"
)

func TestScore(t *testing.T) {
	t.Parallel()
	catalog := models.AreaCatalog{
		"A": {{EmitterID: "e1", MinStrength: -70, MaxStrength: -50}},
	}

	tests := []struct {
		name string
		fp   Fingerprint
		want map[string]int
	}{
		{"inside range", Fingerprint{"e1": -60}, map[string]int{"A": 1}},
		{"below range", Fingerprint{"e1": -80}, map[string]int{"A": 0}},
		{"emitter missing", Fingerprint{"other": -60}, map[string]int{"A": 0}},
		{"exactly min is excluded", Fingerprint{"e1": -70}, map[string]int{"A": 0}},
		{"exactly max is excluded", Fingerprint{"e1": -50}, map[string]int{"A": 0}},
		{"just inside min", Fingerprint{"e1": -69.5}, map[string]int{"A": 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Score(tt.fp, catalog)); diff != "" {
				t.Errorf("Score() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreCoversWholeCatalog(t *testing.T) {
	t.Parallel()
	catalog := models.AreaCatalog{
		"Kitchen": {{EmitterID: "wifiX", MinStrength: -75, MaxStrength: -40}},
		"Office":  {{EmitterID: "wifiX", MinStrength: -95, MaxStrength: -76}},
		"Garage":  {},
	}

	got := Score(Fingerprint{"wifiX": -50}, catalog)

	assert.Equal(t, map[string]int{"Kitchen": 1, "Office": 0, "Garage": 0}, got)
}

func TestScoreCountsOverlappingRangesIndependently(t *testing.T) {
	t.Parallel()
	catalog := models.AreaCatalog{
		"Hall": {
			{EmitterID: "ap", MinStrength: -80, MaxStrength: -40},
			{EmitterID: "ap", MinStrength: -70, MaxStrength: -55},
			{EmitterID: "ap", MinStrength: -50, MaxStrength: -30},
		},
	}

	assert.Equal(t, map[string]int{"Hall": 2}, Score(Fingerprint{"ap": -60}, catalog))
}

func TestScoreDoesNotMutateInputs(t *testing.T) {
	t.Parallel()
	catalog := models.AreaCatalog{"A": {{EmitterID: "e1", MinStrength: -70, MaxStrength: -50}}}
	fp := Fingerprint{"e1": -60}
	before := catalog.Clone()

	Score(fp, catalog)

	assert.Equal(t, before, catalog)
	assert.Equal(t, Fingerprint{"e1": -60}, fp)
}

func TestScoreEmptyCatalog(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Score(Fingerprint{"e1": -60}, nil))
}

func TestBest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		scores    map[string]int
		order     []string
		wantArea  string
		wantCount int
	}{
		{"single winner", map[string]int{"A": 1, "B": 3}, []string{"A", "B"}, "B", 3},
		{"all zero yields no area", map[string]int{"A": 0, "B": 0}, []string{"A", "B"}, models.NoArea, 0},
		{"empty", map[string]int{}, nil, models.NoArea, 0},
		{"tie goes to first in order", map[string]int{"Bath": 2, "Attic": 2}, []string{"Attic", "Bath"}, "Attic", 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			area, count := Best(tt.scores, tt.order)
			assert.Equal(t, tt.wantArea, area)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
