package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"area-locator/internal/models"
)

func TestParse(t *testing.T) {
	t.Parallel()
	data := []byte(`{"areas":{"Kitchen":[{"emitter":"wifiX","min_rssi":-75,"max_rssi":-40}],"Office":[]}}`)

	c, err := Parse(data)

	require.NoError(t, err)
	assert.Equal(t, models.AreaCatalog{
		"Kitchen": {{EmitterID: "wifiX", MinStrength: -75, MaxStrength: -40}},
		"Office":  {},
	}, c)
}

func TestParseMissingAreasIsEmpty(t *testing.T) {
	t.Parallel()
	c, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"inverted range", `{"areas":{"A":[{"emitter":"e","min_rssi":-40,"max_rssi":-75}]}}`, ErrInvalidRange},
		{"empty range", `{"areas":{"A":[{"emitter":"e","min_rssi":-40,"max_rssi":-40}]}}`, ErrInvalidRange},
		{"no emitter", `{"areas":{"A":[{"emitter":" ","min_rssi":-80,"max_rssi":-40}]}}`, ErrEmptyEmitter},
		{"blank area", `{"areas":{"":[]}}`, ErrEmptyArea},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Parse([]byte(`{"areas":`))
	assert.Error(t, err)
}

func TestWriteSampleRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "areas.json")

	require.NoError(t, WriteSample(path))
	c, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Sample(), c)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
