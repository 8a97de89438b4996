package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// NoArea is the sentinel for "no area selected" / tracking disabled
const NoArea = ""

// AreaRange is one expected signal range for an emitter inside an area.
// A fingerprint value s matches when MinStrength < s < MaxStrength.
type AreaRange struct {
	EmitterID   string `json:"emitter"`
	MinStrength int    `json:"min_rssi"`
	MaxStrength int    `json:"max_rssi"`
}

// AreaCatalog maps area name to its ordered range entries
type AreaCatalog map[string][]AreaRange

// Clone returns a deep copy so callers can't mutate a held catalog
func (c AreaCatalog) Clone() AreaCatalog {
	out := make(AreaCatalog, len(c))
	for name, ranges := range c {
		out[name] = append([]AreaRange(nil), ranges...)
	}
	return out
}

// Names returns the area names in lexicographic order
func (c AreaCatalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CatalogPayload is the JSON document used by the file, MQTT and HTTP catalog sources
type CatalogPayload struct {
	Areas AreaCatalog `json:"areas"`
}

// AreaChange is emitted when a device's current area changes or tracking is disabled
type AreaChange struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"device_id"`
	PreviousArea string    `json:"previous_area"`
	Area         string    `json:"area"`
	Timestamp    time.Time `json:"timestamp"`
	Disabled     bool      `json:"disabled"`
}

// Diagnostics is the per-area match count snapshot of one evaluation
type Diagnostics struct {
	DeviceID  string         `json:"device_id"`
	Timestamp time.Time      `json:"timestamp"`
	Scores    map[string]int `json:"scores"`
	Report    string         `json:"report"`
}

// FormatScores renders scores one area per line, sorted by name
func FormatScores(scores map[string]int) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %d\n", name, scores[name])
	}
	return b.String()
}
