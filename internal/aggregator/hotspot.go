package aggregator

import (
	"errors"
	"log"
	"sync"
	"time"

	"area-locator/internal/models"
)

var errInvalidHotspotAge = errors.New("hotspot max age must be positive")

// HotspotConfig holds hotspot tracking settings
type HotspotConfig struct {
	Name     string        // SSID to follow, empty records nothing
	MaxAge   time.Duration // sightings older than this are not recent
	Capacity int           // oldest sightings are dropped beyond this
}

// DefaultHotspotConfig returns default hotspot configuration
func DefaultHotspotConfig() HotspotConfig {
	return HotspotConfig{
		MaxAge:   20 * time.Second,
		Capacity: 5000,
	}
}

// HotspotSighting is one Wi-Fi reading of the followed SSID
type HotspotSighting struct {
	DeviceID   string    `json:"device_id"`
	Strength   int       `json:"rssi"`
	ObservedAt time.Time `json:"timestamp"`
}

// Hotspot records every device's readings of one named SSID, e.g. a phone
// hotspot carried around the building
type Hotspot struct {
	mu        sync.Mutex
	name      string
	maxAge    time.Duration
	capacity  int
	sightings []HotspotSighting
}

// NewHotspot creates a hotspot tracker
func NewHotspot(config HotspotConfig) *Hotspot {
	defaults := DefaultHotspotConfig()
	if config.MaxAge <= 0 {
		config.MaxAge = defaults.MaxAge
	}
	if config.Capacity <= 0 {
		config.Capacity = defaults.Capacity
	}
	return &Hotspot{
		name:     config.Name,
		maxAge:   config.MaxAge,
		capacity: config.Capacity,
	}
}

// Observe records the batch's readings of the followed SSID
func (h *Hotspot) Observe(batch *models.ScanBatch) {
	if batch.Technology != models.TechnologyWiFi {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.name == "" {
		return
	}
	for _, obs := range batch.Observations {
		if obs.EmitterID != h.name {
			continue
		}
		h.sightings = append(h.sightings, HotspotSighting{
			DeviceID:   batch.DeviceID,
			Strength:   obs.Strength,
			ObservedAt: obs.ObservedAt,
		})
	}
	if over := len(h.sightings) - h.capacity; over > 0 {
		h.sightings = append(h.sightings[:0:0], h.sightings[over:]...)
	}
}

// SetName follows a different SSID and forgets earlier sightings
func (h *Hotspot) SetName(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.name = name
	h.sightings = nil
	log.Printf("Hotspot: following %q", name)
}

// Name returns the followed SSID
func (h *Hotspot) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// SetMaxAge changes how long a sighting counts as recent
func (h *Hotspot) SetMaxAge(d time.Duration) error {
	if d <= 0 {
		return errInvalidHotspotAge
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxAge = d
	return nil
}

// MaxAge returns how long a sighting counts as recent
func (h *Hotspot) MaxAge() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxAge
}

// Recent returns the sightings within MaxAge of now, oldest first
func (h *Hotspot) Recent(now time.Time) []HotspotSighting {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HotspotSighting, 0, len(h.sightings))
	for _, s := range h.sightings {
		age := now.Sub(s.ObservedAt)
		if age <= h.maxAge && -age <= h.maxAge {
			out = append(out, s)
		}
	}
	return out
}

// History returns every retained sighting, oldest first
func (h *Hotspot) History() []HotspotSighting {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HotspotSighting{}, h.sightings...)
}

// Clear forgets all sightings and keeps the name
func (h *Hotspot) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sightings = nil
}
