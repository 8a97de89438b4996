package aggregator

import (
	"log"
	"sort"
	"sync"

	"area-locator/internal/area"
	"area-locator/internal/models"
)

// ListenerFactory builds the notification sink for a device's tracker
type ListenerFactory func(deviceID string) area.Listener

// DiagnosticsFactory builds the diagnostics sink for a device's tracker.
// Returning nil leaves diagnostics off for that device.
type DiagnosticsFactory func(deviceID string) area.DiagnosticsListener

// Registry holds one area tracker per scanning device
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*area.Tracker
	catalog  models.AreaCatalog
	config   area.Config

	newListener    ListenerFactory
	newDiagnostics DiagnosticsFactory
}

// NewRegistry creates an empty registry. Either factory may be nil.
func NewRegistry(config area.Config, listeners ListenerFactory, diagnostics DiagnosticsFactory) *Registry {
	return &Registry{
		trackers:       make(map[string]*area.Tracker),
		catalog:        models.AreaCatalog{},
		config:         config,
		newListener:    listeners,
		newDiagnostics: diagnostics,
	}
}

// Tracker returns the device's tracker, creating it with the current catalog on first use
func (r *Registry) Tracker(deviceID string) *area.Tracker {
	r.mu.RLock()
	t, ok := r.trackers[deviceID]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[deviceID]; ok {
		return t
	}

	var listener area.Listener
	if r.newListener != nil {
		listener = r.newListener(deviceID)
	}
	t = area.NewTracker(r.config, listener)
	if r.newDiagnostics != nil {
		if d := r.newDiagnostics(deviceID); d != nil {
			t.SetDiagnosticsListener(d)
		}
	}
	t.SetCatalog(r.catalog)
	r.trackers[deviceID] = t

	log.Printf("Registry: tracking new device %s", deviceID)
	return t
}

// Lookup returns the device's tracker without creating one
func (r *Registry) Lookup(deviceID string) (*area.Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[deviceID]
	return t, ok
}

// SetCatalog stores the catalog and swaps it into every tracker
func (r *Registry) SetCatalog(c models.AreaCatalog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.catalog = c.Clone()
	for _, t := range r.trackers {
		t.SetCatalog(r.catalog)
	}
	log.Printf("Registry: catalog updated (%d areas, %d devices)", len(r.catalog), len(r.trackers))
}

// Catalog returns a copy of the registry's catalog
func (r *Registry) Catalog() models.AreaCatalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Clone()
}

// Disable turns tracking off for a known device. Unknown devices are left
// alone so arbitrary ids cannot grow the registry.
func (r *Registry) Disable(deviceID string) (*area.Tracker, bool) {
	t, ok := r.Lookup(deviceID)
	if !ok {
		return nil, false
	}
	t.Disable()
	return t, true
}

// Devices returns all known device IDs in sorted order
func (r *Registry) Devices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]string, 0, len(r.trackers))
	for deviceID := range r.trackers {
		devices = append(devices, deviceID)
	}
	sort.Strings(devices)
	return devices
}

// Each calls fn for every tracker, in device order
func (r *Registry) Each(fn func(deviceID string, t *area.Tracker)) {
	for _, deviceID := range r.Devices() {
		if t, ok := r.Lookup(deviceID); ok {
			fn(deviceID, t)
		}
	}
}
