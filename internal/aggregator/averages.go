package aggregator

import (
	"time"

	"area-locator/internal/models"
)

// EmitterAverages maps technology to emitter id to device id to the mean
// strength that device currently sees for the emitter
type EmitterAverages map[models.Technology]map[string]map[string]float64

// Lookup returns the mean a device sees for an emitter
func (a EmitterAverages) Lookup(tech models.Technology, emitterID, deviceID string) (float64, bool) {
	v, ok := a[tech][emitterID][deviceID]
	return v, ok
}

// Clone returns a deep copy
func (a EmitterAverages) Clone() EmitterAverages {
	out := make(EmitterAverages, len(a))
	for tech, emitters := range a {
		outEmitters := make(map[string]map[string]float64, len(emitters))
		for emitter, devices := range emitters {
			outDevices := make(map[string]float64, len(devices))
			for device, v := range devices {
				outDevices[device] = v
			}
			outEmitters[emitter] = outDevices
		}
		out[tech] = outEmitters
	}
	return out
}

// Averages regroups every tracker's per-technology means by emitter, so one
// emitter can be compared across the devices that hear it
func (r *Registry) Averages(now time.Time) EmitterAverages {
	out := EmitterAverages{}
	for _, deviceID := range r.Devices() {
		t, ok := r.Lookup(deviceID)
		if !ok {
			continue
		}
		for tech, fp := range t.Averages(now) {
			emitters, ok := out[tech]
			if !ok {
				emitters = make(map[string]map[string]float64)
				out[tech] = emitters
			}
			for emitter, mean := range fp {
				devices, ok := emitters[emitter]
				if !ok {
					devices = make(map[string]float64)
					emitters[emitter] = devices
				}
				devices[deviceID] = mean
			}
		}
	}
	return out
}
