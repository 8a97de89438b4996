package models

import (
	"strings"
	"time"
)

// Technology identifies the radio an observation was captured with
type Technology string

const (
	TechnologyWiFi Technology = "wifi"
	TechnologyBLE  Technology = "ble"
)

// Observation is one raw signal reading. Values are never mutated after creation.
type Observation struct {
	EmitterID  string    `json:"emitter_id"`
	Strength   int       `json:"strength"`    // RSSI-like, larger is stronger
	ObservedAt time.Time `json:"observed_at"` // zero means unknown, treated as stale
}

// ScanEntry is a single result inside a scanner payload
type ScanEntry struct {
	ID        string `json:"id,omitempty"`      // SSID for Wi-Fi
	Name      string `json:"name,omitempty"`    // advertised beacon name
	Address   string `json:"address,omitempty"` // beacon hardware address
	RSSI      int    `json:"rssi"`
	Timestamp string `json:"timestamp,omitempty"` // RFC3339, optional
}

// ScanPayload is the JSON published by scanners on scan/{device_id}/{wifi|ble}
type ScanPayload struct {
	Observations []ScanEntry `json:"observations"`
}

// EmitterID resolves the identity used for fingerprinting.
// Beacons prefer their advertised name and fall back to the hardware address.
func (e ScanEntry) EmitterID(tech Technology) string {
	if tech == TechnologyBLE {
		if name := strings.TrimSpace(e.Name); name != "" {
			return name
		}
		if addr := strings.TrimSpace(e.Address); addr != "" {
			return addr
		}
	}
	return strings.TrimSpace(e.ID)
}

// ScanBatch is a parsed scanner payload tagged with its origin
type ScanBatch struct {
	DeviceID     string        `json:"device_id"`
	Technology   Technology    `json:"technology"`
	ReceivedAt   time.Time     `json:"received_at"`
	Observations []Observation `json:"observations"`
}

// ControlMessage carries an operator command for one device
type ControlMessage struct {
	DeviceID string `json:"device_id"`
	Command  string `json:"command"`
}

// CommandDisable turns tracking off for a device
const CommandDisable = "disable"
