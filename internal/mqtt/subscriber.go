package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"area-locator/internal/catalog"
	"area-locator/internal/models"
)

var errNoDeviceID = errors.New("could not extract device ID from topic")

// Subscriber handles MQTT subscriptions and writes parsed messages to channels
type Subscriber struct {
	client mqtt.Client

	// Output channels (written by subscriber, read by services)
	ScanChan    chan *models.ScanBatch
	CatalogChan chan models.AreaCatalog
	ControlChan chan *models.ControlMessage

	// Topic patterns
	wifiTopic    string
	bleTopic     string
	catalogTopic string
	controlTopic string

	now func() time.Time
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	WiFiTopic    string // e.g., "scan/+/wifi"
	BLETopic     string // e.g., "scan/+/ble"
	CatalogTopic string // e.g., "areas/catalog"
	ControlTopic string // e.g., "scan/+/control"
}

// NewSubscriber creates a new MQTT subscriber with channels
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	scanChan chan *models.ScanBatch,
	catalogChan chan models.AreaCatalog,
	controlChan chan *models.ControlMessage,
) *Subscriber {
	return &Subscriber{
		client:       client,
		ScanChan:     scanChan,
		CatalogChan:  catalogChan,
		ControlChan:  controlChan,
		wifiTopic:    config.WiFiTopic,
		bleTopic:     config.BLETopic,
		catalogTopic: config.CatalogTopic,
		controlTopic: config.ControlTopic,
		now:          time.Now,
	}
}

// SubscribeAll subscribes to all configured topics
func (s *Subscriber) SubscribeAll() error {
	subs := []struct {
		name    string
		topic   string
		handler mqtt.MessageHandler
	}{
		{"wifi", s.wifiTopic, s.scanHandler(models.TechnologyWiFi)},
		{"ble", s.bleTopic, s.scanHandler(models.TechnologyBLE)},
		{"catalog", s.catalogTopic, s.handleCatalog},
		{"control", s.controlTopic, s.handleControl},
	}

	for _, sub := range subs {
		if sub.topic == "" {
			continue
		}
		if err := s.subscribeToTopic(sub.topic, sub.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s topic: %w", sub.name, err)
		}
		log.Printf("Subscribed to %s topic: %s", sub.name, sub.topic)
	}

	return nil
}

// subscribeToTopic is a helper function to subscribe to a topic with a handler
func (s *Subscriber) subscribeToTopic(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, 1, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (s *Subscriber) scanHandler(tech models.Technology) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		batch, err := ParseScanBatch(msg.Topic(), msg.Payload(), tech, s.now())
		if err != nil {
			log.Printf("Error parsing %s scan from %s: %v", tech, msg.Topic(), err)
			return
		}

		// Write to channel (non-blocking with timeout)
		select {
		case s.ScanChan <- batch:
		case <-time.After(1 * time.Second):
			log.Printf("Warning: Scan channel full, dropping %s batch from %s", tech, batch.DeviceID)
		}
	}
}

// handleCatalog processes a full catalog replacement
func (s *Subscriber) handleCatalog(client mqtt.Client, msg mqtt.Message) {
	c, err := catalog.Parse(msg.Payload())
	if err != nil {
		log.Printf("Error parsing area catalog: %v", err)
		return
	}

	log.Printf("Received area catalog with %d areas", len(c))

	select {
	case s.CatalogChan <- c:
	case <-time.After(1 * time.Second):
		log.Printf("Warning: Catalog channel full, dropping catalog update")
	}
}

// handleControl processes operator commands such as disable
func (s *Subscriber) handleControl(client mqtt.Client, msg mqtt.Message) {
	ctrl, err := ParseControl(msg.Topic(), msg.Payload())
	if err != nil {
		log.Printf("Error parsing control message from %s: %v", msg.Topic(), err)
		return
	}

	select {
	case s.ControlChan <- ctrl:
	case <-time.After(1 * time.Second):
		log.Printf("Warning: Control channel full, dropping %q for %s", ctrl.Command, ctrl.DeviceID)
	}
}

// ParseScanBatch converts a scanner payload into observations. Entries without
// an emitter identity are dropped, missing or unparseable timestamps take
// the receive time.
func ParseScanBatch(topic string, payload []byte, tech models.Technology, receivedAt time.Time) (*models.ScanBatch, error) {
	deviceID := extractDeviceID(topic)
	if deviceID == "" {
		return nil, errNoDeviceID
	}

	var scan models.ScanPayload
	if err := json.Unmarshal(payload, &scan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan payload: %w", err)
	}

	batch := &models.ScanBatch{
		DeviceID:     deviceID,
		Technology:   tech,
		ReceivedAt:   receivedAt,
		Observations: make([]models.Observation, 0, len(scan.Observations)),
	}

	for _, entry := range scan.Observations {
		id := entry.EmitterID(tech)
		if id == "" {
			continue
		}

		observedAt := receivedAt
		if entry.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
				observedAt = ts
			}
		}

		batch.Observations = append(batch.Observations, models.Observation{
			EmitterID:  id,
			Strength:   entry.RSSI,
			ObservedAt: observedAt,
		})
	}

	return batch, nil
}

// ParseControl decodes a {"command": "..."} message for the topic's device
func ParseControl(topic string, payload []byte) (*models.ControlMessage, error) {
	deviceID := extractDeviceID(topic)
	if deviceID == "" {
		return nil, errNoDeviceID
	}

	var ctrl models.ControlMessage
	if err := json.Unmarshal(payload, &ctrl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal control message: %w", err)
	}
	ctrl.DeviceID = deviceID
	ctrl.Command = strings.ToLower(strings.TrimSpace(ctrl.Command))
	if ctrl.Command != models.CommandDisable {
		return nil, fmt.Errorf("unknown command %q", ctrl.Command)
	}
	return &ctrl, nil
}

// extractDeviceID extracts device ID from MQTT topic
// Example: "scan/esp-001/wifi" -> "esp-001"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
