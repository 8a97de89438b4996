package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"area-locator/internal/models"
)

// Publisher publishes area events for devices
type Publisher struct {
	client mqtt.Client

	// Topic patterns
	areaTopic        string // e.g., "area/{device_id}/current"
	diagnosticsTopic string // e.g., "area/{device_id}/diagnostics"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	AreaTopic        string
	DiagnosticsTopic string // empty disables diagnostics publishing
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(client mqtt.Client, config PublisherConfig) *Publisher {
	return &Publisher{
		client:           client,
		areaTopic:        config.AreaTopic,
		diagnosticsTopic: config.DiagnosticsTopic,
	}
}

// DiagnosticsEnabled reports whether a diagnostics topic is configured
func (p *Publisher) DiagnosticsEnabled() bool {
	return p.diagnosticsTopic != ""
}

// PublishAreaChange publishes the device's new area as a retained message so
// late subscribers see the current state
func (p *Publisher) PublishAreaChange(ctx context.Context, change *models.AreaChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal area change: %w", err)
	}

	topic := formatTopic(p.areaTopic, change.DeviceID)
	if err := p.publish(ctx, topic, true, payload); err != nil {
		return fmt.Errorf("failed to publish area change: %w", err)
	}

	log.Printf("Published area change for device %s (%q -> %q) to topic: %s",
		change.DeviceID, change.PreviousArea, change.Area, topic)
	return nil
}

// PublishDiagnostics publishes one evaluation's match counts
func (p *Publisher) PublishDiagnostics(ctx context.Context, diag *models.Diagnostics) error {
	if !p.DiagnosticsEnabled() {
		return nil
	}

	payload, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	if err := p.publish(ctx, formatTopic(p.diagnosticsTopic, diag.DeviceID), false, payload); err != nil {
		return fmt.Errorf("failed to publish diagnostics: %w", err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, 1, retained, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// formatTopic replaces {device_id} placeholder with actual device ID
func formatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
