package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MQTT_TOPIC_WIFI", "MAX_SCAN_AGE", "MIN_SIGNALS_TO_ANALYZE", "KAFKA_BROKERS", "MQTT_TOPIC_DIAGNOSTICS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "scan/+/wifi", cfg.MQTTTopicWiFi)
	assert.Equal(t, "area/{device_id}/current", cfg.MQTTTopicArea)
	assert.Equal(t, 10*time.Second, cfg.MaxScanAge)
	assert.Equal(t, 5, cfg.MinSignalsToAnalyze)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.MQTTTopicDiagnostics)
	assert.True(t, cfg.StorageEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_SCAN_AGE", "30s")
	t.Setenv("MIN_SIGNALS_TO_ANALYZE", "12")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STORAGE_ENABLED", "false")
	t.Setenv("MQTT_TOPIC_DIAGNOSTICS", "area/{device_id}/debug")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.MaxScanAge)
	assert.Equal(t, 12, cfg.MinSignalsToAnalyze)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.StorageEnabled)
	assert.Equal(t, "area/{device_id}/debug", cfg.MQTTTopicDiagnostics)

	tc := cfg.TrackerConfig()
	assert.Equal(t, 30*time.Second, tc.MaxScanAge)
	assert.Equal(t, 12, tc.MinSignalsToAnalyze)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_SCAN_AGE", "soon")
	t.Setenv("MIN_SIGNALS_TO_ANALYZE", "many")
	t.Setenv("SWEEP_INTERVAL", "-1s")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.MaxScanAge)
	assert.Equal(t, 5, cfg.MinSignalsToAnalyze)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
}

func TestLoadDriftAndHotspot(t *testing.T) {
	t.Setenv("DRIFT_MAX_RSSI_DIFF", "7.5")
	t.Setenv("DRIFT_EXCLUDE_THRESHOLD", "3")
	t.Setenv("HOTSPOT_NAME", "phone")
	t.Setenv("HOTSPOT_MAX_AGE", "45s")
	t.Setenv("HOTSPOT_CAPACITY", "")

	cfg := Load()

	dc := cfg.DriftConfig()
	assert.Equal(t, 7.5, dc.MaxStrengthDiff)
	assert.Equal(t, 3, dc.ExcludeThreshold)

	hc := cfg.HotspotConfig()
	assert.Equal(t, "phone", hc.Name)
	assert.Equal(t, 45*time.Second, hc.MaxAge)
	assert.Equal(t, 5000, hc.Capacity)

	t.Setenv("DRIFT_MAX_RSSI_DIFF", "loud")
	assert.Equal(t, 5.0, Load().DriftMaxRSSIDiff)
}
