package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"area-locator/internal/aggregator"
	"area-locator/internal/area"
)

type Config struct {
	// MQTT Configuration
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// Inbound topics (+ matches the device id)
	MQTTTopicWiFi    string
	MQTTTopicBLE     string
	MQTTTopicCatalog string
	MQTTTopicControl string

	// Outbound topics ({device_id} is replaced)
	MQTTTopicArea        string
	MQTTTopicDiagnostics string
	MQTTTopicStatus      string

	// ClickHouse Configuration
	StorageEnabled bool
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// Storage batching
	StorageBatchSize     int
	StorageFlushInterval time.Duration

	// Kafka event stream (disabled when no brokers are set)
	KafkaBrokers   []string
	KafkaTopicArea string

	// HTTP API
	HTTPAddr string

	// Area catalog file loaded at startup (optional)
	AreaCatalogPath string

	// Area tracking
	MaxScanAge          time.Duration
	MinSignalsToAnalyze int
	SweepInterval       time.Duration

	// Emitter drift detection
	DriftMaxRSSIDiff      float64
	DriftExcludeThreshold int

	// Hotspot tracking
	HotspotName     string
	HotspotMaxAge   time.Duration
	HotspotCapacity int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		// MQTT Configuration
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "area-locator"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		MQTTTopicWiFi:    getEnv("MQTT_TOPIC_WIFI", "scan/+/wifi"),
		MQTTTopicBLE:     getEnv("MQTT_TOPIC_BLE", "scan/+/ble"),
		MQTTTopicCatalog: getEnv("MQTT_TOPIC_CATALOG", "areas/catalog"),
		MQTTTopicControl: getEnv("MQTT_TOPIC_CONTROL", "scan/+/control"),

		MQTTTopicArea:        getEnv("MQTT_TOPIC_AREA", "area/{device_id}/current"),
		MQTTTopicDiagnostics: os.Getenv("MQTT_TOPIC_DIAGNOSTICS"),
		MQTTTopicStatus:      getEnv("MQTT_TOPIC_STATUS", "area-locator/status"),

		// ClickHouse Configuration
		StorageEnabled: getEnvBool("STORAGE_ENABLED", true),
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "iot"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		StorageBatchSize:     getEnvInt("STORAGE_BATCH_SIZE", 500),
		StorageFlushInterval: getEnvDuration("STORAGE_FLUSH_INTERVAL", 2*time.Second),

		KafkaBrokers:   getEnvList("KAFKA_BROKERS"),
		KafkaTopicArea: getEnv("KAFKA_TOPIC_AREA", "area-changes"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		AreaCatalogPath: getEnv("AREA_CATALOG_PATH", ""),

		MaxScanAge:          getEnvDuration("MAX_SCAN_AGE", 10*time.Second),
		MinSignalsToAnalyze: getEnvInt("MIN_SIGNALS_TO_ANALYZE", 5),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 5*time.Second),

		DriftMaxRSSIDiff:      getEnvFloat("DRIFT_MAX_RSSI_DIFF", 5),
		DriftExcludeThreshold: getEnvInt("DRIFT_EXCLUDE_THRESHOLD", 2),

		HotspotName:     getEnv("HOTSPOT_NAME", ""),
		HotspotMaxAge:   getEnvDuration("HOTSPOT_MAX_AGE", 20*time.Second),
		HotspotCapacity: getEnvInt("HOTSPOT_CAPACITY", 5000),
	}
}

// TrackerConfig returns the tracking parameters for area trackers
func (c *Config) TrackerConfig() area.Config {
	return area.Config{
		MaxScanAge:          c.MaxScanAge,
		MinSignalsToAnalyze: c.MinSignalsToAnalyze,
	}
}

// DriftConfig returns the emitter drift thresholds
func (c *Config) DriftConfig() aggregator.DriftConfig {
	return aggregator.DriftConfig{
		MaxStrengthDiff:  c.DriftMaxRSSIDiff,
		ExcludeThreshold: c.DriftExcludeThreshold,
	}
}

// HotspotConfig returns the hotspot tracking settings
func (c *Config) HotspotConfig() aggregator.HotspotConfig {
	return aggregator.HotspotConfig{
		Name:     c.HotspotName,
		MaxAge:   c.HotspotMaxAge,
		Capacity: c.HotspotCapacity,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
