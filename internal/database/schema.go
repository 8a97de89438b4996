package database

// SQL schemas for all ClickHouse tables

const (
	// ScanObservationsTableSQL creates the scan_observations table
	ScanObservationsTableSQL = `
		CREATE TABLE IF NOT EXISTS scan_observations (
			timestamp DateTime64(3),
			device_id String,
			technology LowCardinality(String),
			emitter_id String,
			rssi Int32
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// AreaTransitionsTableSQL creates the area_transitions table
	AreaTransitionsTableSQL = `
		CREATE TABLE IF NOT EXISTS area_transitions (
			timestamp DateTime64(3),
			event_id String,
			device_id String,
			previous_area String,
			area String,
			disabled Bool
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// AreaDefinitionsTableSQL creates the area_definitions table
	AreaDefinitionsTableSQL = `
		CREATE TABLE IF NOT EXISTS area_definitions (
			area String,
			emitter_id String,
			min_rssi Int32,
			max_rssi Int32,
			position UInt32,
			updated_at DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (area, position)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		ScanObservationsTableSQL,
		AreaTransitionsTableSQL,
		AreaDefinitionsTableSQL,
	}
}
