package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"area-locator/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	// Initialize schema
	if err := db.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// SaveObservations inserts every observation of the given batches in one block
func (db *ClickHouseDB) SaveObservations(ctx context.Context, batches []*models.ScanBatch) error {
	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO scan_observations (timestamp, device_id, technology, emitter_id, rssi)")
	if err != nil {
		return fmt.Errorf("failed to prepare observation batch: %w", err)
	}

	rows := 0
	for _, b := range batches {
		for _, obs := range b.Observations {
			if err := batch.Append(obs.ObservedAt, b.DeviceID, string(b.Technology), obs.EmitterID, int32(obs.Strength)); err != nil {
				_ = batch.Abort()
				return fmt.Errorf("failed to append observation: %w", err)
			}
			rows++
		}
	}

	if rows == 0 {
		return batch.Abort()
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}
	return nil
}

// SaveAreaTransition records an area change or disable event
func (db *ClickHouseDB) SaveAreaTransition(ctx context.Context, change *models.AreaChange) error {
	query := `
		INSERT INTO area_transitions (timestamp, event_id, device_id, previous_area, area, disabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		change.Timestamp,
		change.ID,
		change.DeviceID,
		change.PreviousArea,
		change.Area,
		change.Disabled,
	)

	if err != nil {
		return fmt.Errorf("failed to insert area transition: %w", err)
	}

	return nil
}

// LoadCatalog reads all area definitions, ranges kept in their stored order
func (db *ClickHouseDB) LoadCatalog(ctx context.Context) (models.AreaCatalog, error) {
	query := `
		SELECT area, emitter_id, min_rssi, max_rssi
		FROM area_definitions
		ORDER BY area, position
	`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query area definitions: %w", err)
	}
	defer rows.Close()

	c := models.AreaCatalog{}
	for rows.Next() {
		var (
			name, emitter    string
			minRSSI, maxRSSI int32
		)
		if err := rows.Scan(&name, &emitter, &minRSSI, &maxRSSI); err != nil {
			return nil, fmt.Errorf("failed to scan area definition: %w", err)
		}
		c[name] = append(c[name], models.AreaRange{
			EmitterID:   emitter,
			MinStrength: int(minRSSI),
			MaxStrength: int(maxRSSI),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read area definitions: %w", err)
	}

	return c, nil
}

// ReplaceCatalog overwrites all stored area definitions. Areas without
// ranges have no rows and are not restored by LoadCatalog.
func (db *ClickHouseDB) ReplaceCatalog(ctx context.Context, c models.AreaCatalog) error {
	if err := db.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS area_definitions"); err != nil {
		return fmt.Errorf("failed to clear area definitions: %w", err)
	}

	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO area_definitions (area, emitter_id, min_rssi, max_rssi, position, updated_at)")
	if err != nil {
		return fmt.Errorf("failed to prepare area definition batch: %w", err)
	}

	now := time.Now()
	rows := 0
	for _, name := range c.Names() {
		for i, r := range c[name] {
			if err := batch.Append(name, r.EmitterID, int32(r.MinStrength), int32(r.MaxStrength), uint32(i), now); err != nil {
				_ = batch.Abort()
				return fmt.Errorf("failed to append area definition: %w", err)
			}
			rows++
		}
	}

	if rows == 0 {
		return batch.Abort()
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert area definitions: %w", err)
	}

	log.Printf("Stored %d area definitions for %d areas", rows, len(c))
	return nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}
