package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"area-locator/internal/aggregator"
	"area-locator/internal/area"
	"area-locator/internal/catalog"
	"area-locator/internal/models"
)

// ObservationRecorder receives every ingested batch for persistence
type ObservationRecorder interface {
	Record(batch *models.ScanBatch)
}

// ScanObserver sees every ingested batch, e.g. the hotspot tracker
type ScanObserver interface {
	Observe(batch *models.ScanBatch)
}

// CatalogStore persists area definitions
type CatalogStore interface {
	ReplaceCatalog(ctx context.Context, c models.AreaCatalog) error
}

// TrackingServiceConfig holds configuration for the tracking service
type TrackingServiceConfig struct {
	SweepInterval time.Duration
	ChannelSize   int
}

// DefaultTrackingServiceConfig returns default configuration
func DefaultTrackingServiceConfig() TrackingServiceConfig {
	return TrackingServiceConfig{
		SweepInterval: 5 * time.Second,
		ChannelSize:   100,
	}
}

// TrackingService feeds scanner batches into per-device trackers and applies
// catalog and control updates
type TrackingService struct {
	registry     *aggregator.Registry
	recorder     ObservationRecorder
	catalogStore CatalogStore
	observers    []ScanObserver

	// Input channels from MQTT subscriber
	ScanChan    chan *models.ScanBatch
	CatalogChan chan models.AreaCatalog
	ControlChan chan *models.ControlMessage

	sweepInterval time.Duration
	now           func() time.Time
}

// NewTrackingService creates a tracking service. recorder and store may be nil.
func NewTrackingService(
	registry *aggregator.Registry,
	recorder ObservationRecorder,
	store CatalogStore,
	config TrackingServiceConfig,
) *TrackingService {
	return &TrackingService{
		registry:      registry,
		recorder:      recorder,
		catalogStore:  store,
		ScanChan:      make(chan *models.ScanBatch, config.ChannelSize),
		CatalogChan:   make(chan models.AreaCatalog, 1),
		ControlChan:   make(chan *models.ControlMessage, config.ChannelSize),
		sweepInterval: config.SweepInterval,
		now:           time.Now,
	}
}

// AddObserver registers o for every batch. Call before Start.
func (s *TrackingService) AddObserver(o ScanObserver) {
	s.observers = append(s.observers, o)
}

// Start processes inputs until the context is cancelled
func (s *TrackingService) Start(ctx context.Context) {
	log.Printf("TrackingService: Starting (sweep every %v)...", s.sweepInterval)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("TrackingService: Shutting down...")
			return

		case batch := <-s.ScanChan:
			s.HandleScan(batch)

		case c := <-s.CatalogChan:
			if err := s.ApplyCatalog(ctx, c); err != nil {
				log.Printf("TrackingService: %v", err)
			}

		case ctrl := <-s.ControlChan:
			s.HandleControl(ctrl)

		case <-ticker.C:
			s.Sweep()
		}
	}
}

// HandleScan ingests a batch into the device's tracker and evaluates it
func (s *TrackingService) HandleScan(batch *models.ScanBatch) area.Evaluation {
	t := s.registry.Tracker(batch.DeviceID)
	for _, obs := range batch.Observations {
		t.Ingest(batch.Technology, obs)
	}

	if s.recorder != nil && len(batch.Observations) > 0 {
		s.recorder.Record(batch)
	}
	for _, o := range s.observers {
		o.Observe(batch)
	}

	ev := t.Evaluate(s.now())
	if ev.Skipped {
		log.Printf("TrackingService: %s has %d signals, not enough to analyze", batch.DeviceID, ev.Signals)
	}
	return ev
}

// ApplyCatalog validates and installs a new catalog, then persists it
func (s *TrackingService) ApplyCatalog(ctx context.Context, c models.AreaCatalog) error {
	if err := catalog.Validate(c); err != nil {
		return fmt.Errorf("rejected area catalog: %w", err)
	}

	s.registry.SetCatalog(c)

	if s.catalogStore != nil {
		if err := s.catalogStore.ReplaceCatalog(ctx, c); err != nil {
			return fmt.Errorf("catalog applied but not stored: %w", err)
		}
	}
	return nil
}

// HandleControl executes an operator command
func (s *TrackingService) HandleControl(ctrl *models.ControlMessage) {
	switch ctrl.Command {
	case models.CommandDisable:
		if _, ok := s.registry.Disable(ctrl.DeviceID); !ok {
			log.Printf("TrackingService: ignoring disable for unknown device %s", ctrl.DeviceID)
			return
		}
		log.Printf("TrackingService: disabled tracking for %s", ctrl.DeviceID)
	default:
		log.Printf("TrackingService: ignoring unknown command %q for %s", ctrl.Command, ctrl.DeviceID)
	}
}

// Sweep re-evaluates every device so windows age out when a scanner goes quiet
func (s *TrackingService) Sweep() {
	now := s.now()
	s.registry.Each(func(_ string, t *area.Tracker) {
		t.Evaluate(now)
	})
}
