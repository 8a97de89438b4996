package services

import (
	"context"
	"log"
	"time"

	"area-locator/internal/models"
)

// ObservationStore persists raw scan observations
type ObservationStore interface {
	SaveObservations(ctx context.Context, batches []*models.ScanBatch) error
}

// StorageServiceConfig holds configuration for the storage service
type StorageServiceConfig struct {
	BatchSize     int // rows buffered before a flush
	FlushInterval time.Duration
	ChannelSize   int
}

// DefaultStorageServiceConfig returns default configuration
func DefaultStorageServiceConfig() StorageServiceConfig {
	return StorageServiceConfig{
		BatchSize:     500,
		FlushInterval: 2 * time.Second,
		ChannelSize:   100,
	}
}

// StorageService buffers scan batches and writes them in blocks
type StorageService struct {
	store ObservationStore

	ObservationChan chan *models.ScanBatch

	batchSize     int
	flushInterval time.Duration

	pending     []*models.ScanBatch
	pendingRows int
}

// NewStorageService creates a new storage service
func NewStorageService(store ObservationStore, config StorageServiceConfig) *StorageService {
	return &StorageService{
		store:           store,
		ObservationChan: make(chan *models.ScanBatch, config.ChannelSize),
		batchSize:       config.BatchSize,
		flushInterval:   config.FlushInterval,
	}
}

// Record queues a batch without blocking the caller
func (s *StorageService) Record(batch *models.ScanBatch) {
	select {
	case s.ObservationChan <- batch:
	default:
		log.Printf("Warning: Observation channel full, dropping batch from %s", batch.DeviceID)
	}
}

// Start writes queued batches until the context is cancelled, then flushes
// what is left
func (s *StorageService) Start(ctx context.Context) {
	log.Println("StorageService: Starting...")

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("StorageService: Shutting down...")
			s.drain()
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx)
			cancel()
			log.Println("StorageService: Shutdown complete")
			return

		case batch := <-s.ObservationChan:
			s.add(batch)
			if s.pendingRows >= s.batchSize {
				s.flush(ctx)
			}

		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

// drain moves batches still queued into the pending buffer
func (s *StorageService) drain() {
	for {
		select {
		case batch := <-s.ObservationChan:
			s.add(batch)
		default:
			return
		}
	}
}

func (s *StorageService) add(batch *models.ScanBatch) {
	s.pending = append(s.pending, batch)
	s.pendingRows += len(batch.Observations)
}

func (s *StorageService) flush(ctx context.Context) {
	if len(s.pending) == 0 {
		return
	}

	if err := s.store.SaveObservations(ctx, s.pending); err != nil {
		log.Printf("Error saving %d observations: %v", s.pendingRows, err)
	} else {
		log.Printf("Saved %d observations from %d batches", s.pendingRows, len(s.pending))
	}

	s.pending = nil
	s.pendingRows = 0
}
