package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"area-locator/internal/area"
	"area-locator/internal/models"
)

// AreaChangeSink receives area change events
type AreaChangeSink interface {
	PublishAreaChange(ctx context.Context, change *models.AreaChange) error
}

// SinkFunc adapts a function to AreaChangeSink
type SinkFunc func(ctx context.Context, change *models.AreaChange) error

func (f SinkFunc) PublishAreaChange(ctx context.Context, change *models.AreaChange) error {
	return f(ctx, change)
}

// DiagnosticsSink receives per-evaluation match counts
type DiagnosticsSink interface {
	PublishDiagnostics(ctx context.Context, diag *models.Diagnostics) error
}

type namedSink struct {
	name string
	sink AreaChangeSink
}

// EventServiceConfig holds configuration for the event service
type EventServiceConfig struct {
	ChannelSize int
	SinkTimeout time.Duration
}

// DefaultEventServiceConfig returns default configuration
func DefaultEventServiceConfig() EventServiceConfig {
	return EventServiceConfig{
		ChannelSize: 100,
		SinkTimeout: 5 * time.Second,
	}
}

// EventService turns tracker notifications into events and fans them out to sinks
type EventService struct {
	EventChan       chan *models.AreaChange
	DiagnosticsChan chan *models.Diagnostics

	sinks            []namedSink
	diagnosticsSinks []DiagnosticsSink
	sinkTimeout      time.Duration

	now   func() time.Time
	newID func() string
}

// NewEventService creates an event service without sinks
func NewEventService(config EventServiceConfig) *EventService {
	return &EventService{
		EventChan:       make(chan *models.AreaChange, config.ChannelSize),
		DiagnosticsChan: make(chan *models.Diagnostics, config.ChannelSize),
		sinkTimeout:     config.SinkTimeout,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// AddSink registers an area change sink. Call before Start.
func (s *EventService) AddSink(name string, sink AreaChangeSink) {
	s.sinks = append(s.sinks, namedSink{name: name, sink: sink})
}

// AddDiagnosticsSink registers a diagnostics sink. Call before Start.
func (s *EventService) AddDiagnosticsSink(sink DiagnosticsSink) {
	s.diagnosticsSinks = append(s.diagnosticsSinks, sink)
}

// Listener returns the tracker listener for a device
func (s *EventService) Listener(deviceID string) area.Listener {
	return &deviceListener{deviceID: deviceID, events: s}
}

// DiagnosticsListener returns nil when no diagnostics sink is registered, so
// trackers skip report formatting entirely
func (s *EventService) DiagnosticsListener(deviceID string) area.DiagnosticsListener {
	if len(s.diagnosticsSinks) == 0 {
		return nil
	}
	return &deviceListener{deviceID: deviceID, events: s}
}

// Start dispatches queued events until the context is cancelled
func (s *EventService) Start(ctx context.Context) {
	log.Println("EventService: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("EventService: Shutting down...")
			return

		case change := <-s.EventChan:
			s.dispatch(ctx, change)

		case diag := <-s.DiagnosticsChan:
			s.dispatchDiagnostics(ctx, diag)
		}
	}
}

func (s *EventService) dispatch(ctx context.Context, change *models.AreaChange) {
	for _, ns := range s.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
		if err := ns.sink.PublishAreaChange(sinkCtx, change); err != nil {
			log.Printf("EventService: %s sink failed for device %s: %v", ns.name, change.DeviceID, err)
		}
		cancel()
	}
}

func (s *EventService) dispatchDiagnostics(ctx context.Context, diag *models.Diagnostics) {
	for _, sink := range s.diagnosticsSinks {
		sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
		if err := sink.PublishDiagnostics(sinkCtx, diag); err != nil {
			log.Printf("EventService: diagnostics sink failed for device %s: %v", diag.DeviceID, err)
		}
		cancel()
	}
}

// enqueue never blocks: it runs while a tracker holds its lock
func (s *EventService) enqueue(change *models.AreaChange) {
	select {
	case s.EventChan <- change:
	default:
		log.Printf("Warning: Event channel full, dropping area change for %s", change.DeviceID)
	}
}

func (s *EventService) enqueueDiagnostics(diag *models.Diagnostics) {
	select {
	case s.DiagnosticsChan <- diag:
	default:
		log.Printf("Warning: Diagnostics channel full, dropping report for %s", diag.DeviceID)
	}
}

// deviceListener is called by exactly one tracker, always under its lock,
// so last needs no extra synchronization
type deviceListener struct {
	deviceID string
	events   *EventService
	last     string
}

func (l *deviceListener) AreaChanged(previous, current string) {
	l.last = current
	l.events.enqueue(&models.AreaChange{
		ID:           l.events.newID(),
		DeviceID:     l.deviceID,
		PreviousArea: previous,
		Area:         current,
		Timestamp:    l.events.now(),
	})
}

func (l *deviceListener) Disabled() {
	previous := l.last
	l.last = models.NoArea
	l.events.enqueue(&models.AreaChange{
		ID:           l.events.newID(),
		DeviceID:     l.deviceID,
		PreviousArea: previous,
		Area:         models.NoArea,
		Timestamp:    l.events.now(),
		Disabled:     true,
	})
}

func (l *deviceListener) Diagnostics(scores map[string]int, report string) {
	l.events.enqueueDiagnostics(&models.Diagnostics{
		DeviceID:  l.deviceID,
		Timestamp: l.events.now(),
		Scores:    scores,
		Report:    report,
	})
}
