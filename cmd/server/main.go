package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"area-locator/internal/aggregator"
	"area-locator/internal/api"
	"area-locator/internal/catalog"
	"area-locator/internal/database"
	"area-locator/internal/events"
	"area-locator/internal/models"
	"area-locator/internal/mqtt"
	"area-locator/internal/services"
	"area-locator/pkg/config"
)

func main() {
	log.Println("Starting Area Locator Service...")

	// Load configuration
	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Storage (optional) ===
	var db *database.ClickHouseDB
	if cfg.StorageEnabled {
		var err error
		db, err = database.NewClickHouseDB(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
		)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		defer db.Close()
	} else {
		log.Println("Storage disabled, observations and transitions are not persisted")
	}

	// === MQTT ===
	log.Println("Connecting to MQTT broker...")
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		Broker:      cfg.MQTTBroker,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		StatusTopic: cfg.MQTTTopicStatus,
	})
	if err != nil {
		log.Fatalf("Failed to initialize MQTT client: %v", err)
	}
	defer mqttClient.Close()

	publisher := mqtt.NewPublisher(mqttClient.GetNativeClient(), mqtt.PublisherConfig{
		AreaTopic:        cfg.MQTTTopicArea,
		DiagnosticsTopic: cfg.MQTTTopicDiagnostics,
	})

	// === Event fan-out ===
	eventService := services.NewEventService(services.DefaultEventServiceConfig())
	eventService.AddSink("mqtt", publisher)
	if publisher.DiagnosticsEnabled() {
		eventService.AddDiagnosticsSink(publisher)
	}
	if db != nil {
		eventService.AddSink("clickhouse", services.SinkFunc(db.SaveAreaTransition))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopicArea)
		defer kafkaSink.Close()
		eventService.AddSink("kafka", kafkaSink)
	}

	// === Trackers ===
	registry := aggregator.NewRegistry(cfg.TrackerConfig(), eventService.Listener, eventService.DiagnosticsListener)
	registry.SetCatalog(initialCatalog(ctx, cfg, db))

	var recorder services.ObservationRecorder
	var catalogStore services.CatalogStore
	var storageService *services.StorageService
	if db != nil {
		storageService = services.NewStorageService(db, services.StorageServiceConfig{
			BatchSize:     cfg.StorageBatchSize,
			FlushInterval: cfg.StorageFlushInterval,
			ChannelSize:   100,
		})
		recorder = storageService
		catalogStore = db
	}

	trackingService := services.NewTrackingService(registry, recorder, catalogStore, services.TrackingServiceConfig{
		SweepInterval: cfg.SweepInterval,
		ChannelSize:   100,
	})

	// === Emitter drift and hotspot following ===
	drift := aggregator.NewDriftDetector(registry, cfg.DriftConfig())
	hotspot := aggregator.NewHotspot(cfg.HotspotConfig())
	trackingService.AddObserver(hotspot)

	// === MQTT subscriber feeds the tracking service ===
	subscriber := mqtt.NewSubscriber(
		mqttClient.GetNativeClient(),
		mqtt.SubscriberConfig{
			WiFiTopic:    cfg.MQTTTopicWiFi,
			BLETopic:     cfg.MQTTTopicBLE,
			CatalogTopic: cfg.MQTTTopicCatalog,
			ControlTopic: cfg.MQTTTopicControl,
		},
		trackingService.ScanChan,
		trackingService.CatalogChan,
		trackingService.ControlChan,
	)

	go eventService.Start(ctx)
	if storageService != nil {
		go storageService.Start(ctx)
	}
	go trackingService.Start(ctx)

	if err := subscriber.SubscribeAll(); err != nil {
		log.Fatalf("Failed to subscribe to MQTT topics: %v", err)
	}
	mqttClient.OnReconnect(func() {
		if err := subscriber.SubscribeAll(); err != nil {
			log.Printf("Error: resubscribe after reconnect failed: %v", err)
		}
	})

	// === HTTP API ===
	apiServer := api.NewServer(registry, trackingService, drift, hotspot)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, apiServer.NewRouter()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Println("=== Area Locator Service is running ===")
	log.Printf("Tracking: max scan age=%v, min signals=%d, sweep=%v",
		cfg.MaxScanAge, cfg.MinSignalsToAnalyze, cfg.SweepInterval)
	log.Printf("MQTT Topics:")
	log.Printf("  - Wi-Fi scans:  %s", cfg.MQTTTopicWiFi)
	log.Printf("  - BLE scans:    %s", cfg.MQTTTopicBLE)
	log.Printf("  - Catalog:      %s", cfg.MQTTTopicCatalog)
	log.Printf("  - Control:      %s", cfg.MQTTTopicControl)
	log.Printf("  - Area events:  %s", cfg.MQTTTopicArea)
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	cancel()

	// Give services time to finish processing
	time.Sleep(2 * time.Second)

	log.Println("Shutdown complete. Goodbye!")
}

// initialCatalog prefers the catalog file and falls back to stored definitions
func initialCatalog(ctx context.Context, cfg *config.Config, db *database.ClickHouseDB) models.AreaCatalog {
	var store catalog.Store
	if db != nil {
		store = db
	}

	c, src := catalog.Initial(ctx, cfg.AreaCatalogPath, store)
	if src == catalog.SourceNone {
		log.Println("No area catalog available yet, waiting for one on MQTT or HTTP")
	}
	return c
}
