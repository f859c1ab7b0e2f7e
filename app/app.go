// Package app wires the curation desk together: persistence, cache,
// realtime broker, oracle, entity store, pipeline, review workflow,
// feed ingest, and the HTTP API, with graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"signal-desk/api"
	"signal-desk/cache"
	"signal-desk/config"
	"signal-desk/database"
	"signal-desk/eventlog"
	"signal-desk/feed"
	"signal-desk/models"
	"signal-desk/notifications"
	"signal-desk/oracle"
	"signal-desk/pipeline"
	"signal-desk/realtime"
	"signal-desk/review"
	"signal-desk/store"
)

// App represents the main application
type App struct {
	config *config.Config

	db           *database.Database
	eventArchive *database.EventArchive
	redis        *cache.RedisClient
	broker       *realtime.Broker
	events       *eventlog.Log
	store        *store.Store
	calibration  *pipeline.Calibration
	orchestrator *pipeline.Orchestrator
	review       *review.Manager
	feedManager  *feed.ConnectionManager
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start starts the application
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database Connection (optional; absence degrades to memory-only)
	fmt.Println("🗄️  Connecting to database...")
	var stateRepo *database.StateRepository
	var webhookRepo *database.WebhookRepository

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		log.Printf("⚠️  Database connection failed: %v. Running memory-only.", err)
	} else {
		a.db = db
		stateRepo = database.NewStateRepository(db)
		webhookRepo = database.NewWebhookRepository(db)
		if err := stateRepo.InitSchema(); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}

		archive, archiveErr := database.NewEventArchive(database.ArchiveConfig{
			Host:     a.config.DatabaseHost,
			Port:     a.config.DatabasePort,
			User:     a.config.DatabaseUser,
			Password: a.config.DatabasePassword,
			DBName:   a.config.DatabaseName,
		})
		if archiveErr != nil {
			log.Printf("⚠️  Event archive unavailable: %v", archiveErr)
		} else {
			a.eventArchive = archive
		}
	}

	// 2. Redis Connection (optional)
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}
	oracleCache := cache.NewOracleCache(a.redis,
		time.Duration(a.config.Curation.OracleCacheTTLMinutes)*time.Minute)

	// 3. Realtime Broker and Event Log
	a.broker = realtime.NewBroker()
	go a.broker.Run()

	var archiver eventlog.Archiver
	if a.eventArchive != nil {
		archiver = a.eventArchive
	}
	a.events = eventlog.New(a.broker, archiver)

	// 4. Oracle client
	if !a.config.Oracle.Enabled {
		log.Println("ℹ️  Oracle DISABLED; pipeline stages will fail until enabled")
	} else {
		log.Printf("✅ Oracle ENABLED (Model: %s)", a.config.Oracle.Model)
	}
	oracleClient := oracle.NewClient(
		a.config.Oracle.Endpoint,
		a.config.Oracle.APIKey,
		a.config.Oracle.Model,
	)

	// 5. Entity store: snapshot restore, seed fallback
	var initial *models.AppState
	if stateRepo != nil {
		restored, loadErr := stateRepo.LoadState()
		if loadErr != nil {
			log.Printf("⚠️  State restore failed, starting from seed: %v", loadErr)
		} else if restored != nil {
			initial = restored
			log.Printf("✅ Restored state: %d signals, %d drafts, %d stories",
				len(restored.Signals), len(restored.Drafts), len(restored.Stories))
		}
	}
	var persister store.Persister
	if stateRepo != nil {
		persister = stateRepo
	}
	a.store = store.New(initial, persister)

	// 6. Pipeline
	a.calibration = pipeline.NewCalibration(
		a.config.Curation.ImpactThreshold,
		a.config.Curation.CredibilityBias,
	)
	a.orchestrator = pipeline.NewOrchestrator(
		a.store,
		oracleClient,
		a.calibration,
		a.events,
		oracleCache,
		a.broker,
		a.config.Curation.PosterEnabled,
	)

	// 7. Review workflow with publish channel
	publisher := notifications.NewPublisher(webhookRepo, a.events)
	a.review = review.NewManager(a.store, oracleClient, a.events, publisher, a.broker)

	var wg sync.WaitGroup

	// 8. Feed ingest (optional)
	if a.config.Feed.Enabled {
		a.feedManager = feed.NewConnectionManager(
			a.config.Feed.URL,
			a.config.Feed.Token,
			a.orchestrator,
			a.events,
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.feedManager.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			a.feedManager.RunHealthMonitor(ctx)
		}()
	} else {
		log.Println("ℹ️  Feed ingest DISABLED")
	}

	// 9. API Server
	apiServer := api.NewServer(a.store, a.orchestrator, a.review, a.calibration, a.events, a.broker, webhookRepo)
	go func() {
		if err := apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	a.events.Appendf("[boot] signal desk online (config %s)", models.ConfigVersion)

	// 10. Wait for interrupt and perform graceful shutdown
	err = a.gracefulShutdown(cancel)
	wg.Wait()
	return err
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if a.feedManager != nil {
			fmt.Println("📡 Closing feed connection...")
			_ = a.feedManager.Close()
		}
		if a.eventArchive != nil {
			fmt.Println("🗃️  Closing event archive...")
			_ = a.eventArchive.Close()
		}
		if a.redis != nil {
			fmt.Println("🧠 Closing Redis connection...")
			_ = a.redis.Close()
		}
		if a.db != nil {
			fmt.Println("🗄️  Closing database connection...")
			_ = a.db.Close()
		}
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
