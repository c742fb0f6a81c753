package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ride/internal/app"
	"ride/internal/config"
	"ride/internal/eventbus"
	"ride/internal/geo"
	"ride/internal/handler"
	"ride/internal/psp"
	internalRedis "ride/internal/redis"
	"ride/internal/repository/postgres"
	"ride/internal/service"
	"ride/internal/worker"
)

const geoWriterQueueDepth = 1024

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	wired := wireServer(db, redisClient, nrApp, cfg)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go wired.geoWriter.Run(workerCtx)
	go wired.eventHub.Run()
	go wired.dispatchWorker.Run(workerCtx)
	go wired.outboxWorker.Run(workerCtx)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := wired.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopWorkers()
	wired.eventHub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := wired.server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wiredServer bundles the HTTP server with the background components that
// share its lifetime, so main can start and stop them together.
type wiredServer struct {
	server         *http.Server
	geoWriter      *geo.Writer
	eventHub       *eventbus.Hub
	dispatchWorker *worker.DispatchWorker
	outboxWorker   *worker.OutboxWorker
}

// wireServer wires all dependencies and returns the HTTP server plus the
// background components main.go is responsible for running.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *wiredServer {
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	geoIndex := geo.NewIndex(redisClient)
	geoWriter := geo.NewWriter(driverRepo, geoWriterQueueDepth)

	bus := eventbus.NewBus()
	eventHub := eventbus.NewHub(bus)

	pspClient := psp.NewMockClient()

	notificationService := service.NewNotificationService()
	matchingService := service.NewMatchingService(geoIndex, cfg.Match.RadiusKm, cfg.Match.Limit)
	rideService := service.NewRideService(rideRepo, geoIndex, notificationService, bus, cfg.Match.RadiusKm, cfg.Match.Limit)
	driverService := service.NewDriverService(db, driverRepo, geoIndex, geoWriter, bus, cacheStore)
	assignmentService := service.NewAssignmentService(db, geoIndex, bus, lockStore)
	paymentService := service.NewPaymentService(db, paymentRepo, outboxRepo, tripRepo, rideRepo, notificationService, bus)
	tripService := service.NewTripService(db, tripRepo, rideRepo, driverRepo, paymentService, notificationService, bus)
	receiptService := service.NewReceiptService(tripRepo, rideRepo, paymentRepo, notificationService, bus)

	userHandler := handler.NewUserHandler(userRepo)
	rideHandler := handler.NewRideHandler(rideService)
	driverHandler := handler.NewDriverHandler(driverService, assignmentService)
	tripHandler := handler.NewTripHandler(tripService, receiptService)
	paymentHandler := handler.NewPaymentHandler(paymentService, cfg.PSP.WebhookSecret)

	router := app.NewRouter(app.RouterDeps{
		UserHandler:    userHandler,
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		TripHandler:    tripHandler,
		PaymentHandler: paymentHandler,
		EventHub:       eventHub,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	dispatchWorker := worker.NewDispatchWorker(db, rideRepo, driverRepo, matchingService, assignmentService, notificationService, bus, cacheStore, cfg.Dispatch)
	outboxWorker := worker.NewOutboxWorker(db, outboxRepo, paymentRepo, tripRepo, rideRepo, pspClient, notificationService, bus, cfg.Outbox)

	return &wiredServer{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		geoWriter:      geoWriter,
		eventHub:       eventHub,
		dispatchWorker: dispatchWorker,
		outboxWorker:   outboxWorker,
	}
}
