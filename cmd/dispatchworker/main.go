// Command dispatchworker runs the Dispatch Worker as a standalone
// process, independent of the HTTP server, so matching throughput can be
// scaled separately from request handling.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ride/internal/app"
	"ride/internal/config"
	"ride/internal/eventbus"
	"ride/internal/geo"
	internalRedis "ride/internal/redis"
	"ride/internal/repository/postgres"
	"ride/internal/service"
	"ride/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nil)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	geoIndex := geo.NewIndex(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	bus := eventbus.NewBus()

	notificationService := service.NewNotificationService()
	matchingService := service.NewMatchingService(geoIndex, cfg.Match.RadiusKm, cfg.Match.Limit)
	assignmentService := service.NewAssignmentService(db, geoIndex, bus, lockStore)

	dispatchWorker := worker.NewDispatchWorker(db, rideRepo, driverRepo, matchingService, assignmentService, notificationService, bus, cacheStore, cfg.Dispatch)

	runCtx, stop := context.WithCancel(context.Background())
	go dispatchWorker.Run(runCtx)
	log.Println("dispatch worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("dispatch worker shutting down")
	stop()
}
