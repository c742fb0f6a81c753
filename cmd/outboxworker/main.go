// Command outboxworker runs the Outbox Worker as a standalone
// process, independent of the HTTP server, so PSP charge throughput can be
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
	"ride/internal/psp"
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

	outboxRepo := postgres.NewOutboxRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	pspClient := psp.NewMockClient()
	bus := eventbus.NewBus()
	notificationService := service.NewNotificationService()

	outboxWorker := worker.NewOutboxWorker(db, outboxRepo, paymentRepo, tripRepo, rideRepo, pspClient, notificationService, bus, cfg.Outbox)

	runCtx, stop := context.WithCancel(context.Background())
	go outboxWorker.Run(runCtx)
	log.Println("outbox worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("outbox worker shutting down")
	stop()
}
