package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafe-gateway/config"
	"cafe-gateway/database"
	"cafe-gateway/internal/auth"
	"cafe-gateway/internal/cancel"
	"cafe-gateway/internal/gateway"
	"cafe-gateway/internal/outbox"
	"cafe-gateway/internal/qr"
	"cafe-gateway/internal/report"
	"cafe-gateway/internal/snapshot"
	"cafe-gateway/internal/upstream"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const snapshotTTL = 10 * time.Minute

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	// Typed upstream clients for the orchestration and report layers.
	orderSvc := upstream.NewOrderService(cfg.OrderSvcURL, httpClient)
	kitchenSvc := upstream.NewKitchenService(cfg.KitchenSvcURL, httpClient)
	menuSvc := upstream.NewMenuService(cfg.MenuSvcURL, httpClient)
	inventorySvc := upstream.NewInventoryService(cfg.InventorySvcURL, httpClient)
	reportSvc := upstream.NewReportService(cfg.ReportSvcURL, httpClient)
	webhook := upstream.NewWebhookNotifier(cfg.WebhookURL, httpClient)

	// Outbox store: Postgres when reachable, in-memory otherwise so the
	// gateway still works without its own database in development.
	var store outbox.Store = outbox.NewMemoryStore()
	if db, err := database.Connect(cfg.DBURL); err != nil {
		logrus.WithError(err).Warn("database unreachable, using in-memory outbox")
	} else {
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			logrus.Fatalf("failed to run migrations: %v", err)
		}
		store = outbox.NewPostgresStore(db)
	}

	// Kafka lifecycle event mirror.
	kafkaWriter := cfg.NewKafkaWriter()
	defer kafkaWriter.Close()
	events := outbox.NewEventPublisher(kafkaWriter)

	// Redis-backed kitchen snapshot for report fallbacks.
	redisClient := cfg.MustInitRedis()
	defer redisClient.Close()
	snapshots := snapshot.NewStore(redisClient, snapshotTTL)

	orchestrator := cancel.NewOrchestrator(orderSvc, store, events)
	recovery := cancel.NewRecovery(orderSvc)
	reports := report.NewService(kitchenSvc, menuSvc, inventorySvc, reportSvc, snapshots)

	executor := cancel.NewExecutor(kitchenSvc, webhook)
	worker := outbox.NewWorker(store, executor.Execute)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	gw := gateway.NewGateway(gateway.Upstreams{
		Order:     cfg.OrderSvcURL,
		Kitchen:   cfg.KitchenSvcURL,
		Menu:      cfg.MenuSvcURL,
		Inventory: cfg.InventorySvcURL,
		Report:    cfg.ReportSvcURL,
		User:      cfg.UserSvcURL,
		Car:       cfg.CarSvcURL,
	}, httpClient)
	gw.SetStreamClient(&http.Client{})

	handler := gateway.NewHandler(
		gw,
		orchestrator,
		recovery,
		reports,
		store,
		qr.DefaultGenerator{BaseURL: "http://localhost:" + cfg.AppPort},
		auth.NewVerifier(cfg.JWTSecret),
		cfg.PublicDir,
	)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:" + cfg.AppPort, "http://127.0.0.1:" + cfg.AppPort, "*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           c.Handler(handler.SetupRoutes()),
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.AppPort).Info("gateway starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	stopWorker()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
