package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/api"
	"ac-maintenance-backend/internal/audit"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/ledger"
	"ac-maintenance-backend/internal/scheduler"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatalf("failed to load configuration from %s", configPath)
	}
	logrus.Infof("configuration loaded from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	auditWorker := audit.NewWorker(cfg.Audit.QueueSize, cfg.Audit.Workers, appStore)
	auditWorker.Start(ctx)
	logrus.WithField("workers", cfg.Audit.Workers).Info("audit sink started")

	wf := workflow.New(appStore, auditWorker)
	ldg := ledger.New(appStore, auditWorker)
	sched := scheduler.New(appStore, wf, auditWorker)

	handler := api.NewHandler(appStore, wf, ldg, sched, cfg.Maintenance.DefaultHorizonDays)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("HTTP server shutdown")
	}

	logrus.Info("server gracefully stopped")
}
