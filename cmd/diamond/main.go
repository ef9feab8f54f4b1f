package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/api/rest"
	"github.com/fortuna/diamond/internal/api/websocket"
	"github.com/fortuna/diamond/internal/app"
	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/logging"
	"github.com/fortuna/diamond/internal/publisher"
	"github.com/fortuna/diamond/internal/scheduler"
	"github.com/fortuna/diamond/internal/service"
	"github.com/fortuna/diamond/internal/sink"
	"github.com/fortuna/diamond/internal/store/repository"
)

const (
	serviceName    = "diamond"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog.Close()

	log.Infof("Starting %s v%s - MLB stats scraper service", serviceName, serviceVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := app.OpenDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	redisCache, err := app.OpenRedis(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	var (
		pageCache ingest.PageCache
		pub       publisher.Publisher
		checks    = map[string]service.Checker{"database": db}
	)
	if redisCache != nil {
		defer redisCache.Close()
		pageCache = redisCache
		pub = publisher.NewRedisStreamPublisher(redisCache.Client())
		checks["redis"] = redisCache
		log.Info("✓ Redis page cache and scrape stream enabled")
	}

	registry := batch.DefaultRegistry(app.NewSources(cfg, pageCache, log))

	wsServer := websocket.NewServer(log)

	runner := batch.NewRunner(batch.RunnerOptions{
		Registry:  registry,
		Sink:      sink.New(repository.NewRecordRepository(db), log),
		CSV:       &sink.CSVWriter{Dir: cfg.CSVDir},
		Publisher: pub,
		Delay:     cfg.SubjectDelay,
		Log:       log,
	})
	jobs := batch.NewService(db, batch.ServiceOptions{
		Runner:   runner,
		Registry: registry,
		Catalog:  cfg.Catalog,
		Notifier: wsServer,
		Log:      log,
	})
	jobs.Start()
	log.Info("✓ Scrape job worker started")

	sched, err := scheduler.NewOrchestrator(jobs, &scheduler.Config{
		Spec: cfg.RefreshCron,
		Jobs: cfg.Catalog.Jobs,
	}, log)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	go sched.Start(ctx)
	log.Info("✓ Scheduler started")

	handler := rest.NewHandler(service.NewRecordService(db), service.NewHealthService(checks))
	restServer := rest.NewServer(cfg.RESTPort, handler, rest.NewScrapeHandler(jobs, registry.Names()), log)
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("REST server error: %v", err)
		}
	}()
	log.Infof("✓ REST API server listening on :%s", cfg.RESTPort)

	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WebSocket server error: %v", err)
		}
	}()

	log.Infof("✓ Diamond v%s started successfully", serviceVersion)
	log.Infof("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Infof("  WebSocket: ws://0.0.0.0:%s/ws/jobs", cfg.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down Diamond gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("WebSocket server shutdown error: %v", err)
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Job worker shutdown error: %v", err)
	}

	log.Info("Diamond stopped")
}
