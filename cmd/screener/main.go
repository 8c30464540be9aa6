package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ufsoft/screener/app/controllers"
	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/cache"
	"github.com/ufsoft/screener/internal/pkg/config"
	"github.com/ufsoft/screener/internal/pkg/database"
	"github.com/ufsoft/screener/internal/pkg/env"
	"github.com/ufsoft/screener/internal/pkg/hcaptcha"
	"github.com/ufsoft/screener/internal/pkg/imageprocessor"
	"github.com/ufsoft/screener/internal/pkg/ingestion"
	"github.com/ufsoft/screener/internal/pkg/mail"
	"github.com/ufsoft/screener/internal/pkg/metrics"
	"github.com/ufsoft/screener/internal/pkg/metrics/counter"
	"github.com/ufsoft/screener/internal/pkg/router"
	"github.com/ufsoft/screener/internal/pkg/session"
	"github.com/ufsoft/screener/internal/pkg/statistics"
	"github.com/ufsoft/screener/internal/pkg/storage"
	"github.com/ufsoft/screener/internal/pkg/visibility"
)

const (
	healthInterval    = time.Minute
	viewFlushInterval = 30 * time.Second
	// multipart overhead on top of the largest accepted image
	bodyLimitSlack = 1 << 20
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cfg, cleanup, err := NewApplication(ctx)
	if err != nil {
		log.Fatalf("[Screener] %v", err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		log.Info("[Screener] Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[Screener] Shutdown failed: %v", err)
		}
	}()

	if err := app.Listen(cfg.ListenAddr()); err != nil {
		log.Fatalf("[Screener] %v", err)
	}
}

// NewApplication builds the fiber app with every service wired. cleanup
// stops the background workers.
func NewApplication(ctx context.Context) (*fiber.App, *config.Config, func(), error) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configuration: %w", err)
	}
	if cfg.IsDev() {
		log.SetLevel(log.LevelDebug)
	}

	db, err := database.SetupDatabase(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	rdb := cache.SetupCache(ctx, cfg.Cache)
	session.NewSessionStore(cfg)

	manager, err := storage.NewManagerFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("storage: %w", err)
	}
	health := storage.NewHealthMonitor(manager, healthInterval)
	health.Start()

	var watermarker *imageprocessor.Watermarker
	if cfg.Watermark.Font != "" {
		watermarker, err = imageprocessor.NewWatermarker(cfg.Watermark.Font)
		if err != nil {
			health.Stop()
			return nil, nil, nil, fmt.Errorf("watermark font: %w", err)
		}
	}

	repos := repository.InitializeFactory(db)
	views := counter.NewViewCounter(rdb, repos.Image)
	workers, cancelWorkers := context.WithCancel(ctx)
	go views.Run(workers, viewFlushInterval)

	deps := &controllers.Dependencies{
		Config:  cfg,
		Repos:   repos,
		Storage: manager,
		Health:  health,
		Pipeline: ingestion.NewPipeline(repos, manager, ingestion.Config{
			MaxSize:              cfg.Upload.MaxSize,
			Watermarker:          watermarker,
			DefaultWatermarkText: cfg.Watermark.Text,
			WatermarkOptional:    cfg.Watermark.Optional,
		}),
		Remover:    ingestion.NewRemover(repos, manager),
		Policy:     visibility.Policy{AdminSeesPrivate: cfg.Visibility.AdminSeesPrivate},
		Views:      views,
		Statistics: statistics.NewCollector(db),
		DiskUsage:  statistics.NewDiskUsage(repos.Image, repos.User, manager),
		Notifier:   mail.NewNotifier(mail.NewMailer(cfg.SMTP), cfg.App.BaseURL),
		Captcha:    hcaptcha.NewVerifier(cfg.HCaptcha),
	}

	app := fiber.New(fiber.Config{
		AppName:   "Screener",
		BodyLimit: int(cfg.Upload.MaxSize) + bodyLimitSlack,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New(), metrics.Middleware())

	// prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, deps)

	cleanup := func() {
		cancelWorkers()
		health.Stop()
	}
	return app, cfg, cleanup, nil
}
