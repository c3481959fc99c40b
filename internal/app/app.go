// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	"github.com/garyellow/whattoeat-linebot/internal/bot"
	"github.com/garyellow/whattoeat-linebot/internal/buildinfo"
	"github.com/garyellow/whattoeat-linebot/internal/config"
	"github.com/garyellow/whattoeat-linebot/internal/imagesearch"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
	"github.com/garyellow/whattoeat-linebot/internal/modules/restaurant"
	"github.com/garyellow/whattoeat-linebot/internal/nlu"
	"github.com/garyellow/whattoeat-linebot/internal/places"
	"github.com/garyellow/whattoeat-linebot/internal/sentry"
	"github.com/garyellow/whattoeat-linebot/internal/storage"
	"github.com/garyellow/whattoeat-linebot/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	db             *storage.DB
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	classifier     *nlu.FallbackClassifier
	webhookHandler *webhook.Handler
	server         *http.Server
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:            cfg.LogLevel,
		BetterStackToken: cfg.BetterStackToken,
	})

	log = log.WithField("service", "whattoeat-linebot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	if buildinfo.Version != "" {
		log = log.WithField("version", buildinfo.Version)
	}
	if buildinfo.Commit != "" {
		log = log.WithField("commit", buildinfo.Commit)
	}

	// Package-level slog.*Context() calls go through the ContextHandler too.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackEnabled() {
		log.Info("Better Stack logging enabled")
	}

	release := cfg.SentryRelease
	if release == "" {
		release = buildinfo.Version
	}
	if err := sentry.Initialize(sentry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		Release:          release,
		SampleRate:       cfg.SentrySampleRate,
		TracesSampleRate: cfg.SentryTracesSampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("cache_ttl", cfg.CacheTTL).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	classifier, err := nlu.NewClassifier(ctx, buildNLUConfig(cfg, log), m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("nlu: %w", err)
	}
	log.WithField("primary", string(classifier.Provider())).
		WithField("chain_length", classifier.Len()).
		Info("Intent classifier ready")

	placesClient := places.NewClient(apiclient.NewClient(apiclient.Config{
		Service:    "places",
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.APIMaxRetries,
	}, m), cfg.GoogleAPIKey, "")

	imageClient := imagesearch.NewClient(apiclient.NewClient(apiclient.Config{
		Service:    "imagesearch",
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.APIMaxRetries,
	}, m), cfg.GoogleAPIKey, cfg.SearchEngineID, "", db, m)

	restaurantHandler := restaurant.NewHandler(placesClient, imageClient, m, log, cfg.Bot)

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Classifier:  classifier,
		Restaurants: restaurantHandler,
		Logger:      log,
		Metrics:     m,
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Processor:     processor,
	})
	if err != nil {
		_ = classifier.Close()
		_ = db.Close()
		return nil, fmt.Errorf("webhook: %w", err)
	}

	app := &Application{
		cfg:            cfg,
		logger:         log,
		db:             db,
		metrics:        m,
		registry:       registry,
		classifier:     classifier,
		webhookHandler: webhookHandler,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	app.registerRoutes(router)

	app.server = &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// buildNLUConfig maps application config onto the classifier chain config.
func buildNLUConfig(cfg *config.Config, log *logger.Logger) nlu.Config {
	providers := make([]nlu.Provider, 0, len(cfg.NLUProviders))
	for _, name := range cfg.NLUProviders {
		p, ok := nlu.ParseProvider(name)
		if !ok {
			log.WithField("name", name).Warn("Ignoring unknown NLU provider")
			continue
		}
		providers = append(providers, p)
	}

	return nlu.Config{
		Providers:         providers,
		DialogflowToken:   cfg.DialogflowClientToken,
		DialogflowBaseURL: cfg.DialogflowBaseURL,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModels:      cfg.GeminiIntentModels,
		GroqAPIKey:        cfg.GroqAPIKey,
		GroqModels:        cfg.GroqIntentModels,
		Timeout:           cfg.APITimeout,
	}
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT/SIGTERM.
//
// Background jobs are stopped and awaited before any resource is closed so
// a running cleanup never hits a closed database.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives the error if the listener fails.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", a.server.Addr).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown closes everything in dependency order:
// HTTP server, in-flight webhook events, classifier, database, Sentry, logger.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
		errs = append(errs, fmt.Errorf("webhook: %w", err))
	}

	a.logger.Info("Closing resources...")

	if err := a.classifier.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "classifier").Error("Component close error")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Logger shutdown timed out", "error", err)
	}

	return errors.Join(errs...)
}
