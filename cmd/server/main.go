package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DPT73/urban-art-project/internal/audit"
	"github.com/DPT73/urban-art-project/internal/checkout"
	"github.com/DPT73/urban-art-project/internal/config"
	"github.com/DPT73/urban-art-project/internal/httpapi"
	"github.com/DPT73/urban-art-project/internal/ratelimit"
	"github.com/DPT73/urban-art-project/internal/webhook"
	"github.com/DPT73/urban-art-project/pkg/logger"
	"github.com/DPT73/urban-art-project/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if _, err := logger.Init(logger.Config{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
	}); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}

	var processor checkout.Processor = unconfiguredProcessor{}
	if cfg.StripeSecretKey != "" {
		processor = checkout.NewStripeProcessor(cfg.StripeSecretKey)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, checkout is disabled")
	}

	service := checkout.NewService(processor, cfg.BaseURL, cfg.AllowedCountries)
	checkoutHandler := httpapi.NewCheckoutHandler(service, cfg.StripePublishableKey)

	// Webhook outcomes always land in the log; Kafka is an optional
	// second destination for downstream consumers.
	var recorder webhook.Recorder = audit.LogRecorder{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaRecorder := audit.NewKafkaRecorder(cfg.KafkaBrokers...)
		defer kafkaRecorder.Close()
		recorder = audit.MultiRecorder{audit.LogRecorder{}, kafkaRecorder}
		slog.Info("publishing payment events to kafka", "brokers", cfg.KafkaBrokers)
	}
	webhookHandler := httpapi.NewWebhookHandler(webhook.NewProcessor(cfg.StripeWebhookSecret, recorder))

	limiter := ratelimit.NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	defer limiter.Close()

	router := httpapi.NewRouter(checkoutHandler, webhookHandler, limiter, httpapi.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		StaticFiles:    web.Files,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "http.server"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

// unconfiguredProcessor stands in when no Stripe key is configured so
// the rest of the surface still serves.
type unconfiguredProcessor struct{}

func (unconfiguredProcessor) CreateSession(ctx context.Context, req *checkout.SessionRequest) (*checkout.Session, error) {
	return nil, checkout.ErrProcessorUnconfigured
}

func (unconfiguredProcessor) GetSession(ctx context.Context, id string) (*checkout.Session, error) {
	return nil, checkout.ErrProcessorUnconfigured
}
