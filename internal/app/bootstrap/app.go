package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/contractor-sms-triage/internal/api/router"
	appconfig "github.com/wolfman30/contractor-sms-triage/internal/config"
	"github.com/wolfman30/contractor-sms-triage/internal/conversations"
	"github.com/wolfman30/contractor-sms-triage/internal/messaging"
	"github.com/wolfman30/contractor-sms-triage/internal/observability/metrics"
	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// App is the fully wired webhook service.
type App struct {
	Handler   http.Handler
	Processor *triage.Processor
	stores    *Stores
	redis     *redis.Client
}

// Close releases pooled connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.stores.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// Build wires every component from config. awsCfg may be nil when no AWS
// service is configured. reg defaults to the Prometheus default registry.
func Build(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, reg *prometheus.Registry, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	m := metrics.NewTriageMetrics(registerer)

	stores, err := BuildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	redisClient := BuildRedisClient(ctx, cfg, logger, true)

	resp, err := BuildResponder(cfg, awsCfg, redisClient, m, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}
	notifier, err := BuildNotifier(cfg, awsCfg, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	processor := triage.NewProcessor(triage.ProcessorConfig{
		Projects:      stores.Projects,
		Conversations: stores.Conversations,
		Responder:     resp,
		Sender:        messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioAPIBaseURL, logger),
		Notifier:      notifier,
		Policy: triage.Policy{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			MinMessageLength:    cfg.MinMessageLength,
		},
		PreviewLength: cfg.NotifyPreviewLength,
		Metrics:       m,
		Logger:        logger,
	})

	webhookSecret := cfg.TwilioWebhookSecret
	if webhookSecret == "" {
		webhookSecret = cfg.TwilioAuthToken
	}

	checks := map[string]router.HealthCheck{}
	if stores.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return stores.Pool.Ping(ctx) }
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handler := router.New(&router.Config{
		Logger:               logger,
		MessagingHandler:     messaging.NewHandler(webhookSecret, cfg.PublicBaseURL, processor, m, logger).WithAccountTokens(stores.Projects),
		ConversationsHandler: conversations.NewHandler(stores.Conversations, logger),
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		HealthChecks:         checks,
	})

	return &App{
		Handler:   handler,
		Processor: processor,
		stores:    stores,
		redis:     redisClient,
	}, nil
}
