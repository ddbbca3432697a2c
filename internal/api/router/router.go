package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/contractor-sms-triage/internal/conversations"
	httpmiddleware "github.com/wolfman30/contractor-sms-triage/internal/http/middleware"
	"github.com/wolfman30/contractor-sms-triage/internal/messaging"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	MessagingHandler     *messaging.Handler
	ConversationsHandler *conversations.Handler
	AdminAuthSecret      string
	MetricsHandler       http.Handler
	HealthChecks         map[string]HealthCheck
	// AdminRateLimit is requests per second per operator; zero uses 5.
	AdminRateLimit float64
	AdminBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.MessagingHandler != nil {
			public.Post("/webhooks/sms", cfg.MessagingHandler.TwilioWebhook)
			public.Post("/messaging/twilio/webhook", cfg.MessagingHandler.TwilioWebhook)
		}
	})

	if cfg.ConversationsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Use(httpmiddleware.RateLimit(httpmiddleware.NewKeyLimiter(adminRate(cfg), adminBurst(cfg))))
			admin.Get("/projects/{projectID}/conversations", cfg.ConversationsHandler.ListByProject)
			admin.Get("/conversations/attention", cfg.ConversationsHandler.ListNeedingAttention)
		})
	}

	return r
}

func adminRate(cfg *Config) float64 {
	if cfg.AdminRateLimit > 0 {
		return cfg.AdminRateLimit
	}
	return 5
}

func adminBurst(cfg *Config) int {
	if cfg.AdminBurst > 0 {
		return cfg.AdminBurst
	}
	return 20
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
