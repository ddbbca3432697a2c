package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/contractor-sms-triage/internal/observability/metrics"
	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

var twilioTracer = otel.Tracer("contractor.internal.messaging.twilio")

type inboundProcessor interface {
	Process(ctx context.Context, msg triage.InboundMessage) (triage.Outcome, error)
}

// AccountTokenLookup resolves the auth token Twilio signs an account's
// webhooks with. It returns "" for accounts it does not know.
type AccountTokenLookup interface {
	TwilioAuthToken(ctx context.Context, accountSID string) (string, error)
}

// Handler handles inbound messaging webhook requests.
type Handler struct {
	webhookSecret string
	accountTokens AccountTokenLookup
	publicBaseURL string
	processor     inboundProcessor
	metrics       *metrics.TriageMetrics
	logger        *logging.Logger
}

// NewHandler creates a new messaging handler. An empty webhookSecret disables
// signature validation. publicBaseURL overrides the host used when
// reconstructing the signed URL behind proxies.
func NewHandler(webhookSecret, publicBaseURL string, processor inboundProcessor, m *metrics.TriageMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if processor == nil {
		panic("messaging: processor cannot be nil")
	}
	return &Handler{
		webhookSecret: webhookSecret,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		processor:     processor,
		metrics:       m,
		logger:        logger.Component("messaging"),
	}
}

// WithAccountTokens validates webhooks from contractor-owned Twilio accounts
// with that account's token instead of the service secret.
func (h *Handler) WithAccountTokens(lookup AccountTokenLookup) *Handler {
	h.accountTokens = lookup
	return h
}

// TwilioWebhook handles POST /webhooks/sms requests.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	started := time.Now()
	status := "ok"
	defer func() {
		h.metrics.ObserveWebhookLatency(status, time.Since(started).Seconds())
	}()

	secret, err := h.signingSecret(ctx, r)
	if err != nil {
		status = "error"
		h.logger.Error("failed to resolve webhook signing token", "error", err)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if secret != "" {
		if !ValidateTwilioSignature(r, secret, h.webhookURL(r)) {
			status = "unauthorized"
			h.logger.Warn("invalid twilio signature")
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		status = "bad_request"
		h.logger.Error("failed to parse twilio webhook", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if triage.StripChannelPrefix(webhook.From) == "" {
		status = "bad_request"
		err := errors.New("missing From")
		h.logger.Error("invalid twilio payload", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	msg := webhook.InboundMessage()
	span.SetAttributes(
		attribute.String("contractor.twilio.message_sid", webhook.MessageSid),
		attribute.String("contractor.channel", string(msg.Channel)),
	)

	outcome, err := h.processor.Process(ctx, msg)
	if err != nil {
		status = "error"
		h.logger.Error("inbound message processing failed",
			"error", err,
			"message_sid", webhook.MessageSid,
			"from", triage.MaskPhone(msg.From),
			"reason", outcome.Reason,
		)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("inbound message handled",
		"message_sid", webhook.MessageSid,
		"channel", msg.Channel,
		"intent", outcome.Intent,
		"handled_by", outcome.HandledBy,
		"reason", outcome.Reason,
	)
	writeTwiMLAck(w)
}

// signingSecret prefers the token of the contractor owning AccountSid and
// falls back to the service secret.
func (h *Handler) signingSecret(ctx context.Context, r *http.Request) (string, error) {
	if h.accountTokens == nil {
		return h.webhookSecret, nil
	}
	if err := r.ParseForm(); err != nil {
		// Let the signature check and parser reject it.
		return h.webhookSecret, nil
	}
	accountSID := strings.TrimSpace(r.PostFormValue("AccountSid"))
	if accountSID == "" {
		return h.webhookSecret, nil
	}
	token, err := h.accountTokens.TwilioAuthToken(ctx, accountSID)
	if err != nil {
		return "", fmt.Errorf("messaging: resolve signing token: %w", err)
	}
	if token == "" {
		return h.webhookSecret, nil
	}
	return token, nil
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.publicBaseURL != "" && r.URL != nil {
		return h.publicBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
