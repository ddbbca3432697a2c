package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

var twilioSendTracer = otel.Tracer("contractor.internal.messaging.twilio_send")

const defaultTwilioAPIBaseURL = "https://api.twilio.com"

// ErrMissingCredentials is returned when neither the reply nor the sender carries credentials.
var ErrMissingCredentials = errors.New("messaging: twilio credentials missing")

// TwilioSender posts SMS and WhatsApp messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender. The account credentials are defaults used
// when a contractor profile carries none of its own.
func NewTwilioSender(accountSID, authToken, baseURL string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultTwilioAPIBaseURL
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Component("twilio_sender"),
	}
}

var _ triage.ReplySender = (*TwilioSender)(nil)

// SendReply dispatches a single message. There is no retry.
func (s *TwilioSender) SendReply(ctx context.Context, msg triage.OutboundReply) error {
	accountSID, authToken := s.accountSID, s.authToken
	if msg.Credentials.AccountSID != "" && msg.Credentials.AuthToken != "" {
		accountSID, authToken = msg.Credentials.AccountSID, msg.Credentials.AuthToken
	}
	if accountSID == "" || authToken == "" {
		return ErrMissingCredentials
	}
	if NormalizeE164(triage.StripChannelPrefix(msg.To)) == "" {
		return errors.New("messaging: to required")
	}
	if triage.StripChannelPrefix(msg.From) == "" {
		return errors.New("messaging: from required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("contractor.channel", string(msg.Channel)),
		attribute.String("contractor.to", triage.MaskPhone(msg.To)),
	)

	payload := url.Values{}
	payload.Set("To", msg.To)
	payload.Set("From", msg.From)
	payload.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: build twilio request: %w", err)
	}
	req.SetBasicAuth(accountSID, authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: twilio send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
		span.RecordError(err)
		return err
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &parsed)
	s.logger.Info("twilio message sent", "channel", msg.Channel, "to", triage.MaskPhone(msg.To), "sid", parsed.SID, "status", parsed.Status)
	return nil
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
