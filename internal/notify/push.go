package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

const defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// PushMessage is one notification fanned out to every device token.
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// PushSender delivers mobile push notifications.
type PushSender interface {
	Push(ctx context.Context, msg PushMessage) error
}

type expoMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExpoPushSender posts to the Expo push service.
type ExpoPushSender struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *logging.Logger
}

func NewExpoPushSender(endpoint, accessToken string, logger *logging.Logger) *ExpoPushSender {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultExpoPushURL
	}
	return &ExpoPushSender{
		endpoint:    endpoint,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Push succeeds when at least one device ticket comes back ok.
func (s *ExpoPushSender) Push(ctx context.Context, msg PushMessage) error {
	if len(msg.Tokens) == 0 {
		return errors.New("notify: no push tokens")
	}
	batch := make([]expoMessage, 0, len(msg.Tokens))
	for _, token := range msg.Tokens {
		batch = append(batch, expoMessage{
			To:       token,
			Title:    msg.Title,
			Body:     msg.Body,
			Data:     msg.Data,
			Sound:    "default",
			Priority: "high",
		})
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("notify: encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: push request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: push service returned status %d", resp.StatusCode)
	}

	var parsed expoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("notify: decode push response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("notify: push rejected: %s", parsed.Errors[0].Message)
	}

	delivered := 0
	for i, ticket := range parsed.Data {
		if ticket.Status == "ok" {
			delivered++
			continue
		}
		s.logger.Warn("push ticket rejected", "index", i, "error", ticket.Details.Error, "message", ticket.Message)
	}
	if delivered == 0 {
		return errors.New("notify: no push tickets accepted")
	}
	return nil
}

var _ PushSender = (*ExpoPushSender)(nil)
