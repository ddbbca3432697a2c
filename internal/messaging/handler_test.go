package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

type stubProcessor struct {
	outcome triage.Outcome
	err     error
	got     []triage.InboundMessage
}

func (s *stubProcessor) Process(ctx context.Context, msg triage.InboundMessage) (triage.Outcome, error) {
	s.got = append(s.got, msg)
	return s.outcome, s.err
}

func webhookRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestValidateTwilioSignature(t *testing.T) {
	authToken := "test_token"
	webhookURL := "https://example.com/webhook"

	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("From", "+1234567890")
	formData.Set("Body", "Hello")

	req := webhookRequest(webhookURL, formData)
	req.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(webhookURL, formData), authToken))

	if !ValidateTwilioSignature(req, authToken, webhookURL) {
		t.Error("expected signature validation to pass")
	}
}

func TestValidateTwilioSignature_InvalidSignature(t *testing.T) {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")

	req := webhookRequest("https://example.com/webhook", formData)
	req.Header.Set("X-Twilio-Signature", "invalid_signature")

	if ValidateTwilioSignature(req, "test_token", "https://example.com/webhook") {
		t.Error("expected signature validation to fail")
	}
}

func TestValidateTwilioSignature_MissingSignature(t *testing.T) {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")

	req := webhookRequest("https://example.com/webhook", formData)
	if ValidateTwilioSignature(req, "test_token", "https://example.com/webhook") {
		t.Error("expected signature validation to fail without signature header")
	}
}

func TestParseTwilioWebhookWhatsApp(t *testing.T) {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("From", "whatsapp:+15551234567")
	formData.Set("To", "whatsapp:+15559876543")
	formData.Set("Body", "Which tile did we pick?")

	webhook, err := ParseTwilioWebhook(webhookRequest("/webhooks/sms", formData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := webhook.InboundMessage()
	if msg.Channel != triage.ChannelWhatsApp {
		t.Errorf("expected whatsapp channel, got %s", msg.Channel)
	}
	if msg.From != "whatsapp:+15551234567" || msg.To != "whatsapp:+15559876543" {
		t.Errorf("expected prefixed addresses, got %s -> %s", msg.From, msg.To)
	}
}

func TestTwilioWebhookHandlerAcksWithEmptyTwiML(t *testing.T) {
	outcomes := []triage.Outcome{
		{HandledBy: "ai", Replied: true},
		{HandledBy: "pending", Reason: triage.ReasonSensitiveIntent},
		{HandledBy: "pending", Reason: triage.ReasonUnknownSender},
		{HandledBy: "pending", Reason: triage.ReasonLowConfidence},
	}
	for _, outcome := range outcomes {
		processor := &stubProcessor{outcome: outcome}
		handler := NewHandler("", "", processor, nil, logging.Default())

		formData := url.Values{}
		formData.Set("MessageSid", "SM123")
		formData.Set("From", "+15551234567")
		formData.Set("To", "+15559876543")
		formData.Set("Body", "What's my balance?")

		w := httptest.NewRecorder()
		handler.TwilioWebhook(w, webhookRequest("/webhooks/sms", formData))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
			t.Errorf("expected Content-Type application/xml, got %s", ct)
		}
		if w.Body.String() != EmptyTwiML {
			t.Errorf("expected empty TwiML, got %q", w.Body.String())
		}
		if len(processor.got) != 1 || processor.got[0].Channel != triage.ChannelSMS {
			t.Errorf("expected one sms message processed, got %+v", processor.got)
		}
	}
}

func TestTwilioWebhookHandlerProcessingError(t *testing.T) {
	processor := &stubProcessor{err: errors.New("ai unavailable")}
	handler := NewHandler("", "", processor, nil, logging.Default())

	formData := url.Values{}
	formData.Set("From", "+15551234567")
	formData.Set("Body", "Which tile did we pick?")

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, webhookRequest("/webhooks/sms", formData))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected plain text error, got %s", ct)
	}
	if strings.Contains(w.Body.String(), "ai unavailable") {
		t.Error("internal error details must not leak to the provider")
	}
}

func TestTwilioWebhookHandlerMissingFrom(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewHandler("", "", processor, nil, logging.Default())

	formData := url.Values{}
	formData.Set("Body", "hello there friend")

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, webhookRequest("/webhooks/sms", formData))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if len(processor.got) != 0 {
		t.Error("processor must not run for malformed payloads")
	}
}

func TestTwilioWebhookHandler_WithSignatureValidation(t *testing.T) {
	handler := NewHandler("test_secret", "", &stubProcessor{}, nil, logging.Default())

	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("From", "+1234567890")

	req := webhookRequest("/webhooks/sms", formData)
	req.Header.Set("X-Twilio-Signature", "invalid")

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestTwilioWebhookHandler_PublicBaseURLSignature(t *testing.T) {
	secret := "test_secret"
	processor := &stubProcessor{}
	handler := NewHandler(secret, "https://hooks.example.com/", processor, nil, logging.Default())

	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("From", "+15551234567")
	formData.Set("Body", "Which tile did we pick?")

	req := webhookRequest("/webhooks/sms", formData)
	signed := "https://hooks.example.com/webhooks/sms"
	req.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(signed, formData), secret))

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if len(processor.got) != 1 {
		t.Fatalf("expected processor to run once, ran %d", len(processor.got))
	}
}

type stubAccountTokens struct {
	tokens map[string]string
	err    error
}

func (s stubAccountTokens) TwilioAuthToken(ctx context.Context, accountSID string) (string, error) {
	return s.tokens[accountSID], s.err
}

func signedAccountRequest(accountSID, token string) *http.Request {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("AccountSid", accountSID)
	formData.Set("From", "+15551234567")
	formData.Set("Body", "Which tile did we pick?")

	req := webhookRequest("/webhooks/sms", formData)
	signed := "https://hooks.example.com/webhooks/sms"
	req.Header.Set("X-Twilio-Signature", computeSignature(buildSignaturePayload(signed, formData), token))
	return req
}

func TestTwilioWebhookHandler_ContractorAccountSignature(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewHandler("service-token", "https://hooks.example.com", processor, nil, logging.Default()).
		WithAccountTokens(stubAccountTokens{tokens: map[string]string{"ACcontractor": "contractor-token"}})

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, signedAccountRequest("ACcontractor", "contractor-token"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected contractor-signed webhook to be accepted, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.TwilioWebhook(w, signedAccountRequest("ACcontractor", "service-token"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected service token to be rejected for a contractor account, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.TwilioWebhook(w, signedAccountRequest("ACservice", "service-token"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected unknown accounts to fall back to the service token, got %d", w.Code)
	}
	if len(processor.got) != 2 {
		t.Fatalf("expected processor to run twice, ran %d", len(processor.got))
	}
}

func TestTwilioWebhookHandler_AccountLookupFailure(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewHandler("service-token", "https://hooks.example.com", processor, nil, logging.Default()).
		WithAccountTokens(stubAccountTokens{err: errors.New("db down")})

	w := httptest.NewRecorder()
	handler.TwilioWebhook(w, signedAccountRequest("ACcontractor", "contractor-token"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the provider retries, got %d", w.Code)
	}
	if len(processor.got) != 0 {
		t.Fatalf("processor must not run when the signing token is unknown")
	}
}
