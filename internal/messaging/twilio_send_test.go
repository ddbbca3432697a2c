package messaging

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

func TestTwilioSenderUsesContractorCredentials(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender("ACdefault", "default-token", srv.URL, logging.Default())
	err := sender.SendReply(context.Background(), triage.OutboundReply{
		From:        "whatsapp:+15559876543",
		To:          "whatsapp:+15551234567",
		Body:        "Blue subway tile.",
		Channel:     triage.ChannelWhatsApp,
		Credentials: triage.Credentials{AccountSID: "ACcontractor", AuthToken: "contractor-token"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/ACcontractor/Messages.json" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotUser != "ACcontractor" || gotPass != "contractor-token" {
		t.Errorf("unexpected basic auth %s:%s", gotUser, gotPass)
	}
	if gotForm.Get("From") != "whatsapp:+15559876543" || gotForm.Get("To") != "whatsapp:+15551234567" {
		t.Errorf("expected prefixed addresses, got %v", gotForm)
	}
	if gotForm.Get("Body") != "Blue subway tile." {
		t.Errorf("unexpected body %q", gotForm.Get("Body"))
	}
}

func TestTwilioSenderFallsBackToDefaults(t *testing.T) {
	var gotUser string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender("ACdefault", "default-token", srv.URL, nil)
	err := sender.SendReply(context.Background(), triage.OutboundReply{
		From: "+15559876543", To: "+15551234567", Body: "hello", Channel: triage.ChannelSMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "ACdefault" || calls != 1 {
		t.Errorf("expected one call with default account, got %s (%d calls)", gotUser, calls)
	}
}

func TestTwilioSenderErrorsAreNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":20503,"message":"Service unavailable"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender("AC1", "tok", srv.URL, nil)
	err := sender.SendReply(context.Background(), triage.OutboundReply{
		From: "+15559876543", To: "+15551234567", Body: "hello",
	})
	if err == nil || !strings.Contains(err.Error(), "code 20503") {
		t.Fatalf("expected twilio error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestTwilioSenderValidation(t *testing.T) {
	sender := NewTwilioSender("", "", "", nil)
	err := sender.SendReply(context.Background(), triage.OutboundReply{From: "+1", To: "+2", Body: "x"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected missing credentials, got %v", err)
	}

	sender = NewTwilioSender("AC1", "tok", "", nil)
	if err := sender.SendReply(context.Background(), triage.OutboundReply{From: "+1", To: "", Body: "x"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
	if err := sender.SendReply(context.Background(), triage.OutboundReply{From: "+1", To: "+2", Body: "  "}); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestFormatTwilioError(t *testing.T) {
	if got := formatTwilioError(400, nil); got != "status 400" {
		t.Errorf("unexpected %q", got)
	}
	if got := formatTwilioError(400, []byte(`{"message":"bad To"}`)); got != "status 400: bad To" {
		t.Errorf("unexpected %q", got)
	}
	if got := formatTwilioError(502, []byte("gateway")); got != "status 502: gateway" {
		t.Errorf("unexpected %q", got)
	}
}
