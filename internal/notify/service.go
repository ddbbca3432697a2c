package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// ErrNoChannel is returned when the contractor has neither push tokens nor an email.
var ErrNoChannel = errors.New("notify: contractor has no notification channel")

// Service alerts contractors about client messages that need a human.
// Push goes first; email is the fallback.
type Service struct {
	push   PushSender
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. Either sender may be nil.
func NewService(push PushSender, email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		push:   push,
		email:  email,
		logger: logger.Component("notify"),
	}
}

var _ triage.ContractorNotifier = (*Service)(nil)

// NotifyContractor returns an error only when no channel delivered.
func (s *Service) NotifyContractor(ctx context.Context, notice triage.EscalationNotice) error {
	contractor := notice.Contractor
	log := s.logger.With("contractor_id", contractor.ID, "project_id", notice.ProjectID, "reason", notice.Reason)

	var pushErr error
	if s.push != nil && len(contractor.PushTokens) > 0 {
		pushErr = s.push.Push(ctx, PushMessage{
			Tokens: contractor.PushTokens,
			Title:  pushTitle(notice),
			Body:   notice.Preview,
			Data: map[string]string{
				"type":      "client_message",
				"projectId": notice.ProjectID,
				"intent":    string(notice.Intent),
				"reason":    string(notice.Reason),
			},
		})
		if pushErr == nil {
			log.Info("contractor notified by push")
			return nil
		}
		log.Warn("push notification failed, trying email", "error", pushErr)
	}

	if s.email == nil || strings.TrimSpace(contractor.Email) == "" {
		if pushErr != nil {
			return pushErr
		}
		return ErrNoChannel
	}

	subject, body := emailContent(notice)
	if err := s.email.Send(ctx, EmailMessage{
		To:      contractor.Email,
		ToName:  contractor.OwnerName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return errors.Join(pushErr, fmt.Errorf("notify: email fallback: %w", err))
	}
	log.Info("contractor notified by email")
	return nil
}

func pushTitle(notice triage.EscalationNotice) string {
	who := notice.ClientName
	if who == "" {
		who = "your client"
	}
	if notice.ProjectName == "" {
		return "New message from " + who
	}
	return fmt.Sprintf("%s · %s", notice.ProjectName, who)
}

func emailContent(notice triage.EscalationNotice) (string, string) {
	subject := "Client message needs your reply"
	if notice.ProjectName != "" {
		subject = fmt.Sprintf("%s: client message needs your reply", notice.ProjectName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", fallback(notice.ProjectName, "unknown"))
	fmt.Fprintf(&b, "Client: %s\n", fallback(notice.ClientName, "unknown"))
	fmt.Fprintf(&b, "From: %s\n", notice.From)
	fmt.Fprintf(&b, "Topic: %s\n\n", notice.Intent)
	fmt.Fprintf(&b, "%q\n\n", notice.Preview)
	b.WriteString("Open the app to reply.")
	return subject, b.String()
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
