package bootstrap

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/contractor-sms-triage/internal/config"
	"github.com/wolfman30/contractor-sms-triage/internal/notify"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// BuildNotifier wires Expo push with the configured email fallback.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*notify.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	push := notify.NewExpoPushSender(cfg.ExpoPushURL, cfg.ExpoAccessToken, logger)

	var email notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sg != nil {
			email = sg
		} else {
			logger.Warn("sendgrid selected without API key; email fallback disabled")
		}
	case "ses":
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: ses email requires aws config")
		}
		email = notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "":
		if !cfg.IsProduction() {
			email = notify.NewLogEmailSender(logger)
		}
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	return notify.NewService(push, email, logger), nil
}
