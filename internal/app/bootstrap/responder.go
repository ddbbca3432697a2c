package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	appconfig "github.com/wolfman30/contractor-sms-triage/internal/config"
	"github.com/wolfman30/contractor-sms-triage/internal/observability/metrics"
	"github.com/wolfman30/contractor-sms-triage/internal/responder"
	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

// BuildResponder picks the AI provider from config. Without credentials it
// returns a responder that always defers to the contractor.
func BuildResponder(cfg *appconfig.Config, awsCfg *aws.Config, redisClient *redis.Client, m *metrics.TriageMetrics, logger *logging.Logger) (triage.Responder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var completer responder.Completer
	switch cfg.AIProvider {
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" || awsCfg == nil {
			logger.Warn("bedrock selected without model id; every message will be escalated")
			return responder.Disabled{}, nil
		}
		completer = responder.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID)
	case "openai", "":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			logger.Warn("no OpenAI API key configured; every message will be escalated")
			return responder.Disabled{}, nil
		}
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		completer = responder.NewOpenAIClient(openai.NewClientWithConfig(clientCfg), cfg.OpenAIModel, cfg.OpenAITimeout)
	default:
		return nil, fmt.Errorf("bootstrap: unknown AI_PROVIDER %q", cfg.AIProvider)
	}

	return responder.New(completer, responder.Options{
		Cache:         buildReplyCache(cfg, redisClient, logger),
		Lenient:       cfg.AILenientParse,
		MinConfidence: cfg.ConfidenceThreshold,
		Metrics:       m,
		Logger:        logger,
	}), nil
}

// buildReplyCache keeps replies out of process memory unless the whole
// service already runs on in-memory stores.
func buildReplyCache(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) responder.ReplyCache {
	switch {
	case cfg.AIReplyCacheTTL <= 0:
		return responder.NoopReplyCache{}
	case redisClient != nil:
		return responder.NewRedisReplyCache(redisClient, cfg.AIReplyCacheTTL)
	case cfg.UseMemoryStore:
		return responder.NewMemoryReplyCache(cfg.AIReplyCacheTTL)
	default:
		logger.Warn("AI_REPLY_CACHE_TTL set without redis; reply cache disabled")
		return responder.NoopReplyCache{}
	}
}
