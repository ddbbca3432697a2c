package responder

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/contractor-sms-triage/internal/observability/metrics"
	"github.com/wolfman30/contractor-sms-triage/internal/triage"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

var responderTracer = otel.Tracer("contractor.internal.responder")

const (
	replyMaxTokens   = 300
	replyTemperature = 0.2
)

// Options tune a Responder. The zero value parses strictly and caches nothing.
// MinConfidence is the escalation threshold; replies below it are never
// cached. Zero uses the default policy threshold.
type Options struct {
	Cache         ReplyCache
	Lenient       bool
	MinConfidence float64
	Metrics       *metrics.TriageMetrics
	Logger        *logging.Logger
}

// Responder turns a client message plus project snapshot into an AIReply.
type Responder struct {
	completer     Completer
	cache         ReplyCache
	lenient       bool
	minConfidence float64
	metrics       *metrics.TriageMetrics
	logger        *logging.Logger
}

func New(completer Completer, opts Options) *Responder {
	if completer == nil {
		panic("responder: completer cannot be nil")
	}
	if opts.Cache == nil {
		opts.Cache = NoopReplyCache{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.MinConfidence <= 0 || opts.MinConfidence > 1 {
		opts.MinConfidence = triage.DefaultPolicy().ConfidenceThreshold
	}
	return &Responder{
		completer:     completer,
		cache:         opts.Cache,
		lenient:       opts.Lenient,
		minConfidence: opts.MinConfidence,
		metrics:       opts.Metrics,
		logger:        opts.Logger.Component("responder"),
	}
}

// Respond makes at most one model call. Cache errors degrade to a miss.
func (r *Responder) Respond(ctx context.Context, message string, snapshot triage.ProjectSnapshot) (triage.AIReply, error) {
	ctx, span := responderTracer.Start(ctx, "responder.respond")
	defer span.End()

	key := CacheKey(message, snapshot)
	cached, hit, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("reply cache read failed", "error", err)
	}
	if hit && cached.Confidence < r.minConfidence {
		// Written under a lower threshold; ask the model again.
		if err := r.cache.Expire(ctx, key); err != nil {
			r.logger.Warn("reply cache expire failed", "error", err)
		}
		hit = false
	}
	r.metrics.ObserveCache(hit)
	span.SetAttributes(attribute.Bool("responder.cache_hit", hit))
	if hit {
		cached.Cached = true
		return cached, nil
	}

	raw, err := r.completer.Complete(ctx, CompletionRequest{
		System:      BuildSystemPrompt(snapshot),
		User:        buildUserPrompt(message),
		MaxTokens:   replyMaxTokens,
		Temperature: replyTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return triage.AIReply{}, err
	}

	reply, err := ParseReply(raw, r.lenient)
	if err != nil {
		span.RecordError(err)
		return triage.AIReply{}, fmt.Errorf("responder: parse reply: %w", err)
	}
	if reply.Degraded {
		r.logger.Warn("ai reply salvaged from non-json output", "confidence", reply.Confidence)
		return reply, nil
	}
	if reply.Confidence < r.minConfidence {
		return reply, nil
	}
	if err := r.cache.Put(ctx, key, reply); err != nil {
		r.logger.Warn("reply cache write failed", "error", err)
	}
	return reply, nil
}
