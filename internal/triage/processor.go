package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/contractor-sms-triage/internal/conversations"
	"github.com/wolfman30/contractor-sms-triage/internal/observability/metrics"
	"github.com/wolfman30/contractor-sms-triage/internal/projects"
	"github.com/wolfman30/contractor-sms-triage/pkg/logging"
)

var triageTracer = otel.Tracer("contractor.internal.triage")

const defaultPreviewLength = 100

// Outcome summarises how one inbound message was handled.
type Outcome struct {
	RecordID  string
	ProjectID string
	Intent    Intent
	HandledBy conversations.HandledBy
	Reason    Reason
	Replied   bool
	Notified  bool
}

// ProcessorConfig wires the collaborators of a Processor.
type ProcessorConfig struct {
	Projects      ProjectLookup
	Conversations ConversationLog
	Responder     Responder
	Sender        ReplySender
	Notifier      ContractorNotifier
	Policy        Policy
	PreviewLength int
	Metrics       *metrics.TriageMetrics
	Logger        *logging.Logger
}

// Processor routes each inbound message to an automated reply or to the contractor.
type Processor struct {
	projects      ProjectLookup
	conversations ConversationLog
	responder     Responder
	sender        ReplySender
	notifier      ContractorNotifier
	policy        Policy
	previewLength int
	metrics       *metrics.TriageMetrics
	logger        *logging.Logger
	now           func() time.Time
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Projects == nil {
		panic("triage: project lookup cannot be nil")
	}
	if cfg.Conversations == nil {
		panic("triage: conversation log cannot be nil")
	}
	if cfg.Responder == nil {
		panic("triage: responder cannot be nil")
	}
	if cfg.Sender == nil {
		panic("triage: reply sender cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = defaultPreviewLength
	}
	return &Processor{
		projects:      cfg.Projects,
		conversations: cfg.Conversations,
		responder:     cfg.Responder,
		sender:        cfg.Sender,
		notifier:      cfg.Notifier,
		policy:        cfg.Policy.normalized(),
		previewLength: cfg.PreviewLength,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.Component("triage"),
		now:           time.Now,
	}
}

// Process handles one inbound message end to end. A nil error means the
// provider should be acknowledged. Errors are returned only when the AI call
// or the outbound send failed, or the project lookup itself broke.
func (p *Processor) Process(ctx context.Context, msg InboundMessage) (Outcome, error) {
	ctx, span := triageTracer.Start(ctx, "triage.process")
	defer span.End()

	if msg.Channel == "" {
		msg.Channel = DetectChannel(msg.From)
	}
	intent := ClassifyIntent(msg.Body)
	span.SetAttributes(
		attribute.String("triage.channel", string(msg.Channel)),
		attribute.String("triage.intent", string(intent)),
	)
	p.metrics.ObserveInbound(string(msg.Channel), string(intent))

	log := p.logger.With("channel", msg.Channel, "from", MaskPhone(msg.From), "intent", intent)

	project, err := p.projects.FindByClientPhone(ctx, msg.SenderPhone())
	if err != nil {
		if errors.Is(err, projects.ErrProjectNotFound) || errors.Is(err, projects.ErrMissingPhone) {
			log.Info("inbound message from unknown sender")
			return p.recordUnknownSender(ctx, msg, log), nil
		}
		span.RecordError(err)
		p.metrics.ObserveFailure("lookup")
		log.Error("project lookup failed", "error", err)
		return Outcome{Intent: intent}, fmt.Errorf("triage: lookup project: %w", err)
	}
	span.SetAttributes(attribute.String("triage.project_id", project.ID))
	log = log.With("project_id", project.ID)

	if decision := p.policy.PreCheck(intent, msg.Body, project.AIResponsesEnabled); decision.Escalate {
		log.Info("escalating without AI", "reason", decision.Reason)
		return p.escalate(ctx, msg, project, intent, decision.Reason, log), nil
	}

	snapshot := BuildSnapshot(*project)
	started := p.now()
	reply, err := p.responder.Respond(ctx, msg.Body, snapshot)
	elapsed := p.now().Sub(started).Seconds()
	if err != nil {
		span.RecordError(err)
		p.metrics.ObserveAICall("error", elapsed)
		p.metrics.ObserveFailure("ai")
		log.Error("ai responder failed", "error", err)
		outcome := p.escalate(ctx, msg, project, intent, ReasonAIError, log)
		return outcome, fmt.Errorf("triage: generate reply: %w", err)
	}
	p.metrics.ObserveAICall("ok", elapsed)
	reply.Confidence = clampConfidence(reply.Confidence)
	span.SetAttributes(
		attribute.Float64("triage.confidence", reply.Confidence),
		attribute.Bool("triage.cached", reply.Cached),
	)

	if decision := p.policy.CheckReply(reply); decision.Escalate {
		log.Info("ai reply below confidence threshold", "confidence", reply.Confidence)
		return p.escalate(ctx, msg, project, intent, decision.Reason, log), nil
	}

	text := reply.Text
	confidence := reply.Confidence
	rec := p.newRecord(msg, &project.ID, intent)
	rec.AIResponse = &text
	rec.AIConfidence = &confidence
	rec.HandledBy = conversations.HandledByAI
	p.append(ctx, rec, log)

	outcome := Outcome{
		RecordID:  rec.ID,
		ProjectID: project.ID,
		Intent:    intent,
		HandledBy: conversations.HandledByAI,
	}
	p.metrics.ObserveOutcome(string(outcome.HandledBy), string(outcome.Reason))

	out := OutboundReply{
		From:    msg.Channel.Address(msg.To),
		To:      msg.Channel.Address(msg.From),
		Body:    text,
		Channel: msg.Channel,
		Credentials: Credentials{
			AccountSID: project.Contractor.TwilioAccountSID,
			AuthToken:  project.Contractor.TwilioAuthToken,
		},
	}
	if err := p.sender.SendReply(ctx, out); err != nil {
		span.RecordError(err)
		p.metrics.ObserveOutbound(string(msg.Channel), "failed")
		p.metrics.ObserveFailure("send")
		log.Error("failed to send ai reply", "error", err)
		return outcome, fmt.Errorf("triage: send reply: %w", err)
	}
	p.metrics.ObserveOutbound(string(msg.Channel), "sent")
	outcome.Replied = true
	log.Info("ai reply sent", "confidence", confidence, "cached", reply.Cached, "degraded", reply.Degraded)
	return outcome, nil
}

func (p *Processor) recordUnknownSender(ctx context.Context, msg InboundMessage, log *logging.Logger) Outcome {
	rec := p.newRecord(msg, nil, IntentUnknown)
	rec.NeedsAttention = true
	rec.HandledBy = conversations.HandledByPending
	p.append(ctx, rec, log)
	p.metrics.ObserveOutcome(string(rec.HandledBy), string(ReasonUnknownSender))
	return Outcome{
		RecordID:  rec.ID,
		Intent:    IntentUnknown,
		HandledBy: conversations.HandledByPending,
		Reason:    ReasonUnknownSender,
	}
}

// escalate writes the pending record and notifies the contractor. Both steps
// are best-effort so the provider is still acknowledged.
func (p *Processor) escalate(ctx context.Context, msg InboundMessage, project *projects.Project, intent Intent, reason Reason, log *logging.Logger) Outcome {
	log = log.With("reason", reason)
	rec := p.newRecord(msg, &project.ID, intent)
	rec.NeedsAttention = true
	rec.HandledBy = conversations.HandledByPending
	p.append(ctx, rec, log)
	p.metrics.ObserveOutcome(string(rec.HandledBy), string(reason))

	outcome := Outcome{
		RecordID:  rec.ID,
		ProjectID: project.ID,
		Intent:    intent,
		HandledBy: conversations.HandledByPending,
		Reason:    reason,
	}
	if p.notifier == nil {
		return outcome
	}
	notice := EscalationNotice{
		Contractor:  project.Contractor,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ClientName:  project.Client,
		From:        msg.SenderPhone(),
		Preview:     preview(msg.Body, p.previewLength),
		Intent:      intent,
		Reason:      reason,
	}
	if err := p.notifier.NotifyContractor(ctx, notice); err != nil {
		p.metrics.ObserveFailure("notify")
		log.Warn("contractor notification failed", "error", err)
		return outcome
	}
	outcome.Notified = true
	return outcome
}

func (p *Processor) newRecord(msg InboundMessage, projectID *string, intent Intent) *conversations.Record {
	return &conversations.Record{
		ProjectID: projectID,
		From:      msg.From,
		To:        msg.To,
		Channel:   string(msg.Channel),
		Direction: conversations.DirectionInbound,
		Body:      msg.Body,
		Intent:    string(intent),
		CreatedAt: p.now().UTC(),
	}
}

// append never fails the request; a lost audit row is logged and counted.
func (p *Processor) append(ctx context.Context, rec *conversations.Record, log *logging.Logger) {
	if err := p.conversations.Append(ctx, rec); err != nil {
		p.metrics.ObserveFailure("log")
		log.Error("failed to log conversation", "error", err, "handled_by", rec.HandledBy)
	}
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// preview truncates on rune boundaries.
func preview(body string, limit int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return string(runes[:limit]) + "…"
}

