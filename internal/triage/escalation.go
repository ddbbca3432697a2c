package triage

import (
	"strings"
	"unicode/utf8"
)

// Reason explains why a message was routed the way it was.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonAIDisabled      Reason = "ai_disabled"
	ReasonSensitiveIntent Reason = "sensitive_intent"
	ReasonTooShort        Reason = "too_short"
	ReasonLowConfidence   Reason = "low_confidence"
	ReasonAIError         Reason = "ai_error"
	ReasonUnknownSender   Reason = "unknown_sender"
)

const (
	DefaultConfidenceThreshold = 0.7
	DefaultMinMessageLength    = 10
)

// Decision is the outcome of an escalation check.
type Decision struct {
	Escalate bool
	Reason   Reason
}

// Policy decides whether a human must answer. The pre-call check filters
// obvious cases before an AI call; the confidence gate runs on the reply.
type Policy struct {
	ConfidenceThreshold float64
	MinMessageLength    int
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MinMessageLength:    DefaultMinMessageLength,
	}
}

func (p Policy) normalized() Policy {
	if p.ConfidenceThreshold <= 0 || p.ConfidenceThreshold > 1 {
		p.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if p.MinMessageLength <= 0 {
		p.MinMessageLength = DefaultMinMessageLength
	}
	return p
}

// PreCheck applies the rules in order: AI disabled, sensitive intent, short body.
func (p Policy) PreCheck(intent Intent, body string, aiEnabled bool) Decision {
	p = p.normalized()
	if !aiEnabled {
		return Decision{Escalate: true, Reason: ReasonAIDisabled}
	}
	if intent.Sensitive() {
		return Decision{Escalate: true, Reason: ReasonSensitiveIntent}
	}
	if utf8.RuneCountInString(strings.TrimSpace(body)) < p.MinMessageLength {
		return Decision{Escalate: true, Reason: ReasonTooShort}
	}
	return Decision{}
}

// CheckReply escalates replies the model itself is unsure about.
func (p Policy) CheckReply(reply AIReply) Decision {
	p = p.normalized()
	if reply.Confidence < p.ConfidenceThreshold {
		return Decision{Escalate: true, Reason: ReasonLowConfidence}
	}
	return Decision{}
}
