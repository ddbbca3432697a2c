package triage

import "strings"

// Intent is the coarse category of an inbound client message.
type Intent string

const (
	IntentComplaint Intent = "complaint"
	IntentPayment   Intent = "payment"
	IntentSchedule  Intent = "schedule"
	IntentGeneral   Intent = "general"

	// IntentUnknown is recorded for senders that match no project.
	IntentUnknown Intent = "unknown"
)

// Sensitive reports whether the intent always requires a human reply.
func (i Intent) Sensitive() bool {
	switch i {
	case IntentComplaint, IntentPayment, IntentSchedule:
		return true
	default:
		return false
	}
}

type intentRule struct {
	intent  Intent
	matches func(lowered string) bool
}

func containsAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

// intentRules is evaluated top to bottom; the first match wins.
var intentRules = []intentRule{
	{
		intent: IntentComplaint,
		matches: containsAny(
			"complain", "problem", "issue", "wrong", "broken", "damage", "leak",
			"terrible", "awful", "horrible", "unhappy", "not happy", "disappointed",
			"angry", "upset", "frustrated", "refund", "mistake", "unacceptable", "poor quality",
		),
	},
	{
		intent: IntentPayment,
		matches: containsAny(
			"pay", "invoice", "bill", "charge", "deposit", "owe", "cost", "price",
			"money", "fees", "receipt", "venmo", "zelle",
		),
	},
	{
		intent: IntentSchedule,
		matches: containsAny(
			"schedule", "when", "date", "time", "delay", "running late", "tomorrow",
			"today", "next week", "appointment", "start", "finish", "done by", "postpone",
		),
	},
}

// ClassifyIntent maps free text onto exactly one Intent. Priority is
// complaint, then payment, then schedule; anything else is general.
func ClassifyIntent(text string) Intent {
	lowered := strings.ToLower(text)
	for _, rule := range intentRules {
		if rule.matches(lowered) {
			return rule.intent
		}
	}
	return IntentGeneral
}
