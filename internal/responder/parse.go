package responder

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

// DefaultConfidence applies when the model omits the confidence field.
const DefaultConfidence = 0.8

var (
	// ErrMalformedReply is returned when the model output is not the expected JSON object.
	ErrMalformedReply = errors.New("responder: malformed ai reply")
	// ErrEmptyReply is returned when the reply has no text to send.
	ErrEmptyReply = errors.New("responder: ai reply text is empty")
)

type replyPayload struct {
	Text       *string  `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// ParseReply decodes a model reply. Strict mode accepts only a JSON object.
// Lenient mode also accepts a JSON object embedded in surrounding prose and,
// failing that, plain text with zero confidence; both paths set Degraded.
func ParseReply(raw string, lenient bool) (triage.AIReply, error) {
	reply, err := parseStrict(raw)
	if err == nil || !lenient || errors.Is(err, ErrEmptyReply) {
		return reply, err
	}

	if embedded, ok := extractObject(raw); ok {
		if reply, err := parseStrict(embedded); err == nil {
			reply.Degraded = true
			return reply, nil
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return triage.AIReply{}, ErrEmptyReply
	}
	return triage.AIReply{Text: text, Confidence: 0, Degraded: true}, nil
}

func parseStrict(raw string) (triage.AIReply, error) {
	var payload replyPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return triage.AIReply{}, ErrMalformedReply
	}
	if payload.Text == nil {
		return triage.AIReply{}, ErrMalformedReply
	}
	text := strings.TrimSpace(*payload.Text)
	if text == "" {
		return triage.AIReply{}, ErrEmptyReply
	}
	confidence := DefaultConfidence
	if payload.Confidence != nil {
		confidence = clamp(*payload.Confidence)
	}
	return triage.AIReply{Text: text, Confidence: confidence}, nil
}

// extractObject returns the outermost {...} span, e.g. from a fenced code block.
func extractObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
