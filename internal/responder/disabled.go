package responder

import (
	"context"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

// Disabled answers with zero confidence so the confidence gate hands every
// message to the contractor. Used when no AI provider is configured.
type Disabled struct{}

func (Disabled) Respond(context.Context, string, triage.ProjectSnapshot) (triage.AIReply, error) {
	return triage.AIReply{}, nil
}
