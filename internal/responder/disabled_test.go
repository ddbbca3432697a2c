package responder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

func TestDisabledAlwaysFallsBelowThreshold(t *testing.T) {
	reply, err := Disabled{}.Respond(context.Background(), "When do you start the kitchen?", triage.ProjectSnapshot{Name: "Kitchen"})
	require.NoError(t, err)
	assert.Zero(t, reply.Confidence)

	decision := triage.DefaultPolicy().CheckReply(reply)
	assert.True(t, decision.Escalate)
	assert.Equal(t, triage.ReasonLowConfidence, decision.Reason)
}
