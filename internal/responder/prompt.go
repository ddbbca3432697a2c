package responder

import (
	"fmt"
	"strings"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

const systemPromptTemplate = `You are the text-message assistant for %s, answering their client about one construction project. Speak for the business in the first person plural.

Rules:
- Replies go out over SMS. Keep them to 2-3 short sentences.
- Only use numbers and dates that appear in the project context below. Never estimate or invent figures.
- If the question is about a complaint, a payment, or a schedule change, or you cannot answer from the context, set confidence to 0.5 or lower.
- Do not promise anything on the contractor's behalf.

Respond with a single JSON object and nothing else:
{"text": "<reply to send>", "confidence": <number between 0 and 1>}

Project context:
%s`

// BuildSystemPrompt grounds the model in the project snapshot and names the
// contractor's business when it is known.
func BuildSystemPrompt(snapshot triage.ProjectSnapshot) string {
	business := "a contractor"
	if name := strings.TrimSpace(snapshot.Business); name != "" {
		business = name
	}
	return fmt.Sprintf(systemPromptTemplate, business, snapshot.JSON())
}

func buildUserPrompt(message string) string {
	return "Client message: " + strings.TrimSpace(message)
}
