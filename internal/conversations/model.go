package conversations

import "time"

// HandledBy records who is responsible for answering an inbound message.
type HandledBy string

const (
	HandledByPending HandledBy = "pending"
	HandledByAI      HandledBy = "ai"
)

// DirectionInbound is the only direction this service writes.
const DirectionInbound = "inbound"

// Record is the append-only audit row for one processed inbound message.
type Record struct {
	ID             string    `json:"id"`
	ProjectID      *string   `json:"project_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Channel        string    `json:"channel"`
	Direction      string    `json:"direction"`
	Body           string    `json:"body"`
	AIResponse     *string   `json:"ai_response"`
	AIConfidence   *float64  `json:"ai_confidence"`
	Intent         string    `json:"intent"`
	NeedsAttention bool      `json:"needs_attention"`
	HandledBy      HandledBy `json:"handled_by"`
	CreatedAt      time.Time `json:"created_at"`
}
