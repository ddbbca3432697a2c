package projects

import "time"

// ContractorProfile is the business owner behind a project. It carries the
// messaging credentials used to reply on the contractor's behalf.
type ContractorProfile struct {
	ID               string   `json:"id"`
	BusinessName     string   `json:"business_name"`
	OwnerName        string   `json:"owner_name"`
	Email            string   `json:"email"`
	PushTokens       []string `json:"-"`
	TwilioAccountSID string   `json:"-"`
	TwilioAuthToken  string   `json:"-"`
	TwilioNumber     string   `json:"twilio_number"`
}

// DisplayName prefers the business name for client-facing text.
func (c ContractorProfile) DisplayName() string {
	if c.BusinessName != "" {
		return c.BusinessName
	}
	return c.OwnerName
}

// Project is a construction job looked up by the client's phone number.
// Financial fields are nil when the contractor never filled them in.
type Project struct {
	ID                 string            `json:"id"`
	OwnerID            string            `json:"owner_id"`
	Name               string            `json:"name"`
	Client             string            `json:"client"`
	ClientPhone        string            `json:"client_phone"`
	ContractAmount     *float64          `json:"contract_amount,omitempty"`
	IncomeCollected    *float64          `json:"income_collected,omitempty"`
	Expenses           *float64          `json:"expenses,omitempty"`
	Status             string            `json:"status"`
	PercentComplete    *int              `json:"percent_complete,omitempty"`
	StartDate          *time.Time        `json:"start_date,omitempty"`
	EndDate            *time.Time        `json:"end_date,omitempty"`
	DaysRemaining      *int              `json:"days_remaining,omitempty"`
	AIResponsesEnabled bool              `json:"ai_responses_enabled"`
	Contractor         ContractorProfile `json:"contractor"`
}
