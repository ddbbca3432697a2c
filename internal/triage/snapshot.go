package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/wolfman30/contractor-sms-triage/internal/projects"
)

// ProjectSnapshot is the compact context handed to the AI responder.
type ProjectSnapshot struct {
	Business        string  `json:"business,omitempty"`
	Name            string  `json:"name"`
	Client          string  `json:"client"`
	ContractAmount  float64 `json:"contractAmount"`
	IncomeCollected float64 `json:"incomeCollected"`
	Expenses        float64 `json:"expenses"`
	Profit          float64 `json:"profit"`
	Status          string  `json:"status"`
	PercentComplete int     `json:"percentComplete"`
	StartDate       *string `json:"startDate"`
	EndDate         *string `json:"endDate"`
	DaysRemaining   int     `json:"daysRemaining"`
}

const snapshotDateLayout = "2006-01-02"

// BuildSnapshot projects a Project onto the AI context. Missing numbers count as zero.
func BuildSnapshot(p projects.Project) ProjectSnapshot {
	collected := floatOrZero(p.IncomeCollected)
	expenses := floatOrZero(p.Expenses)
	snap := ProjectSnapshot{
		Business:        p.Contractor.DisplayName(),
		Name:            p.Name,
		Client:          p.Client,
		ContractAmount:  floatOrZero(p.ContractAmount),
		IncomeCollected: collected,
		Expenses:        expenses,
		Profit:          collected - expenses,
		Status:          p.Status,
		PercentComplete: intOrZero(p.PercentComplete),
		DaysRemaining:   intOrZero(p.DaysRemaining),
	}
	if p.StartDate != nil {
		s := p.StartDate.Format(snapshotDateLayout)
		snap.StartDate = &s
	}
	if p.EndDate != nil {
		s := p.EndDate.Format(snapshotDateLayout)
		snap.EndDate = &s
	}
	return snap
}

// JSON renders the snapshot for prompts.
func (s ProjectSnapshot) JSON() string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Signature changes whenever any snapshot field changes.
func (s ProjectSnapshot) Signature() string {
	sum := sha256.Sum256([]byte(s.JSON()))
	return hex.EncodeToString(sum[:])
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
