package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads projects and their contractor profiles.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("projects: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const findByClientPhoneQuery = `
	SELECT p.id, p.owner_id, p.name, p.client, p.client_phone,
		p.contract_amount, p.income_collected, p.expenses,
		p.status, p.percent_complete, p.start_date, p.end_date, p.days_remaining,
		p.ai_responses_enabled,
		c.id, c.business_name, c.owner_name, c.email, c.push_tokens,
		c.twilio_account_sid, c.twilio_auth_token, c.twilio_number
	FROM projects p
	JOIN contractor_profiles c ON c.id = p.owner_id
	WHERE p.client_phone = $1
	ORDER BY p.created_at DESC
	LIMIT 1
`

// FindByClientPhone matches the stored client phone exactly.
func (r *PostgresRepository) FindByClientPhone(ctx context.Context, phone string) (*Project, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}

	var (
		p          Project
		status     *string
		startDate  *time.Time
		endDate    *time.Time
		email      *string
		pushTokens []string
		accountSID *string
		authToken  *string
		number     *string
	)
	err := r.db.QueryRow(ctx, findByClientPhoneQuery, phone).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Client,
		&p.ClientPhone,
		&p.ContractAmount,
		&p.IncomeCollected,
		&p.Expenses,
		&status,
		&p.PercentComplete,
		&startDate,
		&endDate,
		&p.DaysRemaining,
		&p.AIResponsesEnabled,
		&p.Contractor.ID,
		&p.Contractor.BusinessName,
		&p.Contractor.OwnerName,
		&email,
		&pushTokens,
		&accountSID,
		&authToken,
		&number,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("projects: lookup by client phone: %w", err)
	}

	p.Status = deref(status)
	p.StartDate = startDate
	p.EndDate = endDate
	p.Contractor.Email = deref(email)
	p.Contractor.PushTokens = pushTokens
	p.Contractor.TwilioAccountSID = deref(accountSID)
	p.Contractor.TwilioAuthToken = deref(authToken)
	p.Contractor.TwilioNumber = deref(number)
	return &p, nil
}

const twilioAuthTokenQuery = `
	SELECT twilio_auth_token
	FROM contractor_profiles
	WHERE twilio_account_sid = $1 AND twilio_auth_token IS NOT NULL
	ORDER BY updated_at DESC
	LIMIT 1
`

// TwilioAuthToken finds the token Twilio signs a contractor's webhooks with.
func (r *PostgresRepository) TwilioAuthToken(ctx context.Context, accountSID string) (string, error) {
	accountSID = strings.TrimSpace(accountSID)
	if accountSID == "" {
		return "", nil
	}
	var token string
	if err := r.db.QueryRow(ctx, twilioAuthTokenQuery, accountSID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("projects: lookup twilio auth token: %w", err)
	}
	return token, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
