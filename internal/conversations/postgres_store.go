package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists conversation records. Rows are only ever inserted.
type PostgresStore struct {
	db  Querier
	now func() time.Time
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(db Querier) *PostgresStore {
	if db == nil {
		panic("conversations: pgx pool required")
	}
	return &PostgresStore{db: db, now: time.Now}
}

const insertRecordQuery = `
	INSERT INTO conversations (
		id, project_id, from_address, to_address, channel, direction, body,
		ai_response, ai_confidence, intent, needs_attention, handled_by, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

// Append inserts one record.
func (s *PostgresStore) Append(ctx context.Context, rec *Record) error {
	if err := prepare(rec, s.now()); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, insertRecordQuery,
		rec.ID,
		rec.ProjectID,
		rec.From,
		rec.To,
		rec.Channel,
		rec.Direction,
		rec.Body,
		rec.AIResponse,
		rec.AIConfidence,
		rec.Intent,
		rec.NeedsAttention,
		string(rec.HandledBy),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("conversations: insert record: %w", err)
	}
	return nil
}

const selectRecordColumns = `
	SELECT id, project_id, from_address, to_address, channel, direction, body,
		ai_response, ai_confidence, intent, needs_attention, handled_by, created_at
	FROM conversations
`

// ListByProject returns the newest records for a project.
func (s *PostgresStore) ListByProject(ctx context.Context, projectID string, limit int) ([]Record, error) {
	query := selectRecordColumns + ` WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.list(ctx, query, projectID, normalizeLimit(limit))
}

// ListNeedingAttention returns the newest records still waiting for a human.
func (s *PostgresStore) ListNeedingAttention(ctx context.Context, limit int) ([]Record, error) {
	query := selectRecordColumns + ` WHERE needs_attention = true ORDER BY created_at DESC LIMIT $1`
	return s.list(ctx, query, normalizeLimit(limit))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversations: list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			handledBy string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ProjectID,
			&rec.From,
			&rec.To,
			&rec.Channel,
			&rec.Direction,
			&rec.Body,
			&rec.AIResponse,
			&rec.AIConfidence,
			&rec.Intent,
			&rec.NeedsAttention,
			&handledBy,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("conversations: scan record: %w", err)
		}
		rec.HandledBy = HandledBy(handledBy)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: iterate records: %w", err)
	}
	return out, nil
}
