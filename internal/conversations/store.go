package conversations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRecord is returned when a record is missing required fields.
var ErrInvalidRecord = errors.New("conversations: from, channel and handled_by are required")

// Store appends audit records and serves the read-only admin views.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]Record, error)
	ListNeedingAttention(ctx context.Context, limit int) ([]Record, error)
}

const defaultListLimit = 50

func prepare(rec *Record, now time.Time) error {
	if rec == nil || strings.TrimSpace(rec.From) == "" || rec.Channel == "" || rec.HandledBy == "" {
		return ErrInvalidRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Direction == "" {
		rec.Direction = DirectionInbound
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}

// InMemoryStore keeps records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

func (s *InMemoryStore) Append(ctx context.Context, rec *Record) error {
	if err := prepare(rec, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append(s.records, *rec)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) ListByProject(ctx context.Context, projectID string, limit int) ([]Record, error) {
	return s.filter(limit, func(r Record) bool {
		return r.ProjectID != nil && *r.ProjectID == projectID
	}), nil
}

func (s *InMemoryStore) ListNeedingAttention(ctx context.Context, limit int) ([]Record, error) {
	return s.filter(limit, func(r Record) bool { return r.NeedsAttention }), nil
}

// All returns every record in insertion order.
func (s *InMemoryStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *InMemoryStore) filter(limit int, keep func(Record) bool) []Record {
	limit = normalizeLimit(limit)
	s.mu.RLock()
	var out []Record
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
