package projects

import (
	"context"
	"strings"
	"sync"
)

// Repository looks up projects for inbound client messages.
type Repository interface {
	FindByClientPhone(ctx context.Context, phone string) (*Project, error)
	// TwilioAuthToken returns the auth token of the contractor owning a
	// Twilio account, or "" when no contractor uses that account.
	TwilioAuthToken(ctx context.Context, accountSID string) (string, error)
}

// InMemoryRepository backs local development and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	projects []*Project
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository(seed ...Project) *InMemoryRepository {
	r := &InMemoryRepository{}
	for _, p := range seed {
		r.Add(p)
	}
	return r
}

// Add stores a copy of the project. Later additions win on phone collisions.
func (r *InMemoryRepository) Add(p Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.projects = append(r.projects, &cp)
}

// FindByClientPhone returns the most recently added project whose client phone matches exactly.
func (r *InMemoryRepository) FindByClientPhone(ctx context.Context, phone string) (*Project, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.projects) - 1; i >= 0; i-- {
		if r.projects[i].ClientPhone == phone {
			cp := *r.projects[i]
			return &cp, nil
		}
	}
	return nil, ErrProjectNotFound
}

func (r *InMemoryRepository) TwilioAuthToken(ctx context.Context, accountSID string) (string, error) {
	accountSID = strings.TrimSpace(accountSID)
	if accountSID == "" {
		return "", nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.projects) - 1; i >= 0; i-- {
		if c := r.projects[i].Contractor; c.TwilioAccountSID == accountSID && c.TwilioAuthToken != "" {
			return c.TwilioAuthToken, nil
		}
	}
	return "", nil
}
