package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/primewheels/agent-service/internal/domain"
)

// MemoryAgentApplicationRepository keeps applications in process memory.
// It is used when no Postgres DSN is configured and mirrors the Postgres
// implementation's error contract (pgx.ErrNoRows, ErrDuplicateEmail).
type MemoryAgentApplicationRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.AgentApplication
	email map[string]string
	now   func() time.Time
}

// NewMemoryAgentApplicationRepository creates an empty repository.
func NewMemoryAgentApplicationRepository() *MemoryAgentApplicationRepository {
	return &MemoryAgentApplicationRepository{
		byID:  make(map[string]*domain.AgentApplication),
		email: make(map[string]string),
		now:   time.Now,
	}
}

// SetClock overrides the time source used for timestamps.
func (r *MemoryAgentApplicationRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryAgentApplicationRepository) Create(_ context.Context, app *domain.AgentApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.email[app.Email]; exists {
		return ErrDuplicateEmail
	}
	now := r.now()
	app.ID = uuid.NewString()
	app.CreatedAt = now
	app.UpdatedAt = now
	stored := *app
	r.byID[app.ID] = &stored
	r.email[app.Email] = app.ID
	return nil
}

func (r *MemoryAgentApplicationRepository) GetByID(_ context.Context, id string) (*domain.AgentApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (r *MemoryAgentApplicationRepository) GetByEmail(ctx context.Context, email string) (*domain.AgentApplication, error) {
	r.mu.RLock()
	id, ok := r.email[email]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryAgentApplicationRepository) List(_ context.Context, filter ApplicationFilter) ([]domain.AgentApplication, error) {
	matched := r.matching(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.AgentApplication{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemoryAgentApplicationRepository) Count(_ context.Context, filter ApplicationFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *MemoryAgentApplicationRepository) CountByStatus(_ context.Context) (map[domain.ApplicationStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.ApplicationStatus]int64)
	for _, app := range r.byID {
		counts[app.Status]++
	}
	return counts, nil
}

func (r *MemoryAgentApplicationRepository) Transition(_ context.Context, id string, to domain.ApplicationStatus, reviewerID string, reason *string) (*domain.AgentApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.byID[id]
	if !ok || app.Status != domain.ApplicationStatusPending {
		return nil, pgx.ErrNoRows
	}
	now := r.now()
	reviewer := reviewerID
	app.Status = to
	app.ReviewedBy = &reviewer
	app.ReviewedAt = &now
	app.RejectionReason = nil
	if reason != nil {
		value := *reason
		app.RejectionReason = &value
	}
	app.UpdatedAt = now
	clone := *app
	return &clone, nil
}

func (r *MemoryAgentApplicationRepository) matching(filter ApplicationFilter) []domain.AgentApplication {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AgentApplication, 0, len(r.byID))
	for _, app := range r.byID {
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		out = append(out, *app)
	}
	return out
}

// MemoryUserRepository is a fixed set of users keyed by id.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository seeds the repository with users.
func NewMemoryUserRepository(users ...domain.User) *MemoryUserRepository {
	repo := &MemoryUserRepository{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

// Put adds or replaces a user.
func (r *MemoryUserRepository) Put(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}
