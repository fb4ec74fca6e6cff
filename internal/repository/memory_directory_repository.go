package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MemoryUserRepository is a process-local UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository creates an empty directory.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = domain.NormalizeEmail(user.Email)
	if _, ok := r.users[user.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *user
	updated.Email = existing.Email
	updated.CreatedAt = existing.CreatedAt
	r.users[user.ID] = updated
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.User{}
	for _, user := range r.users {
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		if len(filter.Roles) > 0 && !containsRole(filter.Roles, user.Role) {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryUserRepository) Stats(_ context.Context) (UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := UserStats{Total: len(r.users)}
	for _, user := range r.users {
		if user.Approved() {
			stats.Approved++
		}
	}
	return stats, nil
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// MemoryPasswordResetRepository is a process-local PasswordResetRepository.
type MemoryPasswordResetRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
}

// NewMemoryPasswordResetRepository creates an empty token store.
func NewMemoryPasswordResetRepository() *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{tokens: make(map[string]domain.PasswordResetToken)}
}

func (r *MemoryPasswordResetRepository) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	for _, existing := range r.tokens {
		if existing.Token == token.Token {
			return ErrDuplicate
		}
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	r.tokens[token.ID] = *token
	return nil
}

func (r *MemoryPasswordResetRepository) GetByToken(_ context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.Token == tokenStr {
			t := token
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPasswordResetRepository) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok || token.UsedAt != nil {
		return ErrNotFound
	}
	token.UsedAt = &at
	r.tokens[id] = token
	return nil
}

func (r *MemoryPasswordResetRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, token := range r.tokens {
		if token.ExpiresAt.Before(now) || token.UsedAt != nil {
			delete(r.tokens, id)
			purged++
		}
	}
	return purged, nil
}

// MemoryAlertRepository serves alerts fed in by tests or local tooling.
type MemoryAlertRepository struct {
	mu     sync.RWMutex
	alerts []domain.SystemAlert
}

// NewMemoryAlertRepository creates an empty alert feed.
func NewMemoryAlertRepository() *MemoryAlertRepository {
	return &MemoryAlertRepository{}
}

// Add records an alert.
func (r *MemoryAlertRepository) Add(alert domain.SystemAlert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	r.alerts = append(r.alerts, alert)
}

func (r *MemoryAlertRepository) ListRecent(_ context.Context, limit int) ([]domain.SystemAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := append([]domain.SystemAlert{}, r.alerts...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
