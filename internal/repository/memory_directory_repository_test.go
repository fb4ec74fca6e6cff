package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	admin := &domain.User{Name: "Ada", Email: "Ada@Example.org", Role: domain.RoleAdmin, Status: domain.UserStatusApproved, CreatedAt: now}
	agent := &domain.User{Name: "Ivan", Email: "ivan@example.org", Role: domain.RoleIT, Status: domain.UserStatusApproved, CreatedAt: now.Add(time.Second)}
	nurse := &domain.User{Name: "Nia", Email: "nia@example.org", Role: domain.RoleNurse, Status: domain.UserStatusPending, CreatedAt: now.Add(2 * time.Second)}
	for _, u := range []*domain.User{admin, agent, nurse} {
		require.NoError(t, repo.Create(ctx, u))
	}

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{Email: "ada@example.org"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("lookup by email normalises", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, " ADA@example.org ")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
	})

	t.Run("filter by role", func(t *testing.T) {
		got, err := repo.List(ctx, UserFilter{Roles: []domain.Role{domain.RoleIT, domain.RoleAdmin}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("update keeps email and creation time", func(t *testing.T) {
		changed := *nurse
		changed.Status = domain.UserStatusApproved
		changed.Email = "other@example.org"
		require.NoError(t, repo.Update(ctx, &changed))

		got, err := repo.GetByID(ctx, nurse.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusApproved, got.Status)
		assert.Equal(t, "nia@example.org", got.Email)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, UserStats{Total: 3, Approved: 3}, stats)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "nope"}), ErrNotFound)
	})
}

func TestMemoryPasswordResetRepository(t *testing.T) {
	repo := NewMemoryPasswordResetRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	live := &domain.PasswordResetToken{UserID: "u1", Token: "live", ExpiresAt: now.Add(time.Hour)}
	stale := &domain.PasswordResetToken{UserID: "u1", Token: "stale", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	got, err := repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	require.NoError(t, repo.MarkUsed(ctx, live.ID, now))
	assert.ErrorIs(t, repo.MarkUsed(ctx, live.ID, now), ErrNotFound)

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	_, err = repo.GetByToken(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAlertRepositoryOrdersNewestFirst(t *testing.T) {
	repo := NewMemoryAlertRepository()
	now := time.Now().UTC()
	repo.Add(domain.SystemAlert{Type: domain.AlertTypeInfo, Message: "old", Timestamp: now.Add(-time.Hour)})
	repo.Add(domain.SystemAlert{Type: domain.AlertTypeCritical, Message: "new", Timestamp: now})

	got, err := repo.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Message)
}
