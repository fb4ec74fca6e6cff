package repository

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var ticketIDPattern = regexp.MustCompile(`^TCK-\d{4}-\d{4}$`)

func newTicket(email string, at time.Time) *domain.Ticket {
	return &domain.Ticket{
		Title:            "Printer jam",
		Description:      "Ward 3 printer jammed",
		Department:       domain.DepartmentRadiology,
		Priority:         domain.TicketPriorityMedium,
		Status:           domain.TicketStatusOpen,
		SubmittedBy:      "Dana",
		SubmittedByEmail: email,
		DateSubmitted:    at,
		LastUpdated:      at,
	}
}

func strPtr(s string) *string { return &s }

func TestMemoryTicketRepositoryCreateAllocatesSequentialIDs(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	first := newTicket("dana@example.org", at)
	second := newTicket("dana@example.org", at.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, "TCK-2025-0001", first.TicketID)
	assert.Equal(t, "TCK-2025-0002", second.TicketID)
	assert.Equal(t, 1, first.Version)
	assert.NotEmpty(t, first.ID)

	got, err := repo.GetByTicketID(ctx, "tck-2025-0002")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestMemoryTicketRepositoryCreateStopsAtLastSequence(t *testing.T) {
	repo := NewMemoryTicketRepository()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i < domain.MaxTicketSequence; i++ {
		id := fmt.Sprintf("seed-%d", i)
		repo.tickets[id] = &domain.Ticket{ID: id}
	}

	last := newTicket("dana@example.org", at)
	require.NoError(t, repo.Create(context.Background(), last))
	assert.Equal(t, "TCK-2025-9999", last.TicketID)
	assert.Regexp(t, ticketIDPattern, last.TicketID)

	err := repo.Create(context.Background(), newTicket("dana@example.org", at))
	assert.ErrorIs(t, err, domain.ErrTicketSequenceExhausted)
	assert.Len(t, repo.tickets, domain.MaxTicketSequence)
}

func TestMemoryTicketRepositoryConcurrentCreateKeepsIDsUnique(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	at := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Create(ctx, newTicket(fmt.Sprintf("u%d@example.org", i), at)))
		}(i)
	}
	wg.Wait()

	all, err := repo.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 50)

	seen := map[string]bool{}
	for _, ticket := range all {
		assert.Regexp(t, ticketIDPattern, ticket.TicketID)
		assert.False(t, seen[ticket.TicketID], "duplicate %s", ticket.TicketID)
		seen[ticket.TicketID] = true
	}
}

func TestMemoryTicketRepositoryListFilters(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	at := time.Now().UTC()

	open := newTicket("a@example.org", at)
	assigned := newTicket("b@example.org", at.Add(time.Second))
	resolved := newTicket("A@Example.org", at.Add(2*time.Second))
	for _, ticket := range []*domain.Ticket{open, assigned, resolved} {
		require.NoError(t, repo.Create(ctx, ticket))
	}

	inProgress := domain.TicketStatusInProgress
	_, err := repo.Apply(ctx, assigned.ID, 1, TicketChange{Status: &inProgress, SetAssignee: true, AssignedTo: strPtr("agent-1"), At: at})
	require.NoError(t, err)
	done := domain.TicketStatusResolved
	_, err = repo.Apply(ctx, resolved.ID, 1, TicketChange{Status: &done, At: at})
	require.NoError(t, err)

	t.Run("assigned to", func(t *testing.T) {
		got, err := repo.List(ctx, TicketFilter{AssignedTo: strPtr("agent-1")})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, assigned.ID, got[0].ID)
	})

	t.Run("assigned to nobody matches", func(t *testing.T) {
		got, err := repo.List(ctx, TicketFilter{AssignedTo: strPtr("agent-404")})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("open unassigned", func(t *testing.T) {
		got, err := repo.List(ctx, TicketFilter{Unassigned: true, Statuses: []domain.TicketStatus{domain.TicketStatusOpen}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, open.ID, got[0].ID)
		assert.Nil(t, got[0].AssignedTo)
	})

	t.Run("by submitter is case insensitive and newest first", func(t *testing.T) {
		got, err := repo.List(ctx, TicketFilter{SubmittedByEmail: strPtr("a@example.org")})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, resolved.ID, got[0].ID)
		assert.Equal(t, open.ID, got[1].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.List(ctx, TicketFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestMemoryTicketRepositoryApplyIsConditional(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	at := time.Now().UTC()
	ticket := newTicket("a@example.org", at)
	require.NoError(t, repo.Create(ctx, ticket))

	first := domain.Comment{ID: "c1", Author: "A", Content: "one", Type: domain.CommentTypeComment}
	updated, err := repo.Apply(ctx, ticket.ID, 1, TicketChange{AppendComments: []domain.Comment{first}, At: at.Add(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, at.Add(time.Second), updated.LastUpdated)

	_, err = repo.Apply(ctx, ticket.ID, 1, TicketChange{AppendComments: []domain.Comment{{ID: "c2"}}, At: at})
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = repo.Apply(ctx, "missing", 1, TicketChange{At: at})
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "c1", stored.Comments[0].ID)
}

func TestMemoryTicketRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	ticket := newTicket("a@example.org", time.Now())
	require.NoError(t, repo.Create(ctx, ticket))

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Comments = append(got.Comments, domain.Comment{ID: "sneaky"})
	got.Status = domain.TicketStatusResolved

	again, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Comments)
	assert.Equal(t, domain.TicketStatusOpen, again.Status)
}

func TestMemoryTicketRepositoryStats(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	dayStart := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	statuses := []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusOpen, domain.TicketStatusInProgress}
	for _, status := range statuses {
		ticket := newTicket("a@example.org", dayStart)
		require.NoError(t, repo.Create(ctx, ticket))
		s := status
		_, err := repo.Apply(ctx, ticket.ID, 1, TicketChange{Status: &s, At: dayStart.Add(time.Hour)})
		require.NoError(t, err)
	}
	resolved := domain.TicketStatusResolved
	today := newTicket("a@example.org", dayStart)
	yesterday := newTicket("a@example.org", dayStart)
	require.NoError(t, repo.Create(ctx, today))
	require.NoError(t, repo.Create(ctx, yesterday))
	_, err := repo.Apply(ctx, today.ID, 1, TicketChange{Status: &resolved, At: dayStart.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = repo.Apply(ctx, yesterday.ID, 1, TicketChange{Status: &resolved, At: dayStart.Add(-time.Hour)})
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, dayStart, dayEnd)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Open: 2, InProgress: 1, ResolvedToday: 1}, stats)
}
