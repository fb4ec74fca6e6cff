package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MemoryTicketRepository is a process-local TicketRepository used in tests and when no
// database is configured.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryTicketRepository creates an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if _, ok := r.tickets[ticket.ID]; ok {
		return ErrDuplicate
	}
	ticketID, err := domain.FormatTicketID(ticket.DateSubmitted.Year(), len(r.tickets)+1)
	if err != nil {
		return err
	}
	ticket.TicketID = ticketID
	ticket.Version = 1
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (r *MemoryTicketRepository) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ticket := range r.tickets {
		if strings.EqualFold(ticket.TicketID, ticketID) {
			return cloneTicket(ticket), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Ticket{}
	for _, ticket := range r.tickets {
		if matchesTicketFilter(ticket, filter) {
			result = append(result, *cloneTicket(ticket))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DateSubmitted.Equal(result[j].DateSubmitted) {
			return result[i].TicketID > result[j].TicketID
		}
		return result[i].DateSubmitted.After(result[j].DateSubmitted)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryTicketRepository) Apply(_ context.Context, id string, expectedVersion int, change TicketChange) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	next := cloneTicket(ticket)
	if change.Status != nil {
		next.Status = *change.Status
	}
	if change.SetAssignee {
		next.AssignedTo = cloneString(change.AssignedTo)
	}
	next.Comments = append(next.Comments, change.AppendComments...)
	next.Attachments = append(next.Attachments, change.AppendAttachments...)
	next.LastUpdated = change.At
	next.Version++

	r.tickets[id] = next
	return cloneTicket(next), nil
}

func (r *MemoryTicketRepository) Stats(_ context.Context, dayStart, dayEnd time.Time) (domain.TicketStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.TicketStats
	for _, ticket := range r.tickets {
		switch ticket.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			if !ticket.LastUpdated.Before(dayStart) && ticket.LastUpdated.Before(dayEnd) {
				stats.ResolvedToday++
			}
		}
	}
	return stats, nil
}

func matchesTicketFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.AssignedTo != nil && !ticket.IsAssignedTo(*filter.AssignedTo) {
		return false
	}
	if filter.Unassigned && ticket.AssignedTo != nil {
		return false
	}
	if filter.SubmittedByEmail != nil && !ticket.IsSubmitter(*filter.SubmittedByEmail) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	out := *t
	out.AssignedTo = cloneString(t.AssignedTo)
	out.Attachments = append([]string{}, t.Attachments...)
	out.Comments = append([]domain.Comment{}, t.Comments...)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
