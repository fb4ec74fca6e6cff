package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

var fixedNow = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeUploader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeUploader) Upload(_ context.Context, ticketID, filename string, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[filename] {
		return "", errors.New("disk full")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.calls = append(f.calls, filename)
	return "/files/" + ticketID + "/" + filename, nil
}

type countingRecorder struct {
	mu        sync.Mutex
	conflicts int
}

func (c *countingRecorder) RecordConflict() {
	c.mu.Lock()
	c.conflicts++
	c.mu.Unlock()
}

// conflictingRepo fails the first n conditional writes as if another writer won.
type conflictingRepo struct {
	*repository.MemoryTicketRepository
	mu        sync.Mutex
	remaining int
}

func (r *conflictingRepo) Apply(ctx context.Context, id string, expectedVersion int, change repository.TicketChange) (*domain.Ticket, error) {
	r.mu.Lock()
	if r.remaining > 0 {
		r.remaining--
		r.mu.Unlock()
		return nil, repository.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.MemoryTicketRepository.Apply(ctx, id, expectedVersion, change)
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type ticketFixture struct {
	svc      *TicketService
	tickets  repository.TicketRepository
	users    *repository.MemoryUserRepository
	uploader *fakeUploader
	recorder *countingRecorder
	captured *capturedEvents
	notified []string
	mu       sync.Mutex
}

func (f *ticketFixture) Notify(ticketID string) {
	f.mu.Lock()
	f.notified = append(f.notified, ticketID)
	f.mu.Unlock()
}

func newTicketFixture(t *testing.T, tickets repository.TicketRepository, clock func() time.Time) *ticketFixture {
	t.Helper()
	if tickets == nil {
		tickets = repository.NewMemoryTicketRepository()
	}
	if clock == nil {
		clock = func() time.Time { return fixedNow }
	}
	users := repository.NewMemoryUserRepository()
	ctx := context.Background()
	for _, u := range []domain.User{
		{ID: adminActor.ID, Name: "ada admin", Email: adminActor.Email, Role: domain.RoleAdmin, Status: domain.UserStatusApproved},
		{ID: agentActor.ID, Name: "ivan petrov", Email: agentActor.Email, Role: domain.RoleIT, Status: domain.UserStatusApproved},
		{ID: otherAgent.ID, Name: "olga ops", Email: otherAgent.Email, Role: domain.RoleIT, Status: domain.UserStatusApproved},
		{ID: submitterActor.ID, Name: "nora nurse", Email: submitterActor.Email, Role: domain.RoleNurse, Status: domain.UserStatusApproved},
		{ID: strangerActor.ID, Name: "dan doctor", Email: strangerActor.Email, Role: domain.RoleDoctor, Status: domain.UserStatusApproved},
		{ID: "pending-it", Name: "pat pending", Email: "pending@example.org", Role: domain.RoleIT, Status: domain.UserStatusPending},
	} {
		u := u
		require.NoError(t, users.Create(ctx, &u))
	}

	f := &ticketFixture{
		tickets:  tickets,
		users:    users,
		uploader: &fakeUploader{fail: map[string]bool{}},
		recorder: &countingRecorder{},
		captured: &capturedEvents{},
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketAssigned, events.EventTicketCommentAdded} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.captured.mu.Lock()
			f.captured.events = append(f.captured.events, e)
			f.captured.mu.Unlock()
			return nil
		})
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Uploader:   f.uploader,
		Changes:    f,
		Dispatcher: dispatcher,
		Conflicts:  f.recorder,
		Clock:      clock,
	})
	return f
}

func (f *ticketFixture) create(t *testing.T) *domain.Ticket {
	t.Helper()
	res, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:       "Printer offline",
		Description: "Ward 3 printer shows offline",
		Department:  "pediatrics",
		Priority:    "high",
	})
	require.NoError(t, err)
	return res.Ticket
}

func fileInput(name, body string) AttachmentInput {
	return AttachmentInput{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}}
}

func TestCreateTicket(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ticket := f.create(t)

	assert.Equal(t, "TCK-2025-0001", ticket.TicketID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.AssignedTo)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, domain.DepartmentPediatrics, ticket.Department)
	assert.Equal(t, submitterActor.Email, ticket.SubmittedByEmail)
	require.Len(t, ticket.Comments, 1)
	assert.Equal(t, "Ticket created and added to the queue.", ticket.Comments[0].Content)
	assert.Equal(t, domain.CommentTypeSystem, ticket.Comments[0].Type)
	assert.Equal(t, domain.SystemAuthor, ticket.Comments[0].Author)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.captured.types())
	assert.Contains(t, f.notified, ticket.ID)

	second := f.create(t)
	assert.Equal(t, "TCK-2025-0002", second.TicketID)
}

func TestCreateTicketRejectsITAgents(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	_, err := f.svc.CreateTicket(context.Background(), agentActor, TicketCreateInput{Title: "x", Description: "y", Department: "it"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	_, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:      "   ",
		Department: "space-station",
		Priority:   "urgent",
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "title")
	assert.Contains(t, de.Details, "description")
	assert.Contains(t, de.Details, "department")
	assert.Contains(t, de.Details, "priority")
}

func TestCreateTicketStoresTextVerbatimAndDefaults(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	res, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:       "  NullPointer at <init> in Foo.java  ",
		Description: "paste: <config><host>db1</host></config> & check if a<b and c>d",
		Department:  "emergency",
	})
	require.NoError(t, err)
	assert.Equal(t, "NullPointer at <init> in Foo.java", res.Ticket.Title)
	assert.Equal(t, "paste: <config><host>db1</host></config> & check if a<b and c>d", res.Ticket.Description)
	assert.Equal(t, domain.TicketPriorityMedium, res.Ticket.Priority)
	assert.Equal(t, domain.DepartmentEmergencyMedicine, res.Ticket.Department)

	stored, err := f.tickets.GetByID(context.Background(), res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Ticket.Title, stored.Title)
	assert.Equal(t, res.Ticket.Description, stored.Description)
}

func TestCreateTicketCapsTitleLength(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	res, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:       strings.Repeat("é", maxTitleLength+20),
		Description: "long",
		Department:  "it",
	})
	require.NoError(t, err)
	assert.Equal(t, maxTitleLength, utf8.RuneCountInString(res.Ticket.Title))
}

type exhaustedRepo struct {
	*repository.MemoryTicketRepository
}

func (exhaustedRepo) Create(context.Context, *domain.Ticket) error {
	return domain.ErrTicketSequenceExhausted
}

func TestCreateTicketReportsExhaustedNumbering(t *testing.T) {
	f := newTicketFixture(t, exhaustedRepo{repository.NewMemoryTicketRepository()}, nil)
	_, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:       "Printer offline",
		Description: "Ward 3 printer shows offline",
		Department:  "pediatrics",
		Priority:    "high",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.captured.types())
}

func TestCreateTicketAttachmentFailureKeepsTicket(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	f.uploader.fail["broken.png"] = true

	res, err := f.svc.CreateTicket(context.Background(), submitterActor, TicketCreateInput{
		Title:       "Scanner",
		Description: "Jams",
		Department:  "radiology",
		Attachments: []AttachmentInput{fileInput("photo.png", "png"), fileInput("broken.png", "png")},
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "broken.png")
	assert.Equal(t, []string{"/files/" + res.Ticket.ID + "/photo.png"}, res.Ticket.Attachments)
	require.Len(t, res.Ticket.Comments, 1)

	stored, err := f.tickets.GetByID(context.Background(), res.Ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Attachments, 1)
}

func TestListViews(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	mine := f.create(t)
	_, err := f.svc.Claim(ctx, agentActor, mine.ID)
	require.NoError(t, err)
	f.create(t)

	t.Run("submitter mine", func(t *testing.T) {
		list, err := f.svc.ListTickets(ctx, submitterActor, "")
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("agent defaults to assigned", func(t *testing.T) {
		list, err := f.svc.ListTickets(ctx, agentActor, "")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)
	})

	t.Run("agent open queue", func(t *testing.T) {
		list, err := f.svc.ListTickets(ctx, otherAgent, ViewOpen)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Nil(t, list[0].AssignedTo)
	})

	t.Run("admin all", func(t *testing.T) {
		list, err := f.svc.ListTickets(ctx, adminActor, "")
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("forbidden views", func(t *testing.T) {
		_, err := f.svc.ListTickets(ctx, submitterActor, ViewAll)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		_, err = f.svc.ListTickets(ctx, submitterActor, ViewOpen)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		_, err = f.svc.ListTickets(ctx, agentActor, ViewAll)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		_, err = f.svc.ListTickets(ctx, agentActor, View("weird"))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestRecentTicketsLimitsToThree(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	for i := 0; i < 4; i++ {
		f.create(t)
	}
	list, err := f.svc.RecentTickets(context.Background(), submitterActor)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestGetTicket(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	byTCK, err := f.svc.GetTicket(ctx, submitterActor, strings.ToLower(ticket.TicketID))
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, byTCK.ID)

	_, err = f.svc.GetTicket(ctx, strangerActor, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.GetTicket(ctx, adminActor, "TCK-2025-9999")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdateStatus(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)
	_, err := f.svc.Claim(ctx, agentActor, ticket.ID)
	require.NoError(t, err)

	t.Run("unassigned agent refused", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, otherAgent, ticket.ID, domain.TicketStatusInProgress)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("submitter refused", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, submitterActor, ticket.ID, domain.TicketStatusResolved)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("assignee moves it along", func(t *testing.T) {
		updated, err := f.svc.UpdateStatus(ctx, agentActor, ticket.ID, domain.TicketStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
		last := updated.Comments[len(updated.Comments)-1]
		assert.Equal(t, "Ticket status changed to in progress.", last.Content)
		assert.Equal(t, domain.CommentTypeSystem, last.Type)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		before, err := f.tickets.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		after, err := f.svc.UpdateStatus(ctx, agentActor, ticket.ID, domain.TicketStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
		assert.Len(t, after.Comments, len(before.Comments))
	})

	t.Run("resolved locks the agent out", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, agentActor, ticket.ID, domain.TicketStatusResolved)
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(ctx, agentActor, ticket.ID, domain.TicketStatusOpen)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("admin reopens", func(t *testing.T) {
		updated, err := f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusOpen)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatus("closed"))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestLastUpdatedStrictlyAdvances(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	first, err := f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	second, err := f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)

	assert.True(t, first.LastUpdated.After(ticket.LastUpdated))
	assert.True(t, second.LastUpdated.After(first.LastUpdated))
}

func TestAssign(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	t.Run("target must be approved agent", func(t *testing.T) {
		for _, id := range []string{submitterActor.ID, "pending-it"} {
			id := id
			_, err := f.svc.Assign(ctx, adminActor, ticket.ID, &id)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), id)
		}
		missing := "ghost"
		_, err := f.svc.Assign(ctx, adminActor, ticket.ID, &missing)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("admin assigns", func(t *testing.T) {
		id := agentActor.ID
		updated, err := f.svc.Assign(ctx, adminActor, ticket.ID, &id)
		require.NoError(t, err)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, agentActor.ID, *updated.AssignedTo)
		assert.Equal(t, domain.TicketStatusOpen, updated.Status)
		assert.Equal(t, "Ticket assigned to Ivan Petrov.", updated.Comments[len(updated.Comments)-1].Content)
	})

	t.Run("non assignee agent cannot reassign", func(t *testing.T) {
		id := otherAgent.ID
		_, err := f.svc.Assign(ctx, otherAgent, ticket.ID, &id)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("assignee hands over", func(t *testing.T) {
		id := otherAgent.ID
		updated, err := f.svc.Assign(ctx, agentActor, ticket.ID, &id)
		require.NoError(t, err)
		assert.True(t, updated.IsAssignedTo(otherAgent.ID))
	})

	t.Run("unassign", func(t *testing.T) {
		updated, err := f.svc.Assign(ctx, adminActor, ticket.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.AssignedTo)
		assert.Equal(t, "Ticket unassigned.", updated.Comments[len(updated.Comments)-1].Content)
	})

	assert.Contains(t, f.captured.types(), events.EventTicketAssigned)
}

func TestClaim(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.Claim(ctx, adminActor, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	claimed, err := f.svc.Claim(ctx, agentActor, ticket.ID)
	require.NoError(t, err)
	assert.True(t, claimed.IsAssignedTo(agentActor.ID))
	assert.Equal(t, domain.TicketStatusOpen, claimed.Status)

	again, err := f.svc.Claim(ctx, agentActor, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, claimed.Version, again.Version)

	_, err = f.svc.Claim(ctx, otherAgent, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAddComment(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	updated, comment, err := f.svc.AddComment(ctx, submitterActor, ticket.ID, "  still <em>broken</em>, see if x<y  ")
	require.NoError(t, err)
	assert.Equal(t, "still <em>broken</em>, see if x<y", comment.Content)
	assert.Equal(t, domain.CommentTypeComment, comment.Type)
	assert.Equal(t, string(domain.RoleNurse), comment.AuthorRole)
	assert.NotEmpty(t, comment.ID)
	assert.Len(t, updated.Comments, 2)

	_, _, err = f.svc.AddComment(ctx, strangerActor, ticket.ID, "hello")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, _, err = f.svc.AddComment(ctx, submitterActor, ticket.ID, "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, _, err = f.svc.AddComment(ctx, submitterActor, ticket.ID, "thanks")
	assert.True(t, apperrors.HasCode(err, CodeTicketResolved))
}

func TestConcurrentCommentsAreAllKept(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	f.svc.maxRetries = 100
	ctx := context.Background()
	ticket := f.create(t)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.AddComment(ctx, submitterActor, ticket.ID, "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, writers+1)
	assert.Equal(t, writers+1, stored.Version)
}

func TestMutationRetriesOnConflict(t *testing.T) {
	repo := &conflictingRepo{MemoryTicketRepository: repository.NewMemoryTicketRepository()}
	f := newTicketFixture(t, repo, nil)
	ctx := context.Background()
	ticket := f.create(t)

	repo.remaining = 2
	updated, err := f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, 2, f.recorder.conflicts)

	repo.remaining = defaultMaxRetries
	_, err = f.svc.UpdateStatus(ctx, adminActor, ticket.ID, domain.TicketStatusOpen)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAddAttachments(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.AddAttachments(ctx, submitterActor, ticket.ID, []AttachmentInput{fileInput("a.txt", "a")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.Claim(ctx, agentActor, ticket.ID)
	require.NoError(t, err)

	res, err := f.svc.AddAttachments(ctx, agentActor, ticket.ID, []AttachmentInput{fileInput("log.txt", "boot")})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Ticket.Attachments, 1)

	f.uploader.fail["bad.txt"] = true
	_, err = f.svc.AddAttachments(ctx, agentActor, ticket.ID, []AttachmentInput{fileInput("bad.txt", "x")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestTicketStats(t *testing.T) {
	f := newTicketFixture(t, nil, nil)
	ctx := context.Background()
	a := f.create(t)
	f.create(t)
	_, err := f.svc.UpdateStatus(ctx, adminActor, a.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, agentActor)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Open: 1, InProgress: 0, ResolvedToday: 1}, stats)

	_, err = f.svc.Stats(ctx, submitterActor)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestStringPreview(t *testing.T) {
	assert.Equal(t, "short", stringPreview(" short ", 10))
	assert.Equal(t, "abcdefg...", stringPreview("abcdefghijklmnop", 10))
}
