package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/feed"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	defaultMaxRetries = 5
	recentTicketLimit = 3
	maxTitleLength    = 200
	maxTextLength     = 10000
)

// View selects one of the role-relevant ticket query shapes.
type View string

const (
	ViewMine     View = "mine"
	ViewAssigned View = "assigned"
	ViewOpen     View = "open"
	ViewAll      View = "all"
)

// DefaultView picks the landing list for a role.
func DefaultView(role domain.Role) View {
	switch role {
	case domain.RoleAdmin:
		return ViewAll
	case domain.RoleIT:
		return ViewAssigned
	default:
		return ViewMine
	}
}

// ConflictRecorder counts detected lost-update races.
type ConflictRecorder interface {
	RecordConflict()
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	uploader   storage.Uploader
	changes    feed.ChangeNotifier
	dispatcher events.Dispatcher
	conflicts  ConflictRecorder
	logger     *zap.Logger
	maxFiles   int
	maxRetries int
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Uploader   storage.Uploader
	Changes    feed.ChangeNotifier
	Dispatcher events.Dispatcher
	Conflicts  ConflictRecorder
	Logger     *zap.Logger
	MaxFiles   int
	MaxRetries int
	Clock      func() time.Time
}

// AttachmentInput is a file supplied with a request.
type AttachmentInput struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Department  string
	Priority    string
	Attachments []AttachmentInput
}

// MutationResult is a write that succeeded, possibly with failed side effects.
type MutationResult struct {
	Ticket   *domain.Ticket
	Warnings []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		uploader:   deps.Uploader,
		changes:    deps.Changes,
		dispatcher: deps.Dispatcher,
		conflicts:  deps.Conflicts,
		logger:     deps.Logger,
		maxFiles:   deps.MaxFiles,
		maxRetries: deps.MaxRetries,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}
	if s.maxFiles <= 0 {
		s.maxFiles = 5
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// CreateTicket files a ticket, seeds its trail, then uploads attachments. Upload
// failures are reported as warnings and never undo the ticket.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*MutationResult, error) {
	if !CanCreate(actor) {
		return nil, apperrors.NewForbidden("IT agents do not submit tickets")
	}

	details := map[string]any{}
	title := cleanText(input.Title, maxTitleLength)
	description := cleanText(input.Description, maxTextLength)
	if title == "" {
		details["title"] = "required"
	}
	if description == "" {
		details["description"] = "required"
	}
	department, ok := domain.ParseDepartment(input.Department)
	if !ok {
		details["department"] = "unknown department"
	}
	priority := domain.TicketPriority(strings.ToLower(strings.TrimSpace(input.Priority)))
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		details["priority"] = "must be one of low, medium, high"
	}
	if len(input.Attachments) > s.maxFiles {
		details["attachments"] = "too many files"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	now := s.now()
	ticket := &domain.Ticket{
		Title:            title,
		Description:      description,
		Department:       department,
		Priority:         priority,
		Status:           domain.TicketStatusOpen,
		SubmittedBy:      actor.Name,
		SubmittedByEmail: actor.Email,
		SubmittedByID:    actor.ID,
		Attachments:      []string{},
		Comments:         []domain.Comment{systemComment(ticketCreatedComment, now)},
		DateSubmitted:    now,
		LastUpdated:      now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrTicketSequenceExhausted) {
			s.logger.Error("ticket ids exhausted", zap.Int("max_sequence", domain.MaxTicketSequence))
			return nil, apperrors.NewConflict("ticket numbering is exhausted", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.TicketID), zap.String("submitter", actor.ID))

	result := &MutationResult{Ticket: ticket}
	if len(input.Attachments) > 0 {
		updated, warnings := s.attach(ctx, ticket, input.Attachments)
		result.Warnings = warnings
		if updated != nil {
			result.Ticket = updated
		}
	}

	s.changed(result.Ticket.ID)
	s.publishEvent(ctx, events.EventTicketCreated, actor, result.Ticket.ID, events.TicketCreatedPayload{
		TicketID:       ticket.TicketID,
		Title:          ticket.Title,
		Priority:       ticket.Priority,
		Department:     ticket.Department,
		SubmitterName:  actor.Name,
		SubmitterEmail: actor.Email,
	})
	return result, nil
}

// ViewQuery returns the repository query backing a view after checking the actor may
// use it. The same query serves one-shot lists and live subscriptions.
func (s *TicketService) ViewQuery(actor domain.Actor, view View) (feed.Query, error) {
	if view == "" {
		view = DefaultView(actor.Role)
	}
	var filter repository.TicketFilter
	switch view {
	case ViewMine:
		email := actor.Email
		filter.SubmittedByEmail = &email
	case ViewAssigned:
		if !actor.Role.IsAgent() {
			return nil, apperrors.NewForbidden("only agents have assigned tickets")
		}
		id := actor.ID
		filter.AssignedTo = &id
	case ViewOpen:
		if !actor.Role.IsAgent() {
			return nil, apperrors.NewForbidden("only agents may browse the open queue")
		}
		filter.Unassigned = true
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusOpen}
	case ViewAll:
		if actor.Role != domain.RoleAdmin {
			return nil, apperrors.NewForbidden("only admins may list all tickets")
		}
	default:
		return nil, apperrors.NewValidationError("unknown view", map[string]any{"view": view})
	}
	return func(ctx context.Context) ([]domain.Ticket, error) {
		return s.tickets.List(ctx, filter)
	}, nil
}

// ListTickets runs a view once.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, view View) ([]domain.Ticket, error) {
	query, err := s.ViewQuery(actor, view)
	if err != nil {
		return nil, err
	}
	tickets, err := query(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// RecentTickets returns the caller's latest submissions.
func (s *TicketService) RecentTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	email := actor.Email
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{SubmittedByEmail: &email, Limit: recentTicketLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket resolves a storage id or a TCK- identifier.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return ticket, nil
}

// Stats returns dashboard counters for the current UTC day.
func (s *TicketService) Stats(ctx context.Context, actor domain.Actor) (domain.TicketStats, error) {
	if !actor.Role.IsAgent() {
		return domain.TicketStats{}, apperrors.NewForbidden("statistics are available to agents")
	}
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats, err := s.tickets.Stats(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return domain.TicketStats{}, apperrors.MapError(err)
	}
	return stats, nil
}

// UpdateStatus moves the ticket to status and records one system comment.
func (s *TicketService) UpdateStatus(ctx context.Context, actor domain.Actor, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	var previous domain.TicketStatus
	ticket, changed, err := s.mutate(ctx, id, func(t *domain.Ticket, at time.Time) (repository.TicketChange, error) {
		if !CanChangeStatus(actor, t) {
			return repository.TicketChange{}, apperrors.NewForbidden("you may not change the status of this ticket")
		}
		if t.Status == status {
			return repository.TicketChange{}, nil
		}
		previous = t.Status
		next := status
		return repository.TicketChange{
			Status:         &next,
			AppendComments: []domain.Comment{systemComment(statusChangedComment(status), at)},
		}, nil
	})
	if err != nil || !changed {
		return ticket, err
	}
	s.publishEvent(ctx, events.EventTicketStatusChanged, actor, ticket.ID, events.TicketStatusChangedPayload{
		OldStatus: previous,
		NewStatus: status,
	})
	return ticket, nil
}

// Assign sets or clears the assignee. A nil assigneeID unassigns.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, id string, assigneeID *string) (*domain.Ticket, error) {
	var assignee *domain.User
	if assigneeID != nil && strings.TrimSpace(*assigneeID) != "" {
		user, err := s.users.GetByID(ctx, strings.TrimSpace(*assigneeID))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"id": *assigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		if !ValidAssignee(user) {
			return nil, apperrors.NewValidationError("assignee must be an approved IT or admin user", map[string]any{"id": user.ID})
		}
		assignee = user
	}

	return s.assign(ctx, actor, id, assignee, func(t *domain.Ticket) error {
		if !CanReassign(actor, t) {
			return apperrors.NewForbidden("you may not reassign this ticket")
		}
		return nil
	})
}

// Claim assigns an unassigned ticket to the calling IT agent.
func (s *TicketService) Claim(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleIT {
		return nil, apperrors.NewForbidden("only IT agents may claim tickets")
	}
	self, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": actor.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.assign(ctx, actor, id, self, func(t *domain.Ticket) error {
		if t.IsAssignedTo(actor.ID) {
			return nil
		}
		if !CanClaim(actor, t) || !ValidAssignee(self) {
			return apperrors.NewConflict("ticket is no longer available to claim", map[string]any{"ticket_id": t.TicketID})
		}
		return nil
	})
}

var errNoLongerHeld = errors.New("ticket no longer held by user")

// ReleaseAssignments unassigns every unresolved ticket held by userID. The directory
// calls it when a user stops being a valid assignee; actor must already be an admin.
func (s *TicketService) ReleaseAssignments(ctx context.Context, actor domain.Actor, userID string) (int, error) {
	held, err := s.tickets.List(ctx, repository.TicketFilter{
		AssignedTo: &userID,
		Statuses:   []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	released := 0
	for _, t := range held {
		_, err := s.assign(ctx, actor, t.ID, nil, func(current *domain.Ticket) error {
			if !current.IsAssignedTo(userID) || current.Resolved() {
				return errNoLongerHeld
			}
			return nil
		})
		switch {
		case err == nil:
			released++
		case errors.Is(err, errNoLongerHeld):
		default:
			return released, err
		}
	}
	if released > 0 {
		s.logger.Info("assignments released",
			zap.String("user_id", userID),
			zap.Int("tickets", released),
			zap.String("by", actor.ID))
	}
	return released, nil
}

func (s *TicketService) assign(ctx context.Context, actor domain.Actor, id string, assignee *domain.User, authorize func(*domain.Ticket) error) (*domain.Ticket, error) {
	var target *string
	if assignee != nil {
		target = &assignee.ID
	}
	ticket, changed, err := s.mutate(ctx, id, func(t *domain.Ticket, at time.Time) (repository.TicketChange, error) {
		if err := authorize(t); err != nil {
			return repository.TicketChange{}, err
		}
		if sameAssignee(t.AssignedTo, target) {
			return repository.TicketChange{}, nil
		}
		return repository.TicketChange{
			SetAssignee:    true,
			AssignedTo:     target,
			AppendComments: []domain.Comment{systemComment(assignmentComment(assignee), at)},
		}, nil
	})
	if err != nil || !changed {
		return ticket, err
	}
	payload := events.TicketAssignedPayload{AssigneeID: target}
	if assignee != nil {
		payload.AssigneeName = assignee.DisplayName()
	}
	s.publishEvent(ctx, events.EventTicketAssigned, actor, ticket.ID, payload)
	return ticket, nil
}

// AddComment appends a human comment.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, id, content string) (*domain.Ticket, *domain.Comment, error) {
	body := cleanText(content, maxTextLength)
	if body == "" {
		return nil, nil, apperrors.NewValidationError("comment is empty", map[string]any{"content": "required"})
	}
	var added domain.Comment
	ticket, _, err := s.mutate(ctx, id, func(t *domain.Ticket, at time.Time) (repository.TicketChange, error) {
		if err := CanComment(actor, t); err != nil {
			return repository.TicketChange{}, err
		}
		added = domain.Comment{
			ID:         uuid.NewString(),
			Author:     actor.Name,
			AuthorRole: string(actor.Role),
			Content:    body,
			Timestamp:  at,
			Type:       domain.CommentTypeComment,
		}
		return repository.TicketChange{AppendComments: []domain.Comment{added}}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.publishEvent(ctx, events.EventTicketCommentAdded, actor, ticket.ID, events.TicketCommentAddedPayload{
		CommentID:   added.ID,
		Author:      added.Author,
		AuthorRole:  added.AuthorRole,
		BodyPreview: stringPreview(added.Content, 120),
	})
	return ticket, &added, nil
}

// AddAttachments uploads files for the assigned agent.
func (s *TicketService) AddAttachments(ctx context.Context, actor domain.Actor, id string, files []AttachmentInput) (*MutationResult, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no files supplied", nil)
	}
	if len(files) > s.maxFiles {
		return nil, apperrors.NewValidationError("too many files", map[string]any{"max": s.maxFiles})
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanUploadAttachment(actor, ticket) {
		return nil, apperrors.NewForbidden("only the assigned agent may add attachments")
	}
	updated, warnings := s.attach(ctx, ticket, files)
	if updated == nil {
		return nil, apperrors.NewValidationError("no attachment could be stored", map[string]any{"warnings": warnings})
	}
	s.changed(updated.ID)
	return &MutationResult{Ticket: updated, Warnings: warnings}, nil
}

// attach uploads files and appends the stored URLs. It returns nil when nothing was
// stored.
func (s *TicketService) attach(ctx context.Context, ticket *domain.Ticket, files []AttachmentInput) (*domain.Ticket, []string) {
	var (
		urls     []string
		warnings []string
	)
	for _, file := range files {
		url, err := s.upload(ctx, ticket.ID, file)
		if err != nil {
			s.logger.Warn("attachment upload failed",
				zap.String("ticket_id", ticket.TicketID),
				zap.String("file", file.Name),
				zap.Error(err))
			warnings = append(warnings, "attachment "+storage.SanitizeName(file.Name)+" could not be uploaded")
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return nil, warnings
	}

	updated, _, err := s.mutate(ctx, ticket.ID, func(*domain.Ticket, time.Time) (repository.TicketChange, error) {
		return repository.TicketChange{AppendAttachments: urls}, nil
	})
	if err != nil {
		s.logger.Error("recording attachments failed", zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		return nil, append(warnings, "attachments were uploaded but could not be linked to the ticket")
	}
	return updated, warnings
}

func (s *TicketService) upload(ctx context.Context, ticketID string, file AttachmentInput) (string, error) {
	if s.uploader == nil {
		return "", errors.New("attachment storage not configured")
	}
	r, err := file.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	return s.uploader.Upload(ctx, ticketID, file.Name, r)
}

// mutate runs read, authorize, conditional write. On a version conflict the whole
// sequence is retried against fresh state. build returning an empty change is a no-op.
func (s *TicketService) mutate(ctx context.Context, id string, build func(*domain.Ticket, time.Time) (repository.TicketChange, error)) (*domain.Ticket, bool, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		ticket, err := s.load(ctx, id)
		if err != nil {
			return nil, false, err
		}
		at := s.now()
		if !at.After(ticket.LastUpdated) {
			at = ticket.LastUpdated.Add(time.Microsecond)
		}
		change, err := build(ticket, at)
		if err != nil {
			return nil, false, err
		}
		if change.Empty() {
			return ticket, false, nil
		}
		change.At = at

		updated, err := s.tickets.Apply(ctx, ticket.ID, ticket.Version, change)
		switch {
		case err == nil:
			s.changed(updated.ID)
			return updated, true, nil
		case errors.Is(err, repository.ErrVersionConflict):
			s.logger.Warn("concurrent ticket update detected, retrying",
				zap.String("ticket_id", ticket.TicketID),
				zap.Int("version", ticket.Version),
				zap.Int("attempt", attempt))
			if s.conflicts != nil {
				s.conflicts.RecordConflict()
			}
		case errors.Is(err, repository.ErrNotFound):
			return nil, false, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		default:
			return nil, false, apperrors.MapError(err)
		}
	}
	return nil, false, apperrors.NewConflict("ticket is being modified concurrently, please retry", map[string]any{"id": id})
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	id = strings.TrimSpace(id)
	var (
		ticket *domain.Ticket
		err    error
	)
	if strings.HasPrefix(strings.ToUpper(id), "TCK-") {
		ticket, err = s.tickets.GetByTicketID(ctx, id)
	} else {
		ticket, err = s.tickets.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) changed(ticketID string) {
	if s.changes != nil {
		s.changes.Notify(ticketID)
	}
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, actor domain.Actor, ticketID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, events.ActorOf(actor), s.now(), payload)
	event.TicketID = ticketID
	_ = s.dispatcher.Publish(context.WithoutCancel(ctx), event)
}

// cleanText trims and bounds free text. Content is stored as typed; escaping happens
// where it is rendered.
func cleanText(val string, max int) string {
	cleaned := strings.TrimSpace(val)
	if runes := []rune(cleaned); len(runes) > max {
		cleaned = string(runes[:max])
	}
	return cleaned
}

func systemComment(content string, at time.Time) domain.Comment {
	return domain.Comment{
		ID:         uuid.NewString(),
		Author:     domain.SystemAuthor,
		AuthorRole: "system",
		Content:    content,
		Timestamp:  at,
		Type:       domain.CommentTypeSystem,
	}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
