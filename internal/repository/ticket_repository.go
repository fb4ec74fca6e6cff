package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ticketSequenceLock is the advisory lock key serialising ticket id allocation.
const ticketSequenceLock int64 = 7_410_001

// TicketFilter captures the supported query shapes.
type TicketFilter struct {
	AssignedTo       *string
	Unassigned       bool
	Statuses         []domain.TicketStatus
	SubmittedByEmail *string
	Limit            int
}

// TicketChange is applied atomically by TicketRepository.Apply.
type TicketChange struct {
	Status            *domain.TicketStatus
	SetAssignee       bool
	AssignedTo        *string
	AppendComments    []domain.Comment
	AppendAttachments []string
	At                time.Time
}

// Empty reports whether the change would leave the record untouched.
func (c TicketChange) Empty() bool {
	return c.Status == nil && !c.SetAssignee && len(c.AppendComments) == 0 && len(c.AppendAttachments) == 0
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Apply(ctx context.Context, id string, expectedVersion int, change TicketChange) (*domain.Ticket, error)
	Stats(ctx context.Context, dayStart, dayEnd time.Time) (domain.TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_id, title, description, department, priority, status, submitted_by,
        submitted_by_email, submitted_by_id, assigned_to, attachments, comments, date_submitted,
        last_updated, version`

// Create allocates the human readable ticket id and inserts the record in one transaction.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	attachments, comments, err := marshalTicketLists(ticket.Attachments, ticket.Comments)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ticketSequenceLock); err != nil {
		return err
	}
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return err
	}
	ticketID, err := domain.FormatTicketID(ticket.DateSubmitted.Year(), count+1)
	if err != nil {
		return err
	}
	ticket.TicketID = ticketID
	ticket.Version = 1

	const query = `
        INSERT INTO tickets (id, ticket_id, title, description, department, priority, status, submitted_by,
            submitted_by_email, submitted_by_id, assigned_to, attachments, comments, date_submitted, last_updated, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb,$13::jsonb,$14,$15,$16)`
	if _, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Department,
		ticket.Priority,
		ticket.Status,
		ticket.SubmittedBy,
		ticket.SubmittedByEmail,
		ticket.SubmittedByID,
		ticket.AssignedTo,
		attachments,
		comments,
		ticket.DateSubmitted,
		ticket.LastUpdated,
		ticket.Version,
	); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, strings.ToUpper(ticketID)))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_to IS NULL")
	}
	if filter.SubmittedByEmail != nil {
		args = append(args, domain.NormalizeEmail(*filter.SubmittedByEmail))
		clauses = append(clauses, fmt.Sprintf("LOWER(submitted_by_email)=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY date_submitted DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// Apply performs a compare-and-swap on version. Comments and attachments are appended
// server side so concurrent appends never overwrite each other.
func (r *ticketRepository) Apply(ctx context.Context, id string, expectedVersion int, change TicketChange) (*domain.Ticket, error) {
	attachments, comments, err := marshalTicketLists(change.AppendAttachments, change.AppendComments)
	if err != nil {
		return nil, err
	}

	var status *string
	if change.Status != nil {
		s := string(*change.Status)
		status = &s
	}

	query := `
        UPDATE tickets SET
            status = COALESCE($3, status),
            assigned_to = CASE WHEN $4 THEN $5 ELSE assigned_to END,
            comments = comments || $6::jsonb,
            attachments = attachments || $7::jsonb,
            last_updated = $8,
            version = version + 1
        WHERE id=$1 AND version=$2
        RETURNING ` + ticketColumns

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		id,
		expectedVersion,
		status,
		change.SetAssignee,
		change.AssignedTo,
		comments,
		attachments,
		change.At,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, ErrNotFound
}

func (r *ticketRepository) Stats(ctx context.Context, dayStart, dayEnd time.Time) (domain.TicketStats, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE status='open'),
            COUNT(*) FILTER (WHERE status='in-progress'),
            COUNT(*) FILTER (WHERE status='resolved' AND last_updated >= $1 AND last_updated < $2)
        FROM tickets`
	var stats domain.TicketStats
	err := r.pool.QueryRow(ctx, query, dayStart, dayEnd).Scan(&stats.Open, &stats.InProgress, &stats.ResolvedToday)
	return stats, err
}

func marshalTicketLists(attachments []string, comments []domain.Comment) ([]byte, []byte, error) {
	if attachments == nil {
		attachments = []string{}
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	a, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, err
	}
	c, err := json.Marshal(comments)
	if err != nil {
		return nil, nil, err
	}
	return a, c, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		attachments []byte
		comments    []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Department,
		&ticket.Priority,
		&ticket.Status,
		&ticket.SubmittedBy,
		&ticket.SubmittedByEmail,
		&ticket.SubmittedByID,
		&ticket.AssignedTo,
		&attachments,
		&comments,
		&ticket.DateSubmitted,
		&ticket.LastUpdated,
		&ticket.Version,
	); err != nil {
		return nil, mapPgError(err)
	}
	if err := json.Unmarshal(attachments, &ticket.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := json.Unmarshal(comments, &ticket.Comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return &ticket, nil
}
