package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Multipart submissions use the same field names.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Department  string `json:"department" form:"department"`
	Priority    string `json:"priority" form:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload. A null or empty assignedTo unassigns.
type AssignTicketRequest struct {
	AssignedTo *string `json:"assignedTo"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// SendTicketEmailRequest asks for a receipt email.
type SendTicketEmailRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	TicketID string `json:"ticketId"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID               string                `json:"id"`
	TicketID         string                `json:"ticketId"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Department       domain.Department     `json:"department"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	SubmittedBy      string                `json:"submittedBy"`
	SubmittedByEmail string                `json:"submittedByEmail"`
	AssignedTo       *string               `json:"assignedTo"`
	Attachments      []string              `json:"attachments"`
	Comments         []domain.Comment      `json:"comments"`
	DateSubmitted    time.Time             `json:"dateSubmitted"`
	LastUpdated      time.Time             `json:"lastUpdated"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	comments := t.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return TicketResponse{
		ID:               t.ID,
		TicketID:         t.TicketID,
		Title:            t.Title,
		Description:      t.Description,
		Department:       t.Department,
		Priority:         t.Priority,
		Status:           t.Status,
		SubmittedBy:      t.SubmittedBy,
		SubmittedByEmail: t.SubmittedByEmail,
		AssignedTo:       t.AssignedTo,
		Attachments:      attachments,
		Comments:         comments,
		DateSubmitted:    t.DateSubmitted,
		LastUpdated:      t.LastUpdated,
	}
}

// NewTicketList maps a slice, never returning nil.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// AlertResponse is the wire shape of a system alert.
type AlertResponse struct {
	ID        string           `json:"id"`
	Type      domain.AlertType `json:"type"`
	Message   string           `json:"message"`
	Service   string           `json:"service"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewAlertList maps alerts.
func NewAlertList(alerts []domain.SystemAlert) []AlertResponse {
	items := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, AlertResponse{ID: a.ID, Type: a.Type, Message: a.Message, Service: a.Service, Timestamp: a.Timestamp})
	}
	return items
}
