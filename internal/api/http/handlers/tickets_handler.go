package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const attachmentsField = "attachments"

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service       *service.TicketService
	notifications *service.NotificationService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, notifications *service.NotificationService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, notifications: notifications}
}

// CreateTicket POST /api/tickets. Accepts JSON or multipart with attachments.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	files, err := multipartFiles(c)
	if err != nil {
		return err
	}

	result, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		Priority:    req.Priority,
		Attachments: files,
	})
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusCreated, dto.NewTicketResponse(result.Ticket),
		"Ticket "+result.Ticket.TicketID+" submitted.",
		fiber.Map{"warnings": warningsOrEmpty(result.Warnings)})
}

// AuthorizeAttachment guards the upload file server. The first path segment under
// prefix names the owning ticket; the caller must be allowed to view it.
func (h *TicketsHandler) AuthorizeAttachment(prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(c.Path(), prefix), "/")
		ticketID, file, _ := strings.Cut(rest, "/")
		if ticketID == "" || file == "" {
			return apperrors.NewNotFound("attachment", nil)
		}
		if _, err := h.service.GetTicket(c.UserContext(), actor, ticketID); err != nil {
			return err
		}
		return c.Next()
	}
}

// ListTickets GET /api/tickets?view=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, service.View(strings.ToLower(c.Query("view"))))
	if err != nil {
		return err
	}
	return respondData(c, dto.NewTicketList(tickets))
}

// RecentTickets GET /api/tickets/recent.
func (h *TicketsHandler) RecentTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.RecentTickets(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondData(c, dto.NewTicketList(tickets))
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondData(c, stats)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondData(c, dto.NewTicketResponse(ticket))
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := domain.TicketStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	ticket, err := h.service.UpdateStatus(c.UserContext(), actor, c.Params("id"), status)
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusOK, dto.NewTicketResponse(ticket),
		"Ticket status updated to "+ticket.Status.Label()+".", nil)
}

// Assign PATCH /api/tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), actor, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	message := "Ticket unassigned."
	if ticket.AssignedTo != nil {
		message = "Ticket " + ticket.TicketID + " reassigned."
	}
	return respondMutation(c, http.StatusOK, dto.NewTicketResponse(ticket), message, nil)
}

// Claim POST /api/tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Claim(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusOK, dto.NewTicketResponse(ticket),
		"Ticket "+ticket.TicketID+" has been assigned to you.", nil)
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusCreated, dto.NewTicketResponse(ticket), "Comment added.",
		fiber.Map{"comment": comment})
}

// AddAttachments POST /api/tickets/:id/attachments (multipart).
func (h *TicketsHandler) AddAttachments(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	files, err := multipartFiles(c)
	if err != nil {
		return err
	}
	result, err := h.service.AddAttachments(c.UserContext(), actor, c.Params("id"), files)
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusCreated, dto.NewTicketResponse(result.Ticket), "Attachments uploaded.",
		fiber.Map{"warnings": warningsOrEmpty(result.Warnings)})
}

// SendTicketEmail POST /api/send-ticket-email. Delivery happens after the response.
func (h *TicketsHandler) SendTicketEmail(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SendTicketEmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.notifications.RequestReceipt(c.UserContext(), actor, service.ReceiptRequest{
		Email:    req.Email,
		Name:     req.Name,
		Title:    req.Title,
		TicketID: req.TicketID,
	}); err != nil {
		return err
	}
	return respondMutation(c, http.StatusAccepted, nil, "Confirmation email queued.", nil)
}

// multipartFiles returns nil for non-multipart requests.
func multipartFiles(c *fiber.Ctx) ([]service.AttachmentInput, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart payload", nil)
	}
	headers := form.File[attachmentsField]
	files := make([]service.AttachmentInput, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.AttachmentInput{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files, nil
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}
