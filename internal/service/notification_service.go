package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notification"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// EmailQueue hands messages to background delivery.
type EmailQueue interface {
	SendAsync(kind notification.Kind, to, name string, data pongo2.Context)
}

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      EmailQueue
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue EmailQueue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketReceipt)
	n.dispatcher.Subscribe(events.EventTicketReceiptRequested, n.handleTicketReceipt)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventUserApproved, n.handleUserApproved)
	n.dispatcher.Subscribe(events.EventUserRejected, n.handleUserRejected)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordReset)
}

// ReceiptRequest asks for a ticket confirmation email.
type ReceiptRequest struct {
	Email    string
	Name     string
	Title    string
	TicketID string
}

// RequestReceipt validates and queues a receipt. Delivery happens after the call returns.
func (n *NotificationService) RequestReceipt(ctx context.Context, actor domain.Actor, req ReceiptRequest) error {
	details := map[string]any{}
	if !strings.Contains(req.Email, "@") {
		details["email"] = "invalid email"
	}
	if strings.TrimSpace(req.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(req.TicketID) == "" {
		details["ticketId"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid receipt request", details)
	}
	if n.dispatcher == nil {
		return nil
	}
	event := events.New(events.EventTicketReceiptRequested, events.ActorOf(actor), time.Now().UTC(), events.TicketCreatedPayload{
		TicketID:       strings.TrimSpace(req.TicketID),
		Title:          strings.TrimSpace(req.Title),
		SubmitterName:  strings.TrimSpace(req.Name),
		SubmitterEmail: domain.NormalizeEmail(req.Email),
	})
	return n.dispatcher.Publish(context.WithoutCancel(ctx), event)
}

func (n *NotificationService) handleTicketReceipt(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.SubmitterEmail == "" {
		return nil
	}
	n.queue.SendAsync(notification.KindTicketReceived, payload.SubmitterEmail, payload.SubmitterName, pongo2.Context{
		"name":      fallbackName(payload.SubmitterName),
		"title":     payload.Title,
		"ticket_id": payload.TicketID,
	})
	return nil
}

func (n *NotificationService) handleUserApproved(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserStatusPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.queue.SendAsync(notification.KindAccountApproved, payload.Email, payload.Name, pongo2.Context{
		"name":      fallbackName(payload.Name),
		"login_url": n.cfg.LoginURL,
	})
	return nil
}

func (n *NotificationService) handleUserRejected(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserStatusPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.queue.SendAsync(notification.KindAccountRejected, payload.Email, payload.Name, pongo2.Context{
		"name": fallbackName(payload.Name),
	})
	return nil
}

func (n *NotificationService) handlePasswordReset(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.queue.SendAsync(notification.KindPasswordReset, payload.Email, payload.Name, pongo2.Context{
		"name":       fallbackName(payload.Name),
		"reset_url":  n.resetLink(payload.Token),
		"expires_at": payload.ExpiresAt.UTC().Format(time.RFC1123),
	})
	return nil
}

func (n *NotificationService) logTicketEvent(_ context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.ID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) resetLink(token string) string {
	base := n.cfg.ResetURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func fallbackName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
