package handlers

import (
	"bufio"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/feed"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

const defaultHeartbeat = 25 * time.Second

type snapshot struct {
	tickets []domain.Ticket
	err     error
}

// StreamHandler serves live ticket lists as Server-Sent Events.
type StreamHandler struct {
	tickets   *service.TicketService
	hub       *feed.Hub
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(tickets *service.TicketService, hub *feed.Hub, heartbeat time.Duration, logger *zap.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{tickets: tickets, hub: hub, heartbeat: heartbeat, logger: logger}
}

// Stream GET /api/tickets/stream?view=. Every event carries the full matching set.
// The subscription is disposed when the client disconnects.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	query, err := h.tickets.ViewQuery(actor, service.View(strings.ToLower(c.Query("view"))))
	if err != nil {
		return err
	}

	// latest snapshot wins; a slow client skips intermediate sets
	latest := make(chan snapshot, 1)
	sub := h.hub.Subscribe(query, func(tickets []domain.Ticket, err error) {
		s := snapshot{tickets: tickets, err: err}
		for {
			select {
			case latest <- s:
				return
			default:
				select {
				case <-latest:
				default:
				}
			}
		}
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	userID := actor.ID
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-sub.Done():
				return
			case s := <-latest:
				if err := writeSnapshot(w, s); err != nil {
					h.logger.Debug("ticket stream closed", zap.String("user_id", userID), zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeSnapshot(w *bufio.Writer, s snapshot) error {
	event := "tickets"
	var payload any = dto.NewTicketList(s.tickets)
	if s.err != nil {
		event = "error"
		payload = map[string]string{"message": "could not load tickets"}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("event: " + event + "\ndata: "); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
