package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Query loads the full current set a subscription watches.
type Query func(ctx context.Context) ([]domain.Ticket, error)

// Listener receives the full matching set after every change. Calls for one
// subscription never overlap.
type Listener func(tickets []domain.Ticket, err error)

// ChangeNotifier is told about acknowledged ticket writes.
type ChangeNotifier interface {
	Notify(ticketID string)
}

// Hub fans ticket change signals out to live subscriptions.
type Hub struct {
	mu           sync.Mutex
	subs         map[uint64]*Subscription
	nextID       uint64
	closed       bool
	queryTimeout time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]*Subscription), queryTimeout: 10 * time.Second, logger: logger}
}

// Subscription is a live registration. Close is its disposer.
type Subscription struct {
	hub      *Hub
	id       uint64
	query    Query
	listener Listener
	signal   chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Subscribe registers listener and immediately delivers the current set. On a closed
// hub the returned subscription is already disposed.
func (h *Hub) Subscribe(query Query, listener Listener) *Subscription {
	sub := &Subscription{
		hub:      h,
		query:    query,
		listener: listener,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.once.Do(func() { close(sub.done) })
		return sub
	}
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.wg.Add(1)
	h.mu.Unlock()

	sub.signal <- struct{}{}
	go sub.run()
	return sub
}

// Notify schedules a refresh of every subscription. Pending signals coalesce.
func (h *Hub) Notify(ticketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
	h.logger.Debug("ticket change fanned out", zap.String("ticket_id", ticketID), zap.Int("subscriptions", len(h.subs)))
}

// Len reports active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disposes every subscription and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	h.wg.Wait()
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once the subscription is disposed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run() {
	defer s.hub.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.hub.queryTimeout)
		tickets, err := s.query(ctx)
		cancel()

		select {
		case <-s.done:
			return
		default:
		}
		if err != nil {
			s.hub.logger.Warn("subscription query failed", zap.Uint64("subscription", s.id), zap.Error(err))
		}
		s.listener(tickets, err)
	}
}
