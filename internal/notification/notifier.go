package notification

import (
	"context"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"
)

// Recorder receives delivery outcomes.
type Recorder interface {
	RecordNotification(kind string, err error)
}

// Notifier renders and delivers emails off the caller's goroutine. A send never
// outlives its timeout and never inherits request cancellation.
type Notifier struct {
	mailer    Mailer
	templates *Templates
	timeout   time.Duration
	logger    *zap.Logger
	recorder  Recorder
	wg        sync.WaitGroup
}

// NewNotifier wires the dispatcher.
func NewNotifier(mailer Mailer, templates *Templates, timeout time.Duration, logger *zap.Logger, recorder Recorder) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{mailer: mailer, templates: templates, timeout: timeout, logger: logger, recorder: recorder}
}

// Send renders and delivers synchronously within the configured timeout.
func (n *Notifier) Send(ctx context.Context, kind Kind, to, name string, data pongo2.Context) error {
	msg, err := n.templates.Render(kind, to, name, data)
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		err = n.mailer.Send(ctx, msg)
	}
	if n.recorder != nil {
		n.recorder.RecordNotification(string(kind), err)
	}
	return err
}

// SendAsync delivers in a detached goroutine. Failures are logged.
func (n *Notifier) SendAsync(kind Kind, to, name string, data pongo2.Context) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.Send(context.Background(), kind, to, name, data); err != nil {
			n.logger.Warn("email notification failed",
				zap.String("kind", string(kind)),
				zap.String("to", to),
				zap.Error(err))
			return
		}
		n.logger.Debug("email notification sent", zap.String("kind", string(kind)), zap.String("to", to))
	}()
}

// Wait blocks until in-flight sends finish or ctx ends.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
