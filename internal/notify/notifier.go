// Package notify persists user notifications produced after engine
// transactions commit.  Delivery is queue-and-forget: a full queue drops the
// notification with a log line rather than blocking the caller.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

const defaultQueueSize = 256

// Worker drains a buffered queue of notifications into the store.
type Worker struct {
	store  store.Store
	logger *slog.Logger
	queue  chan domain.Notification
	done   chan struct{}
}

// NewWorker creates a notification worker.  Call Start to begin draining.
func NewWorker(st store.Store, logger *slog.Logger) *Worker {
	return &Worker{
		store:  st,
		logger: logger,
		queue:  make(chan domain.Notification, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue queues a notification without blocking.  Dropped notifications are
// logged; they never fail the operation that produced them.
func (w *Worker) Enqueue(n domain.Notification) {
	select {
	case w.queue <- n:
	default:
		w.logger.Warn("notification queue full, dropping",
			"user_id", n.UserID, "kind", n.Kind)
	}
}

// Start drains the queue until ctx is cancelled.  Runs in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-w.queue:
				if err := w.store.InsertNotification(ctx, &n); err != nil {
					w.logger.Error("persist notification failed",
						"user_id", n.UserID, "kind", n.Kind, "error", err)
					continue
				}
				w.logger.Info("notification",
					"user_id", n.UserID, "kind", n.Kind, "body", n.Body)
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() {
	<-w.done
}

// List returns a user's notifications, newest first.
func (w *Worker) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	return w.store.ListNotifications(ctx, userID, limit, offset)
}
