package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notification is one message to one user. The delivery channel (push,
// email, in-app) is the notifier's concern.
type Notification struct {
	UserID   string
	Title    string
	Body     string
	Metadata map[string]string
}

// Notifier delivers a single notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher fans notifications out after a transition has committed.
// Dispatch never blocks the caller and delivery failures are logged, never
// surfaced; a failed notification must not undo a committed transition.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		timeout:  10 * time.Second,
	}
}

// Dispatch hands the notifications off to a background goroutine.
func (d *Dispatcher) Dispatch(notifications ...Notification) {
	if len(notifications) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, n := range notifications {
			if err := d.notifier.Notify(ctx, n); err != nil {
				slog.Error("notification delivery failed",
					"user_id", n.UserID,
					"title", n.Title,
					"error", err,
				)
			}
		}
	}()
}

// Wait blocks until in-flight dispatches finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogNotifier writes notifications to the log. It stands in for the real
// push/email gateway in development.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("notify",
		"user_id", n.UserID,
		"title", n.Title,
		"body", n.Body,
	)
	return nil
}
