package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/adetunjii/esusu-engine/internal/notify"
)

// CapturingNotifier records every notification it is asked to deliver.
type CapturingNotifier struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (n *CapturingNotifier) Notify(_ context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
	return nil
}

func (n *CapturingNotifier) Notifications() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// FixedClock returns a constant instant, for deterministic deadline logic.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}
