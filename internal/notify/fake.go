package notify

import (
	"context"
	"sync"
)

// FakeNotifier records notifications for test assertions.
type FakeNotifier struct {
	mu sync.Mutex

	// Sent holds every notification passed to Notify, including failed ones.
	Sent []Notification

	// NotifyError, if set, is returned by Notify.
	NotifyError error

	Closed bool
}

func NewFakeNotifier() *FakeNotifier { return &FakeNotifier{} }

func (f *FakeNotifier) Notify(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, n)
	return f.NotifyError
}

func (f *FakeNotifier) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Notifications returns a copy of what was sent so far.
func (f *FakeNotifier) Notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.Sent...)
}
