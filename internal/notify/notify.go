package notify

import "context"

// MessageRef points at a previously sent message so it can be edited in place.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Notifier delivers renter-facing notifications. Delivery is best-effort:
// callers swallow errors and never block business flow on them.
type Notifier interface {
	SendToRenter(ctx context.Context, renterID string, text string) error
	EditMessage(ctx context.Context, ref MessageRef, text string) error
}
