package grocery

import (
	"context"
	"time"
)

// Repository defines the store operations used by the expiry notifier.
type Repository interface {
	// FindExpiringUnnotified returns groceries expiring at or before windowEnd whose
	// notification flag is not set. Owner is populated when it resolves.
	FindExpiringUnnotified(ctx context.Context, windowEnd time.Time) ([]*Grocery, error)
	// MarkNotified atomically sets the notification flag on a single grocery.
	MarkNotified(ctx context.Context, id string) error
}
