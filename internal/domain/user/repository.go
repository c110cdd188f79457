package user

import (
	"context"
)

// Repository defines the read operations the notifier needs on users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
