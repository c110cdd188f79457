package notification

import (
	"homestock_notifier/internal/domain/grocery"
	"homestock_notifier/internal/domain/user"
)

// Group holds every candidate grocery of one owner for the current run.
// A group is never empty.
type Group struct {
	User      *user.User
	Groceries []*grocery.Grocery // Encounter order from the scan
}

// Recipient is the delivery view of a user. Phone is already in international form
// and empty when the user has no phone number.
type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}
