// internal/domain/grocery/grocery.go
package grocery

import (
	"time"

	"homestock_notifier/internal/domain/user"
)

// Grocery is a perishable item tracked in a household inventory.
// Corresponds to the 'groceries' table.
type Grocery struct {
	ID               string
	Name             string
	ExpiryDate       time.Time  // Only the calendar day is significant
	OwnerID          string     // Foreign key to users.id, may dangle
	Owner            *user.User // Resolved owner, nil when OwnerID does not match a user
	NotificationSent bool       // Set once by the notifier, never reset by it
}
