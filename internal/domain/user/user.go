package user

import (
	"database/sql"
	"time"
)

// User is the contact record for the owner of groceries.
type User struct {
	ID          string
	Name        string
	Email       string         // Always a valid delivery target
	PhoneNumber sql.NullString // Local format, e.g. 0771234567
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPhone reports whether phone-dependent channels can be attempted for the user.
func (u *User) HasPhone() bool {
	return u.PhoneNumber.Valid && u.PhoneNumber.String != ""
}
