package users

import "time"

// User is an operator account for the dashboard API.
// PasswordHash never crosses the JSON boundary.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"` // unique, stored lowercase
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         string `json:"role"`   // USER | ADMIN | SUPERADMIN
	Status       string `json:"status"` // ACTIVE | INACTIVE

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)
