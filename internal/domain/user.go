package domain

import "time"

// User roles recognised by the platform.
const (
	RoleAdmin  = "admin"
	RoleEdTech = "edtech"
	RoleMentor = "mentor"
)

// User is a platform account keyed by the identity provider's subject (UID).
type User struct {
	ID        uint      `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
