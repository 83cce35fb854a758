package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email address is already in use")
	ErrInvalidRole  = errors.New("invalid role")
)

// ValidRoles lists the roles a practice account can hold. The role maps
// directly onto the authorization checks in the API layer.
var ValidRoles = map[string]bool{
	"counselor":  true,
	"supervisor": true,
	"billing":    true,
	"admin":      true,
}

// User is a practice staff account. The ID matches the subject claim of the
// identity provider token.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
