package account

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse authorization label copied into a session at issuance.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleAssistant Role = "assistant"
)

// DefaultRole is assigned on first login of a previously unseen Telegram id.
const DefaultRole = RoleManager

// ParseRole normalizes and validates a role label.
func ParseRole(s string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(s)))
	switch role {
	case RoleAdmin, RoleManager, RoleAssistant:
		return role, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRole, s)
}

// Account is the internal record a verified Telegram identity maps to.
// TelegramID is unique and immutable once set; Role only changes through an
// explicit admin action, never during login.
type Account struct {
	ID         string    `json:"id"`
	TelegramID int64     `json:"tg_id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	Role       Role      `json:"role"`
	ManagerID  string    `json:"manager_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
