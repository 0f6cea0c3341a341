// AngelaMos | 2026
// entity.go

package audit

import (
	"time"
)

// Log is an append-only audit entry. Entries are never updated.
type Log struct {
	ID        string         `bson:"_id"`
	Type      string         `bson:"type"`
	UserEmail string         `bson:"user_email"`
	Message   string         `bson:"message"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	IPAddress string         `bson:"ip_address,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

const (
	TypeRegister             = "user_register"
	TypeLogin                = "user_login"
	TypePasswordResetRequest = "password_reset_request"
	TypePasswordReset        = "password_reset"
	TypeOrderCreated         = "order_created"
	TypeOrderStatusChanged   = "order_status_changed"
)
