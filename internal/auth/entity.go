// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is a stored refresh token. Tokens rotate on every refresh; all
// tokens descended from one login share a FamilyID so reuse of a rotated
// token can revoke the whole chain.
type Session struct {
	ID           string     `bson:"_id"`
	UserID       string     `bson:"user_id"`
	TokenHash    string     `bson:"token_hash"`
	FamilyID     string     `bson:"family_id"`
	ExpiresAt    time.Time  `bson:"expires_at"`
	CreatedAt    time.Time  `bson:"created_at"`
	IsUsed       bool       `bson:"is_used"`
	UsedAt       *time.Time `bson:"used_at,omitempty"`
	RevokedAt    *time.Time `bson:"revoked_at,omitempty"`
	ReplacedByID *string    `bson:"replaced_by_id,omitempty"`
	UserAgent    string     `bson:"user_agent"`
	IPAddress    string     `bson:"ip_address"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsValid(now time.Time) bool {
	return !s.IsExpired(now) && !s.IsRevoked() && !s.IsUsed
}
