// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderFacebook    = "facebook"
)

// User is a customer account in the users collection. ResetToken holds the
// SHA-256 digest of the emailed token, never the token itself.
type User struct {
	ID               string     `bson:"_id"`
	Email            string     `bson:"email"`
	PasswordHash     string     `bson:"password_hash"`
	Name             string     `bson:"name"`
	Phone            string     `bson:"phone,omitempty"`
	Address          *Address   `bson:"address,omitempty"`
	Role             string     `bson:"role"`
	Provider         string     `bson:"provider"`
	ResetToken       *string    `bson:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty"`
	TokenVersion     int        `bson:"token_version"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
	DeletedAt        *time.Time `bson:"deleted_at,omitempty"`
}

// Address is the customer's saved default shipping address.
type Address struct {
	Line1      string `bson:"line1"       json:"line1"       validate:"required,max=200"`
	Line2      string `bson:"line2"       json:"line2"       validate:"max=200"`
	City       string `bson:"city"        json:"city"        validate:"required,max=100"`
	State      string `bson:"state"       json:"state"       validate:"max=100"`
	PostalCode string `bson:"postal_code" json:"postal_code" validate:"required,max=20"`
	Country    string `bson:"country"     json:"country"     validate:"required,max=60"`
}

func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func validRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
