// AngelaMos | 2026
// dto.go

package user

import (
	"strings"
	"time"
)

// ProfileRequest is a partial update; nil fields are left alone. An empty
// phone clears it, and ClearAddress drops the saved address.
type ProfileRequest struct {
	Name         *string  `json:"name,omitempty"    validate:"omitempty,min=1,max=100"`
	Phone        *string  `json:"phone,omitempty"   validate:"omitempty,max=30,e164"`
	Address      *Address `json:"address,omitempty"`
	ClearAddress bool     `json:"clear_address,omitempty"`
}

func (p ProfileRequest) empty() bool {
	return p.Name == nil && p.Phone == nil && p.Address == nil && !p.ClearAddress
}

func (p ProfileRequest) applyTo(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	switch {
	case p.ClearAddress:
		u.Address = nil
	case p.Address != nil:
		addr := *p.Address
		u.Address = &addr
	}
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows the admin customer listing.
type Filter struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (f *Filter) Normalize() {
	f.Page = max(f.Page, 1)
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	f.PageSize = min(f.PageSize, maxPageSize)
	if !validRole(f.Role) {
		f.Role = ""
	}
}

func NewProfile(u *User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func NewProfiles(users []User) []Profile {
	out := make([]Profile, len(users))
	for i := range users {
		out[i] = NewProfile(&users[i])
	}
	return out
}
