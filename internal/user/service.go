// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/core"
)

// Service owns customer accounts. It also implements auth.UserProvider, so
// the auth package never touches the users collection directly.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func info(u *User, err error) (*auth.UserInfo, error) {
	if err != nil {
		return nil, err
	}
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Provider:     u.Provider,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	return info(s.repo.GetByID(ctx, id))
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	return info(s.repo.GetByEmail(ctx, NormalizeEmail(email)))
}

// Create registers a credentials customer. A taken email surfaces as
// core.ErrDuplicateKey from the unique index.
func (s *Service) Create(ctx context.Context, email, passwordHash, name string) (*auth.UserInfo, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         RoleUser,
		Provider:     ProviderCredentials,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return info(u, nil)
}

func (s *Service) IncrementTokenVersion(ctx context.Context, id string) error {
	return s.repo.IncrementTokenVersion(ctx, id)
}

func (s *Service) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	return s.repo.SetResetToken(ctx, id, tokenHash, expiresAt)
}

// ConsumeResetToken swaps in passwordHash for the account holding an
// unexpired tokenHash, clearing the token in the same write.
func (s *Service) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
	now time.Time,
) (*auth.UserInfo, error) {
	return info(s.repo.ConsumeResetToken(ctx, tokenHash, passwordHash, now))
}

// Profile loads an account for display. An empty id means the caller is not
// authenticated.
func (s *Service) Profile(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("profile: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies a partial profile patch. An empty patch returns the
// account unchanged without a write.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	req ProfileRequest,
) (*User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.empty() {
		return u, nil
	}

	req.applyTo(u)

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) SetRole(ctx context.Context, id, role string) (*User, error) {
	if !validRole(role) {
		return nil, fmt.Errorf("set role %q: %w", role, core.ErrInvalidInput)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Role == role {
		return u, nil
	}

	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Close soft deletes the target account. Customers may close their own;
// admins may close any non-admin account.
func (s *Service) Close(ctx context.Context, requesterID, targetID string) error {
	if requesterID == "" {
		return fmt.Errorf("close account: %w", core.ErrUnauthorized)
	}

	if requesterID != targetID {
		if err := s.mayClose(ctx, requesterID, targetID); err != nil {
			return err
		}
	}

	return s.repo.SoftDelete(ctx, targetID)
}

func (s *Service) mayClose(ctx context.Context, requesterID, targetID string) error {
	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	if !requester.IsAdmin() {
		return fmt.Errorf("close account: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return fmt.Errorf("close admin account: %w", core.ErrForbidden)
	}

	return nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]User, int64, error) {
	f.Normalize()
	return s.repo.List(ctx, f)
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

var _ auth.UserProvider = (*Service)(nil)
