// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
)

type fakeUsers struct {
	mu          sync.Mutex
	byID        map[string]*UserInfo
	resetHash   map[string]string
	resetExpiry map[string]time.Time
}

func newFakeUsers(users ...*UserInfo) *fakeUsers {
	f := &fakeUsers{
		byID:        map[string]*UserInfo{},
		resetHash:   map[string]string{},
		resetExpiry: map[string]time.Time{},
	}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(
	_ context.Context,
	email, passwordHash, name string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           "u-" + email,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	f.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].TokenVersion++
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) SetResetToken(
	_ context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetHash[id] = tokenHash
	f.resetExpiry[id] = expiresAt
	return nil
}

func (f *fakeUsers) ConsumeResetToken(
	_ context.Context,
	tokenHash, passwordHash string,
	now time.Time,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, h := range f.resetHash {
		if h != tokenHash || !f.resetExpiry[id].After(now) {
			continue
		}
		delete(f.resetHash, id)
		delete(f.resetExpiry, id)
		u := f.byID[id]
		u.PasswordHash = passwordHash
		u.TokenVersion++
		cp := *u
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.CreatedAt = time.Now()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessions) FindByHash(_ context.Context, hash string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeSessions) FindByID(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) MarkAsUsed(_ context.Context, id, replacedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.IsUsed = true
	s.ReplacedByID = &replacedBy
	return nil
}

func (f *fakeSessions) revokeWhere(match func(*Session) bool) {
	now := time.Now()
	for _, s := range f.sessions {
		if match(s) && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
}

func (f *fakeSessions) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeWhere(func(s *Session) bool { return s.ID == id })
	return nil
}

func (f *fakeSessions) RevokeByFamilyID(_ context.Context, familyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeWhere(func(s *Session) bool { return s.FamilyID == familyID })
	return nil
}

func (f *fakeSessions) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeWhere(func(s *Session) bool { return s.UserID == userID })
	return nil
}

func (f *fakeSessions) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsValid(time.Now()) && !s.IsUsed {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (f *fakeAudit) Record(_ context.Context, e audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) RecordBestEffort(ctx context.Context, e audit.Entry) {
	//nolint:errcheck // best effort
	_ = f.Record(ctx, e)
}

func (f *fakeAudit) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Type)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	text := f.sent[len(f.sent)-1].Text
	_, after, ok := strings.Cut(text, "token=")
	require.True(t, ok, "reset link missing from email body")
	return strings.Fields(after)[0]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc      *Service
	users    *fakeUsers
	sessions *fakeSessions
	audit    *fakeAudit
	mailer   *fakeMailer
	clock    *clock
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	jwtManager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "storefront-test",
		Audience:           "storefront-test",
	})
	require.NoError(t, err)
	return jwtManager
}

func newTestEnv(t *testing.T, users ...*UserInfo) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    newFakeUsers(users...),
		sessions: newFakeSessions(),
		audit:    &fakeAudit{},
		mailer:   &fakeMailer{},
		clock:    &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	env.svc = NewService(ServiceConfig{
		Repo:         env.sessions,
		JWT:          newTestJWT(t),
		UserProvider: env.users,
		Audit:        env.audit,
		Mailer:       env.mailer,
		FrontendURL:  "https://shop.example.com",
		Now:          env.clock.Now,
	})

	return env
}

func seedUser(t *testing.T, password string) *UserInfo {
	t.Helper()
	hash, err := core.HashPassword(password)
	require.NoError(t, err)
	return &UserInfo{
		ID:           "u-1",
		Email:        "ann@example.com",
		Name:         "Ann",
		PasswordHash: hash,
		Role:         "user",
	}
}

func passwordMatches(t *testing.T, env *testEnv, password string) bool {
	t.Helper()
	u, err := env.users.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	ok, err := core.VerifyPassword(password, u.PasswordHash)
	require.NoError(t, err)
	return ok
}

func TestRequestPasswordResetStoresHashedToken(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", "10.0.0.1"))

	token := env.mailer.lastToken(t)
	assert.Len(t, token, 64)

	stored := env.users.resetHash["u-1"]
	assert.NotEqual(t, token, stored)
	assert.Equal(t, core.HashToken(token), stored)
	assert.Equal(t, env.clock.Now().Add(time.Hour), env.users.resetExpiry["u-1"])

	assert.Equal(t, []string{audit.TypePasswordResetRequest}, env.audit.types())
	assert.Equal(t, notify.TemplatePasswordReset, env.mailer.sent[0].Template)
	assert.Contains(t, env.mailer.sent[0].Text, "https://shop.example.com/reset-password?token=")
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))

	err := env.svc.RequestPasswordReset(context.Background(), "nobody@example.com", "")
	require.NoError(t, err)

	assert.Empty(t, env.mailer.sent)
	assert.Empty(t, env.audit.types())
	assert.Empty(t, env.users.resetHash)
}

func TestRequestPasswordResetIgnoresAuditOutage(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	env.audit.err = errors.New("audit store down")
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	require.NoError(t, env.svc.RequestPasswordReset(ctx, "nobody@example.com", ""))

	token := env.mailer.lastToken(t)
	require.NoError(t, env.svc.ResetPassword(ctx, token, "brand-new-pass", ""))
	assert.True(t, passwordMatches(t, env, "brand-new-pass"))
}

func TestResetPasswordConsumesToken(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	token := env.mailer.lastToken(t)

	require.NoError(t, env.svc.ResetPassword(ctx, token, "brand-new-pass", ""))

	assert.True(t, passwordMatches(t, env, "brand-new-pass"))
	assert.False(t, passwordMatches(t, env, "original-pass"))
	assert.Empty(t, env.users.resetHash)

	u, err := env.users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TokenVersion)

	assert.Equal(t,
		[]string{audit.TypePasswordResetRequest, audit.TypePasswordReset},
		env.audit.types(),
	)
}

func TestResetPasswordReplayFails(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	token := env.mailer.lastToken(t)

	require.NoError(t, env.svc.ResetPassword(ctx, token, "first-new-pass", ""))

	err := env.svc.ResetPassword(ctx, token, "second-new-pass", "")
	require.ErrorIs(t, err, ErrInvalidResetToken)
	assert.True(t, passwordMatches(t, env, "first-new-pass"))
}

func TestResetPasswordExpiry(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr bool
	}{
		{name: "just before expiry", elapsed: 3599 * time.Second},
		{name: "just after expiry", elapsed: 3601 * time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, seedUser(t, "original-pass"))
			ctx := context.Background()

			require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
			token := env.mailer.lastToken(t)

			env.clock.Advance(tt.elapsed)

			err := env.svc.ResetPassword(ctx, token, "brand-new-pass", "")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidResetToken)
				assert.True(t, passwordMatches(t, env, "original-pass"))
				return
			}
			require.NoError(t, err)
			assert.True(t, passwordMatches(t, env, "brand-new-pass"))
		})
	}
}

func TestRequestPasswordResetOverwritesPreviousToken(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	first := env.mailer.lastToken(t)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	second := env.mailer.lastToken(t)
	require.NotEqual(t, first, second)

	err := env.svc.ResetPassword(ctx, first, "brand-new-pass", "")
	require.ErrorIs(t, err, ErrInvalidResetToken)

	require.NoError(t, env.svc.ResetPassword(ctx, second, "brand-new-pass", ""))
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	_, err := env.svc.Login(ctx, LoginRequest{
		Email:    "ann@example.com",
		Password: "original-pass",
	}, "test-agent", "10.0.0.1")
	require.NoError(t, err)

	active, err := env.svc.GetActiveSessions(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ann@example.com", ""))
	require.NoError(t, env.svc.ResetPassword(ctx, env.mailer.lastToken(t), "brand-new-pass", ""))

	active, err = env.svc.GetActiveSessions(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))

	_, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    "ann@example.com",
		Password: "wrong-password",
	}, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-pass",
	}, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyAccessTokenRejectsStaleVersion(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	resp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "ann@example.com",
		Password: "original-pass",
	}, "", "")
	require.NoError(t, err)

	claims, err := env.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)

	require.NoError(t, env.svc.LogoutAll(ctx, "u-1"))

	_, err = env.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshDetectsReuse(t *testing.T) {
	env := newTestEnv(t, seedUser(t, "original-pass"))
	ctx := context.Background()

	first, err := env.svc.Login(ctx, LoginRequest{
		Email:    "ann@example.com",
		Password: "original-pass",
	}, "", "")
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrTokenReuse)
}
