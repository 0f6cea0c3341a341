// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const (
	tokenTypeAccess = "access"
	keyIDLength     = 16
)

// JWTManager signs ES256 access tokens and mints opaque refresh tokens.
// The key id is the RFC 7638 thumbprint of the public key.
type JWTManager struct {
	signer   jwk.Key
	verifier jwk.Key
	jwks     jwk.Set
	keyID    string
	cfg      config.JWTConfig
	now      func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	raw, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	signer, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	public, err := signer.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	kid, err := thumbprintID(public)
	if err != nil {
		return nil, err
	}

	for _, k := range []jwk.Key{signer, public} {
		if err := setKeyFields(k, kid); err != nil {
			return nil, err
		}
	}
	if err := public.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(public); err != nil {
		return nil, fmt.Errorf("build jwks: %w", err)
	}

	return &JWTManager{
		signer:   signer,
		verifier: public,
		jwks:     jwks,
		keyID:    kid,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func thumbprintID(k jwk.Key) (string, error) {
	sum, err := k.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum)[:keyIDLength], nil
}

func setKeyFields(k jwk.Key, kid string) error {
	if err := k.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return fmt.Errorf("set algorithm: %w", err)
	}
	if err := k.Set(jwk.KeyIDKey, kid); err != nil {
		return fmt.Errorf("set key id: %w", err)
	}
	return nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM, creating parent
// directories as needed.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(ecKey)
	if err != nil {
		return fmt.Errorf("import key: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	files := []struct {
		path string
		key  jwk.Key
		mode os.FileMode
	}{
		{privateKeyPath, private, 0o600},
		{publicKeyPath, public, 0o644},
	}

	for _, f := range files {
		pem, err := jwk.Pem(f.key)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.path, err)
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}
		if err := os.WriteFile(f.path, pem, f.mode); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
	}

	return nil
}

type AccessTokenClaims struct {
	UserID       string
	Email        string
	Role         string
	TokenVersion int
}

type SignedAccessToken struct {
	Token     string
	ExpiresAt time.Time
}

func (m *JWTManager) CreateAccessToken(c AccessTokenClaims) (*SignedAccessToken, error) {
	issued := m.now()
	expires := issued.Add(m.cfg.AccessTokenExpire)

	tok, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(m.cfg.Issuer).
		Audience([]string{m.cfg.Audience}).
		Subject(c.UserID).
		IssuedAt(issued).
		NotBefore(issued).
		Expiration(expires).
		Claim("type", tokenTypeAccess).
		Claim("email", c.Email).
		Claim("role", c.Role).
		Claim("token_version", c.TokenVersion).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build access token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256(), m.signer))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &SignedAccessToken{Token: string(signed), ExpiresAt: expires}, nil
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.cfg.AccessTokenExpire
}

// VerifyAccessToken checks signature, expiry, issuer, audience and the
// custom claims. Revocation is layered on top by Service.VerifyAccessToken.
func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	raw string,
) (*middleware.AccessTokenClaims, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifier),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	now := m.now()
	if exp, ok := tok.Expiration(); ok && !now.Before(exp) {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	}

	err = jwt.Validate(tok,
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	return accessClaims(tok)
}

func accessClaims(tok jwt.Token) (*middleware.AccessTokenClaims, error) {
	invalid := func(what string) error {
		return fmt.Errorf("verify token: %s: %w", what, core.ErrTokenInvalid)
	}

	var typ, email, role string
	var version float64

	if err := tok.Get("type", &typ); err != nil || typ != tokenTypeAccess {
		return nil, invalid("token type")
	}
	if err := tok.Get("email", &email); err != nil || email == "" {
		return nil, invalid("email claim")
	}
	if err := tok.Get("role", &role); err != nil {
		return nil, invalid("role claim")
	}
	if err := tok.Get("token_version", &version); err != nil {
		return nil, invalid("token_version claim")
	}

	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return nil, invalid("subject")
	}

	jti, _ := tok.JwtID()
	exp, _ := tok.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       sub,
		Email:        email,
		Role:         role,
		TokenVersion: int(version),
		TokenID:      jti,
		ExpiresAt:    exp,
	}, nil
}

// GetJWKSHandler serves /.well-known/jwks.json.
func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	body, err := json.Marshal(m.jwks)
	return func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(body)
	}
}

func (m *JWTManager) GetKeyID() string {
	return m.keyID
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken mints a refresh token in familyID, or in a new family
// when familyID is empty.
func (m *JWTManager) CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("refresh token for %s: %w", userID, err)
	}

	if familyID == "" {
		familyID = uuid.NewString()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: m.now().Add(m.cfg.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
