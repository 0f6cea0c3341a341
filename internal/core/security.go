// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength        = 16
	refreshTokenBytes = 32
	resetTokenBytes   = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordParams are the argon2id cost settings encoded into every hash.
type PasswordParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
}

// CurrentPasswordParams is what new hashes use. Hashes with other settings
// verify but are reported for rehash.
var CurrentPasswordParams = PasswordParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
}

func (p PasswordParams) key(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// HashPassword returns a PHC string:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := CurrentPasswordParams
	enc := base64.RawStdEncoding

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		enc.EncodeToString(salt),
		enc.EncodeToString(p.key(password, salt)),
	), nil
}

type passwordHash struct {
	params PasswordParams
	salt   []byte
	key    []byte
}

func parsePasswordHash(encoded string) (*passwordHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, ErrMalformedHash
	}
	if fields[1] != "argon2id" {
		return nil, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, fields[1])
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}

	ph := &passwordHash{}
	for _, kv := range strings.Split(fields[3], ",") {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q", ErrMalformedHash, kv)
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q", ErrMalformedHash, kv)
		}
		switch name {
		case "m":
			ph.params.Memory = uint32(n)
		case "t":
			ph.params.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, fmt.Errorf("%w: parallelism %d", ErrMalformedHash, n)
			}
			ph.params.Threads = uint8(n)
		default:
			return nil, fmt.Errorf("%w: parameter %q", ErrMalformedHash, name)
		}
	}

	var err error
	if ph.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if ph.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	if ph.params.Time == 0 || ph.params.Threads == 0 || len(ph.key) == 0 {
		return nil, ErrMalformedHash
	}

	//nolint:gosec // G115: argon2 keys here are 32 bytes
	ph.params.KeyLen = uint32(len(ph.key))

	return ph, nil
}

func (ph *passwordHash) matches(password string) bool {
	return subtle.ConstantTimeCompare(ph.key, ph.params.key(password, ph.salt)) == 1
}

func VerifyPassword(password, encoded string) (bool, error) {
	ph, err := parsePasswordHash(encoded)
	if err != nil {
		return false, err
	}
	return ph.matches(password), nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("storefront-missing-account")
	if err != nil {
		panic(fmt.Sprintf("security: dummy hash: %v", err))
	}
	return h
})

// VerifyPasswordTimingSafe burns one argon2 derivation even when the account
// has no password, so unknown emails cost the same as wrong passwords. When
// the stored hash uses outdated parameters a fresh hash is returned for the
// caller to persist; a failed rehash is not an error.
func VerifyPasswordTimingSafe(
	password string,
	encoded *string,
) (valid bool, rehash string, err error) {
	if encoded == nil || *encoded == "" {
		_, _ = VerifyPassword(password, dummyHash())
		return false, "", nil
	}

	ph, err := parsePasswordHash(*encoded)
	if err != nil {
		return false, "", err
	}
	if !ph.matches(password) {
		return false, "", nil
	}

	if ph.params != CurrentPasswordParams {
		if h, hashErr := HashPassword(password); hashErr == nil {
			rehash = h
		}
	}

	return true, rehash, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

// GenerateRefreshToken returns an opaque URL-safe session token.
func GenerateRefreshToken() (string, error) {
	b, err := randomBytes(refreshTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateResetToken returns 32 random bytes as 64 lowercase hex characters.
func GenerateResetToken() (string, error) {
	b, err := randomBytes(resetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the at-rest form of refresh and reset tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
