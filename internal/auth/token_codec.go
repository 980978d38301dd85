package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// DefaultTokenLifetime is how long an issued session token stays valid
const DefaultTokenLifetime = 7 * 24 * time.Hour

// MinKeyLength is the minimum accepted HS256 key size in bytes
const MinKeyLength = 32

var (
	// ErrUnauthenticated is the root of every failure to establish an actor
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMissingToken means no bearer token was presented
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)

	// ErrTokenInvalid means the token is malformed or its signature does not verify
	ErrTokenInvalid = fmt.Errorf("%w: invalid token", ErrUnauthenticated)

	// ErrTokenExpired means the token verified but is past its expiry
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrUnauthenticated)
)

// sessionClaims is the token payload. The user id travels as a decimal string.
type sessionClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens. The key is fixed for
// the lifetime of the codec, so a codec is safe for concurrent use.
type TokenCodec struct {
	key      []byte
	lifetime time.Duration
	clock    clock.Clock
	parser   *jwt.Parser
}

// NewTokenCodec creates a codec signing with key. A zero lifetime selects
// DefaultTokenLifetime.
func NewTokenCodec(key []byte, lifetime time.Duration, clk clock.Clock) (*TokenCodec, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("jwt key must be at least %d bytes, got %d", MinKeyLength, len(key))
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	if clk == nil {
		clk = clock.Real()
	}

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	return &TokenCodec{
		key:      keyCopy,
		lifetime: lifetime,
		clock:    clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// Issue returns a signed token for the given identity
func (c *TokenCodec) Issue(actorID uint, email string, role models.Role) (string, error) {
	token, _, err := c.IssueWithExpiry(actorID, email, role)
	return token, err
}

// IssueWithExpiry is Issue that also returns the exp claim written into the
// token.
func (c *TokenCodec) IssueWithExpiry(actorID uint, email string, role models.Role) (string, time.Time, error) {
	if actorID == 0 {
		return "", time.Time{}, fmt.Errorf("cannot issue token for zero user id")
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot issue token for invalid role %v", role)
	}

	now := c.clock.Now()
	expiresAt := ceilSecond(now.Add(c.lifetime))
	claims := sessionClaims{
		UserID: strconv.FormatUint(uint64(actorID), 10),
		Email:  email,
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ceilSecond rounds up to the whole second. NumericDate truncates, and a
// truncated exp would cut the lifetime short by the dropped fraction.
func ceilSecond(t time.Time) time.Time {
	if truncated := t.Truncate(time.Second); !truncated.Equal(t) {
		return truncated.Add(time.Second)
	}
	return t
}

// Decode verifies signature and expiry and returns the actor. Errors are
// ErrTokenInvalid or ErrTokenExpired.
func (c *TokenCodec) Decode(token string) (models.Actor, error) {
	var claims sessionClaims
	_, err := c.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, ErrTokenExpired
		}
		return models.Actor{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil || id == 0 {
		return models.Actor{}, fmt.Errorf("%w: bad id claim %q", ErrTokenInvalid, claims.UserID)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return models.Actor{ID: uint(id), Role: role}, nil
}

// Lifetime returns the configured token lifetime
func (c *TokenCodec) Lifetime() time.Duration {
	return c.lifetime
}
