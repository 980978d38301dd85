package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) (*TokenCodec, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2025, 9, 1, 8, 30, 0, 0, time.UTC))
	codec, err := NewTokenCodec(testKey, 0, clk)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec, clk
}

func TestNewTokenCodec_KeyLength(t *testing.T) {
	if _, err := NewTokenCodec([]byte("short"), 0, nil); err == nil {
		t.Fatal("expected error for short key")
	}
	codec, err := NewTokenCodec(testKey, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codec.Lifetime() != DefaultTokenLifetime {
		t.Fatalf("Lifetime() = %v, want %v", codec.Lifetime(), DefaultTokenLifetime)
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)

	tests := []struct {
		name string
		id   uint
		role models.Role
	}{
		{name: "admin", id: 1, role: models.RoleAdmin},
		{name: "teacher", id: 42, role: models.RoleTeacher},
		{name: "student", id: 900001, role: models.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Issue(tt.id, "user@example.com", tt.role)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			actor, err := codec.Decode(token)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if actor.ID != tt.id || actor.Role != tt.role {
				t.Fatalf("Decode() = %+v, want id %d role %s", actor, tt.id, tt.role)
			}
		})
	}
}

func TestTokenCodec_IssueRejectsBadIdentity(t *testing.T) {
	codec, _ := newTestCodec(t)
	if _, err := codec.Issue(0, "a@b.c", models.RoleStudent); err == nil {
		t.Error("expected error for zero id")
	}
	if _, err := codec.Issue(5, "a@b.c", models.Role(9)); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestTokenCodec_ClaimsShape(t *testing.T) {
	codec, clk := newTestCodec(t)
	token, err := codec.Issue(17, "t@example.com", models.RoleTeacher)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if parsed.Header["alg"] != "HS256" {
		t.Errorf("alg = %v, want HS256", parsed.Header["alg"])
	}
	if claims["id"] != "17" {
		t.Errorf("id claim = %#v, want string \"17\"", claims["id"])
	}
	if claims["email"] != "t@example.com" || claims["role"] != "Teacher" {
		t.Errorf("unexpected claims %v", claims)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("missing exp: %v", err)
	}
	if want := clk.Now().Add(7 * 24 * time.Hour); !exp.Time.Equal(want) {
		t.Errorf("exp = %v, want %v", exp.Time, want)
	}
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	codec, clk := newTestCodec(t)
	token, err := codec.Issue(3, "s@example.com", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clk.Advance(7*24*time.Hour - time.Second)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("token should still be valid one second before expiry: %v", err)
	}

	clk.Advance(time.Second)
	_, err = codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired at exactly seven days", err)
	}
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatal("expired must be an unauthenticated error")
	}
}

func TestTokenCodec_SubSecondIssueKeepsFullLifetime(t *testing.T) {
	clk := clock.Fake(time.Date(2025, 9, 1, 8, 30, 0, 900_000_000, time.UTC))
	codec, err := NewTokenCodec(testKey, 0, clk)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, expiresAt, err := codec.IssueWithExpiry(3, "s@example.com", models.RoleStudent)
	if err != nil {
		t.Fatalf("IssueWithExpiry: %v", err)
	}
	if want := time.Date(2025, 9, 8, 8, 30, 1, 0, time.UTC); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	clk.Advance(7*24*time.Hour - 500*time.Millisecond)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("token should be valid before the full lifetime has passed: %v", err)
	}

	clk.Set(expiresAt)
	if _, err := codec.Decode(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired at exp", err)
	}
}

func TestTokenCodec_RejectsTampering(t *testing.T) {
	codec, clk := newTestCodec(t)
	token, err := codec.Issue(3, "s@example.com", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")

	forgedPayload := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"id":"3","email":"s@example.com","role":"Admin","exp":4102444800}`))

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	otherCodec, _ := NewTokenCodec(otherKey, 0, clk)
	foreign, _ := otherCodec.Issue(3, "s@example.com", models.RoleStudent)

	claims := sessionClaims{
		UserID: "3",
		Role:   "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	}
	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	hs512Token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)

	noExp := sessionClaims{UserID: "3", Role: "Student"}
	noExpToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString(testKey)

	badRole := claims
	badRole.Role = "Janitor"
	badRoleToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, badRole).SignedString(testKey)

	badID := claims
	badID.UserID = "three"
	badIDToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, badID).SignedString(testKey)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "forged payload", token: parts[0] + "." + forgedPayload + "." + parts[2]},
		{name: "flipped signature", token: parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))},
		{name: "foreign key", token: foreign},
		{name: "alg none", token: noneToken},
		{name: "alg HS512", token: hs512Token},
		{name: "missing exp", token: noExpToken},
		{name: "unknown role", token: badRoleToken},
		{name: "non numeric id", token: badIDToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestTokenCodec_TamperedExpiredIsInvalid(t *testing.T) {
	codec, clk := newTestCodec(t)
	token, _ := codec.Issue(3, "s@example.com", models.RoleStudent)
	clk.Advance(8 * 24 * time.Hour)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("B", len(parts[2]))

	if _, err := codec.Decode(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid for a bad signature on an expired token", err)
	}
}
