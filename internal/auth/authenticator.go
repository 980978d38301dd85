package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// ErrUnauthorized is the root of every permission denial for a valid actor
var ErrUnauthorized = errors.New("unauthorized")

// PermissionError is returned when an authenticated actor is denied an
// operation. It unwraps to ErrUnauthorized.
type PermissionError struct {
	ActorID   uint
	Role      models.Role
	Operation permissions.Operation
	Reason    permissions.DenyReason
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s %d cannot %s: %s", e.Role, e.ActorID, e.Operation, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrUnauthorized
}

// SessionAuthenticator turns bearer tokens into actors and checks actors
// against the permission table. Failures to authenticate wrap
// ErrUnauthenticated; denials wrap ErrUnauthorized.
type SessionAuthenticator struct {
	codec  *TokenCodec
	logger *slog.Logger
}

func NewSessionAuthenticator(codec *TokenCodec, logger *slog.Logger) *SessionAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionAuthenticator{
		codec:  codec,
		logger: logger,
	}
}

// Authenticate resolves the actor from an Authorization header value
func (a *SessionAuthenticator) Authenticate(authorizationHeader string) (models.Actor, error) {
	token, err := bearerToken(authorizationHeader)
	if err != nil {
		return models.Actor{}, err
	}
	return a.codec.Decode(token)
}

// Authorize checks actor against the decision table. Access denials return
// a *PermissionError; precondition denials return ValidationErrors carrying
// the reason message.
func (a *SessionAuthenticator) Authorize(actor models.Actor, op permissions.Operation, facts permissions.Facts) error {
	res, err := permissions.Decide(actor, op, facts)
	if err != nil {
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if res.Allowed() {
		return nil
	}

	if res.Reason.Precondition() {
		return validator.NewValidationErrors("group", res.Reason.String(), nil)
	}

	a.logger.Warn("Permission denied",
		"actor_id", actor.ID,
		"role", actor.Role.String(),
		"operation", op.String(),
		"reason", res.Reason.String())

	return &PermissionError{
		ActorID:   actor.ID,
		Role:      actor.Role,
		Operation: op,
		Reason:    res.Reason,
	}
}

// Codec exposes the token codec for issuing tokens at login
func (a *SessionAuthenticator) Codec() *TokenCodec {
	return a.codec
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", ErrTokenInvalid)
	}
	return parts[1], nil
}
