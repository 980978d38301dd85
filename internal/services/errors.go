package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// ValidationErrors is returned for rejected input and precondition denials
type ValidationErrors = validator.ValidationErrors
type ValidationError = validator.ValidationError

// Not found errors. Every entity sentinel wraps ErrNotFound.
var (
	ErrNotFound = errors.New("not found")

	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrProgramNotFound    = fmt.Errorf("educational program %w", ErrNotFound)
	ErrGroupNotFound      = fmt.Errorf("group %w", ErrNotFound)
	ErrLessonNotFound     = fmt.Errorf("lesson %w", ErrNotFound)
	ErrMaterialNotFound   = fmt.Errorf("material %w", ErrNotFound)
	ErrMessageNotFound    = fmt.Errorf("message %w", ErrNotFound)
	ErrAttendanceNotFound = fmt.Errorf("attendance record %w", ErrNotFound)
)

// Conflict errors
var (
	ErrConflict = errors.New("conflict")

	ErrEmailTaken       = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrAttendanceExists = fmt.Errorf("%w: attendance already recorded for this student and lesson", ErrConflict)

	// ErrConcurrencyConflict means a versioned update lost a race with
	// another writer while the record still exists.
	ErrConcurrencyConflict = errors.New("record was modified by another request")
)

// ErrInvalidCredentials does not say whether the email or the password was wrong
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", auth.ErrUnauthenticated)

func inUseError(entity string, err error) error {
	return fmt.Errorf("%w: %s is still referenced by other records: %v", ErrConflict, entity, err)
}
