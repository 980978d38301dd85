package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrInUse           = errors.New("record is referenced by other records")

	// Group membership state, re-checked under the group row lock
	ErrGroupClosed   = errors.New("group is not open for joining")
	ErrGroupFull     = errors.New("group is full")
	ErrAlreadyMember = errors.New("student is already in this group")
	ErrNotMember     = errors.New("student is not in this group")
)

// CapacityError is returned by GroupRepository.Update when the new capacity
// is below the membership counted under the group row lock
type CapacityError struct {
	MaxStudents int
	Members     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity %d is below the current %d members", e.MaxStudents, e.Members)
}

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
