package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Role is the closed set of user roles. The zero value is not a valid role.
type Role int8

const (
	RoleAdmin Role = iota + 1
	RoleTeacher
	RoleStudent
)

// Roles lists every valid role in declaration order
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole converts the stored/serialized role name into a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "Admin":
		return RoleAdmin, nil
	case "Teacher":
		return RoleTeacher, nil
	case "Student":
		return RoleStudent, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleTeacher:
		return "Teacher"
	case RoleStudent:
		return "Student"
	default:
		return fmt.Sprintf("Role(%d)", int8(r))
	}
}

// Valid reports whether r is one of the declared roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", int8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot store invalid role %d", int8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

// Actor is the authenticated identity of a request. It is rebuilt from the
// session token on every request and never persisted.
type Actor struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Name         string    `json:"name" gorm:"not null;size:100"`
	Description  *string   `json:"description" gorm:"type:text"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:'Student'"`
	Version      int       `json:"version" gorm:"not null;default:1"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
