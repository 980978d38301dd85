package validator

import (
	"strings"
	"testing"
	"time"
)

func TestValidator_Register(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		req        RegisterRequest
		wantFields []string
	}{
		{
			name: "valid student",
			req:  RegisterRequest{Email: "ann@example.com", Password: "s3cretpass", Name: "Ann"},
		},
		{
			name: "valid teacher",
			req:  RegisterRequest{Email: "tom@example.com", Password: "s3cretpass", Name: "Tom", Role: "Teacher"},
		},
		{
			name:       "admin rejected",
			req:        RegisterRequest{Email: "eve@example.com", Password: "s3cretpass", Name: "Eve", Role: "Admin"},
			wantFields: []string{"role"},
		},
		{
			name:       "unknown role",
			req:        RegisterRequest{Email: "eve@example.com", Password: "s3cretpass", Name: "Eve", Role: "Janitor"},
			wantFields: []string{"role"},
		},
		{
			name:       "bad email and short password",
			req:        RegisterRequest{Email: "nope", Password: "short", Name: "Bob"},
			wantFields: []string{"email", "password"},
		},
		{
			name:       "blank name",
			req:        RegisterRequest{Email: "bob@example.com", Password: "s3cretpass", Name: "   "},
			wantFields: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.GetBusinessValidator().ValidateRegister(&tt.req)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%v), want fields %v", len(errs), errs, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if errs[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestBusinessValidator_ValidateBulkAttendance(t *testing.T) {
	bv := NewBusinessValidator()

	t.Run("empty roster", func(t *testing.T) {
		errs := bv.ValidateBulkAttendance(&BulkAttendanceRequest{LessonID: 5})
		if len(errs) != 1 || errs[0].Message != "No attendance records provided" {
			t.Fatalf("got %v", errs)
		}
	})

	t.Run("duplicate student", func(t *testing.T) {
		errs := bv.ValidateBulkAttendance(&BulkAttendanceRequest{
			LessonID: 5,
			Students: []StudentAttendance{{StudentID: 1, IsPresent: true}, {StudentID: 1}},
		})
		if len(errs) != 1 || !strings.Contains(errs[0].Message, "more than once") {
			t.Fatalf("got %v", errs)
		}
	})

	t.Run("missing student id", func(t *testing.T) {
		errs := bv.ValidateBulkAttendance(&BulkAttendanceRequest{
			LessonID: 5,
			Students: []StudentAttendance{{StudentID: 0, IsPresent: true}},
		})
		if len(errs) != 1 || errs[0].Field != "student_id" {
			t.Fatalf("got %v", errs)
		}
	})

	t.Run("valid", func(t *testing.T) {
		errs := bv.ValidateBulkAttendance(&BulkAttendanceRequest{
			LessonID: 5,
			Students: []StudentAttendance{{StudentID: 1, IsPresent: true}, {StudentID: 2}},
		})
		if len(errs) != 0 {
			t.Fatalf("unexpected errors %v", errs)
		}
	})
}

func TestBusinessValidator_ValidateGroupCapacity(t *testing.T) {
	bv := NewBusinessValidator()
	if errs := bv.ValidateGroupCapacity(3, 3); errs != nil {
		t.Fatalf("capacity equal to members should pass, got %v", errs)
	}
	errs := bv.ValidateGroupCapacity(2, 3)
	if len(errs) != 1 || errs[0].Field != "max_students" {
		t.Fatalf("got %v", errs)
	}
}

func TestValidator_MaterialAndLesson(t *testing.T) {
	v := New()

	bad := MaterialCreateRequest{Title: "Notes", LessonID: 1, Type: "Podcast"}
	errs := v.Validate(&bad)
	if len(errs) != 1 || errs[0].Rule != "material_type" {
		t.Fatalf("got %v", errs)
	}

	lesson := LessonCreateRequest{Title: "Intro", ProgramID: 1, ScheduledAt: time.Now()}
	if errs := v.Validate(&lesson); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "validation failed" {
		t.Errorf("empty = %q", got)
	}
	one := NewValidationErrors("group", "Group is full", nil)
	if got := one.Error(); got != "validation failed: group Group is full" {
		t.Errorf("single = %q", got)
	}
	two := append(one, ValidationError{Field: "x", Message: "y"})
	if got := two.Error(); got != "validation failed: 2 field errors" {
		t.Errorf("multi = %q", got)
	}
}
