package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any request
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRegister validates self-registration. Admin accounts are never
// self-registered.
func (bv *BusinessValidator) ValidateRegister(req *RegisterRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Role == models.RoleAdmin.String() {
		errors = append(errors, ValidationError{
			Field:   "role",
			Message: "self-registration as Admin is not allowed",
			Value:   req.Role,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateBulkAttendance validates the shape of a submitted roster
func (bv *BusinessValidator) ValidateBulkAttendance(req *BulkAttendanceRequest) ValidationErrors {
	var errors ValidationErrors

	if len(req.Students) == 0 {
		errors = append(errors, ValidationError{
			Field:   "students",
			Message: "No attendance records provided",
			Rule:    "business_logic",
		})
		return errors
	}

	errors = append(errors, bv.Validate(req)...)

	seen := make(map[uint]struct{}, len(req.Students))
	for _, s := range req.Students {
		if _, dup := seen[s.StudentID]; dup {
			errors = append(errors, ValidationError{
				Field:   "students",
				Message: fmt.Sprintf("student %d is listed more than once", s.StudentID),
				Value:   s.StudentID,
				Rule:    "business_logic",
			})
			continue
		}
		seen[s.StudentID] = struct{}{}
	}

	return errors
}

// ValidateGroupCapacity ensures a capacity change keeps every current member
func (bv *BusinessValidator) ValidateGroupCapacity(maxStudents, memberCount int) ValidationErrors {
	if maxStudents < memberCount {
		return ValidationErrors{{
			Field:   "max_students",
			Message: fmt.Sprintf("cannot be lower than the current number of students (%d)", memberCount),
			Value:   maxStudents,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// registerBusinessRules registers custom validation rules
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("role_name", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})

	bv.validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		n := utf8.RuneCountInString(name)
		return n >= 1 && n <= 100
	})

	bv.validate.RegisterValidation("material_type", func(fl validator.FieldLevel) bool {
		switch models.MaterialType(fl.Field().String()) {
		case models.MaterialText, models.MaterialLink, models.MaterialVideo, models.MaterialFile:
			return true
		default:
			return false
		}
	})
}
