package validator

import "time"

// ===== USER REQUESTS =====

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	Name        string  `json:"name" validate:"required,person_name"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Role        string  `json:"role" validate:"omitempty,role_name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateAccountRequest struct {
	Name        *string `json:"name" validate:"omitempty,person_name"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type AdminUpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,person_name"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
}

// ===== PROGRAM REQUESTS =====

type ProgramCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type ProgramUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

// ===== GROUP REQUESTS =====

type GroupCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ProgramID   uint    `json:"program_id" validate:"required"`
	TeacherID   uint    `json:"teacher_id" validate:"required"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,min=1,max=500"`
	IsOpen      *bool   `json:"is_open"`
}

type GroupUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TeacherID   *uint   `json:"teacher_id" validate:"omitempty,min=1"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,min=1,max=500"`
	IsOpen      *bool   `json:"is_open"`
}

// ===== LESSON REQUESTS =====

type LessonCreateRequest struct {
	Title           string    `json:"title" validate:"required,min=1,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=4000"`
	ProgramID       uint      `json:"program_id" validate:"required"`
	GroupID         *uint     `json:"group_id" validate:"omitempty,min=1"`
	OrderNumber     int       `json:"order_number" validate:"min=0"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes *int      `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
}

type LessonUpdateRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=4000"`
	GroupID         *uint      `json:"group_id" validate:"omitempty,min=1"`
	OrderNumber     *int       `json:"order_number" validate:"omitempty,min=0"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
}

type LessonCommentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ===== MATERIAL REQUESTS =====

type MaterialCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	LessonID    uint    `json:"lesson_id" validate:"required"`
	Content     *string `json:"content"`
	Link        *string `json:"link" validate:"omitempty,url,max=500"`
	Type        string  `json:"type" validate:"omitempty,material_type"`
	OrderNumber int     `json:"order_number" validate:"min=0"`
}

type MaterialUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Content     *string `json:"content"`
	Link        *string `json:"link" validate:"omitempty,url,max=500"`
	Type        *string `json:"type" validate:"omitempty,material_type"`
	OrderNumber *int    `json:"order_number" validate:"omitempty,min=0"`
}

// ===== MESSAGE REQUESTS =====

type MessageCreateRequest struct {
	LessonID uint   `json:"lesson_id" validate:"required"`
	Content  string `json:"content" validate:"required,max=4000"`
}

type MessageUpdateRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// ===== ATTENDANCE REQUESTS =====

type AttendanceCreateRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	LessonID  uint `json:"lesson_id" validate:"required"`
	IsPresent bool `json:"is_present"`
}

type AttendanceUpdateRequest struct {
	IsPresent *bool `json:"is_present" validate:"required"`
}

type StudentAttendance struct {
	StudentID uint `json:"student_id" validate:"required"`
	IsPresent bool `json:"is_present"`
}

type BulkAttendanceRequest struct {
	LessonID uint                `json:"lesson_id" validate:"required"`
	Students []StudentAttendance `json:"students" validate:"dive"`
}
