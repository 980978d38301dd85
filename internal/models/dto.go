package models

import "time"

// ===== USER DTOs =====

type UserSummary struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserSummary(u *User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Description: u.Description,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// ===== GROUP DTOs =====

type GroupDetail struct {
	Group
	StudentIDs   []uint `json:"student_ids"`
	StudentCount int    `json:"student_count"`
	IsFull       bool   `json:"is_full"`
}

// ===== ATTENDANCE DTOs =====

type BulkAttendanceResult struct {
	LessonID uint          `json:"lesson_id"`
	Policy   BulkPolicy    `json:"policy"`
	Records  []*Attendance `json:"records"`
	Removed  int           `json:"removed"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}
