package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type UpdateAccountRequest = validator.UpdateAccountRequest
type AdminUpdateUserRequest = validator.AdminUpdateUserRequest

type CreateProgramRequest = validator.ProgramCreateRequest
type UpdateProgramRequest = validator.ProgramUpdateRequest

type CreateGroupRequest = validator.GroupCreateRequest
type UpdateGroupRequest = validator.GroupUpdateRequest

type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type LessonCommentRequest = validator.LessonCommentRequest

type CreateMaterialRequest = validator.MaterialCreateRequest
type UpdateMaterialRequest = validator.MaterialUpdateRequest

type CreateMessageRequest = validator.MessageCreateRequest
type UpdateMessageRequest = validator.MessageUpdateRequest

type CreateAttendanceRequest = validator.AttendanceCreateRequest
type UpdateAttendanceRequest = validator.AttendanceUpdateRequest
type BulkAttendanceRequest = validator.BulkAttendanceRequest

type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      models.UserSummary `json:"user"`
}

type UserListResponse struct {
	Users []models.UserSummary `json:"users"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
}

// ===== COLLABORATORS =====

// Authorizer renders permission decisions. Access denials unwrap to
// auth.ErrUnauthorized; precondition denials are ValidationErrors.
type Authorizer interface {
	Authorize(actor models.Actor, op permissions.Operation, facts permissions.Facts) error
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)

	// Own account
	GetMe(ctx context.Context, actor models.Actor) (*models.UserSummary, error)
	UpdateAccount(ctx context.Context, actor models.Actor, req *UpdateAccountRequest) (*models.UserSummary, error)
	DeleteAccount(ctx context.Context, actor models.Actor) error

	// Administration
	GetByEmail(ctx context.Context, actor models.Actor, email string) (*models.UserSummary, error)
	List(ctx context.Context, actor models.Actor, page, size int) (*UserListResponse, error)
	UpdateUser(ctx context.Context, actor models.Actor, id uint, req *AdminUpdateUserRequest) (*models.UserSummary, error)
	DeleteUser(ctx context.Context, actor models.Actor, id uint) error
}

type ProgramService interface {
	List(ctx context.Context, actor models.Actor) ([]*models.EducationalProgram, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.EducationalProgram, error)
	Create(ctx context.Context, actor models.Actor, req *CreateProgramRequest) (*models.EducationalProgram, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateProgramRequest) (*models.EducationalProgram, error)

	// Delete deactivates the program; its groups and lessons stay readable
	Delete(ctx context.Context, actor models.Actor, id uint) error
}

type GroupService interface {
	List(ctx context.Context, actor models.Actor, filters repositories.GroupFilters) ([]*models.Group, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.GroupDetail, error)
	MyGroups(ctx context.Context, actor models.Actor) ([]*models.Group, error)
	Create(ctx context.Context, actor models.Actor, req *CreateGroupRequest) (*models.Group, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateGroupRequest) (*models.Group, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error

	// Membership
	Join(ctx context.Context, actor models.Actor, groupID uint) error
	Leave(ctx context.Context, actor models.Actor, groupID uint) error
}

type LessonService interface {
	List(ctx context.Context, actor models.Actor, filters repositories.LessonFilters) ([]*models.Lesson, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Lesson, error)
	Create(ctx context.Context, actor models.Actor, req *CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateLessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
	Comment(ctx context.Context, actor models.Actor, id uint, req *LessonCommentRequest) (*models.Lesson, error)
}

type MaterialService interface {
	List(ctx context.Context, actor models.Actor, lessonID *uint) ([]*models.Material, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Material, error)
	Create(ctx context.Context, actor models.Actor, req *CreateMaterialRequest) (*models.Material, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateMaterialRequest) (*models.Material, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
}

type MessageService interface {
	ListAll(ctx context.Context, actor models.Actor) ([]*models.Message, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Message, error)
	GetByLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.Message, error)
	Create(ctx context.Context, actor models.Actor, req *CreateMessageRequest) (*models.Message, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateMessageRequest) (*models.Message, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
}

// AttendanceService reconciles lesson attendance against group membership
type AttendanceService interface {
	BulkMark(ctx context.Context, actor models.Actor, req *BulkAttendanceRequest) (*models.BulkAttendanceResult, error)
	Create(ctx context.Context, actor models.Actor, req *CreateAttendanceRequest) (*models.Attendance, error)
	Update(ctx context.Context, actor models.Actor, id uint, req *UpdateAttendanceRequest) (*models.Attendance, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error

	GetAll(ctx context.Context, actor models.Actor) ([]*models.Attendance, error)
	GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Attendance, error)
	GetByLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.Attendance, error)
	GetByStudent(ctx context.Context, actor models.Actor, studentID uint) ([]*models.Attendance, error)
	GetAudits(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.AttendanceAudit, error)

	// ExportLesson renders the lesson roster as an XLSX workbook
	ExportLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]byte, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	User() UserService
	Program() ProgramService
	Group() GroupService
	Lesson() LessonService
	Material() MaterialService
	Message() MessageService
	Attendance() AttendanceService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
