package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type GroupFilters struct {
	ProgramID *uint
	TeacherID *uint
	StudentID *uint // groups the student belongs to
	OpenOnly  bool
}

type LessonFilters struct {
	ProgramID *uint
	GroupID   *uint
	TeacherID *uint // lessons of groups taught by the teacher
	StudentID *uint // lessons of groups the student belongs to
}

type AttendanceFilters struct {
	LessonID  *uint
	StudentID *uint
	TeacherID *uint // records of lessons in groups taught by the teacher
}

// ===== CATALOG =====

type ProgramRepository interface {
	Create(ctx context.Context, program *models.EducationalProgram) error
	GetByID(ctx context.Context, id uint) (*models.EducationalProgram, error)
	List(ctx context.Context, activeOnly bool) ([]*models.EducationalProgram, error)
	Update(ctx context.Context, program *models.EducationalProgram) error
}

// GroupRepository stores groups and their memberships. Membership is never
// cached; ownership lookups may be.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context, filters GroupFilters) ([]*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error

	// Ownership and membership
	GetOwnerID(ctx context.Context, groupID uint) (uint, error)
	GetMemberIDs(ctx context.Context, groupID uint) ([]uint, error)
	IsMember(ctx context.Context, groupID, studentID uint) (bool, error)
	CountMembers(ctx context.Context, groupID uint) (int, error)

	// AddStudent serializes joins on the group row and re-checks openness,
	// capacity and membership before inserting. It returns ErrGroupClosed,
	// ErrGroupFull or ErrAlreadyMember when the state forbids the join.
	AddStudent(ctx context.Context, groupID, studentID uint, joinedAt time.Time) error
	RemoveStudent(ctx context.Context, groupID, studentID uint) error
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	List(ctx context.Context, filters LessonFilters) ([]*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error

	// GetGroupID returns nil when the lesson is not assigned to a group
	GetGroupID(ctx context.Context, lessonID uint) (*uint, error)
}

type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, id uint) (*models.Material, error)
	List(ctx context.Context, lessonID *uint) ([]*models.Material, error)
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id uint) error
}

// ===== CLASSROOM ACTIVITY =====

type AttendanceRepository interface {
	// Create fails with ErrDuplicate when the (student, lesson) pair exists
	Create(ctx context.Context, attendance *models.Attendance) error
	GetByID(ctx context.Context, id uint) (*models.Attendance, error)
	GetByStudentAndLesson(ctx context.Context, studentID, lessonID uint) (*models.Attendance, error)
	List(ctx context.Context, filters AttendanceFilters) ([]*models.Attendance, error)
	Update(ctx context.Context, attendance *models.Attendance) error
	Delete(ctx context.Context, id uint) error

	// ReplaceForLesson deletes every record of the lesson and inserts records
	ReplaceForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error

	// UpsertForLesson inserts records, overwriting any existing row for the
	// same student and leaving other students untouched
	UpsertForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error
}

type AttendanceAuditRepository interface {
	Create(ctx context.Context, audit *models.AttendanceAudit) error
	ListByLesson(ctx context.Context, lessonID uint) ([]*models.AttendanceAudit, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	List(ctx context.Context, lessonID *uint) ([]*models.Message, error)
	Update(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, id uint) error
}
