package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attendance records whether a student was present at a lesson. There is
// exactly one row per (student, lesson) pair.
type Attendance struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	StudentID         uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_student_lesson"`
	LessonID          uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_attendance_student_lesson;index"`
	IsPresent         bool      `json:"is_present" gorm:"not null"`
	MarkedAt          time.Time `json:"marked_at" gorm:"not null"`
	MarkedByTeacherID uint      `json:"marked_by_teacher_id" gorm:"not null"`
	Version           int       `json:"version" gorm:"not null;default:1"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// BulkPolicy selects how a submitted roster is applied to a lesson
type BulkPolicy string

const (
	// BulkPolicyReplace deletes the lesson's records and inserts the submitted set
	BulkPolicyReplace BulkPolicy = "replace"
	// BulkPolicyMerge upserts the submitted students and keeps everyone else
	BulkPolicyMerge BulkPolicy = "merge"
)

// AttendanceSnapshot is the archived form of a removed attendance row
type AttendanceSnapshot struct {
	StudentID         uint      `json:"student_id"`
	IsPresent         bool      `json:"is_present"`
	MarkedAt          time.Time `json:"marked_at"`
	MarkedByTeacherID uint      `json:"marked_by_teacher_id"`
}

// AttendanceAudit is written alongside every bulk reconciliation
type AttendanceAudit struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	LessonID  uint           `json:"lesson_id" gorm:"not null;index"`
	ActorID   uint           `json:"actor_id" gorm:"not null"`
	Policy    BulkPolicy     `json:"policy" gorm:"type:varchar(16);not null"`
	Submitted int            `json:"submitted" gorm:"not null"`
	Removed   datatypes.JSON `json:"removed" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}

func (AttendanceAudit) TableName() string {
	return "attendance_audits"
}
