package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type AttendancePostgreSQL struct {
	db *gorm.DB
}

func NewAttendancePostgreSQL(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendancePostgreSQL{db: db}
}

// Create inserts one record. The (student_id, lesson_id) unique index turns
// a second mark for the same pair into ErrDuplicate.
func (a *AttendancePostgreSQL) Create(ctx context.Context, attendance *models.Attendance) error {
	if attendance.Version == 0 {
		attendance.Version = 1
	}
	if err := a.db.WithContext(ctx).Create(attendance).Error; err != nil {
		return fmt.Errorf("failed to create attendance: %w", translateError(err))
	}
	return nil
}

func (a *AttendancePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := a.db.WithContext(ctx).First(&attendance, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &attendance, nil
}

func (a *AttendancePostgreSQL) GetByStudentAndLesson(ctx context.Context, studentID, lessonID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	err := a.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		First(&attendance).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attendance, nil
}

func (a *AttendancePostgreSQL) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.Attendance, error) {
	query := a.db.WithContext(ctx).Model(&models.Attendance{}).Select("attendances.*")
	if filters.LessonID != nil {
		query = query.Where("attendances.lesson_id = ?", *filters.LessonID)
	}
	if filters.StudentID != nil {
		query = query.Where("attendances.student_id = ?", *filters.StudentID)
	}
	if filters.TeacherID != nil {
		query = query.
			Joins(`JOIN lessons ON lessons.id = attendances.lesson_id`).
			Joins(`JOIN "groups" ON "groups".id = lessons.group_id`).
			Where(`"groups".teacher_id = ?`, *filters.TeacherID)
	}

	var records []*models.Attendance
	if err := query.Order("attendances.lesson_id ASC, attendances.student_id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func (a *AttendancePostgreSQL) Update(ctx context.Context, attendance *models.Attendance) error {
	err := versionedUpdate(ctx, a.db, &models.Attendance{}, attendance.ID, attendance.Version, map[string]interface{}{
		"is_present":           attendance.IsPresent,
		"marked_at":            attendance.MarkedAt,
		"marked_by_teacher_id": attendance.MarkedByTeacherID,
	})
	if err != nil {
		return err
	}
	attendance.Version++
	return nil
}

func (a *AttendancePostgreSQL) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, a.db, &models.Attendance{}, id)
}

// ReplaceForLesson deletes then inserts inside one transaction. When the
// repository is already bound to a transaction this nests as a savepoint.
func (a *AttendancePostgreSQL) ReplaceForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lessonID).Delete(&models.Attendance{}).Error; err != nil {
			return fmt.Errorf("failed to clear lesson attendance: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		for _, r := range records {
			r.LessonID = lessonID
			if r.Version == 0 {
				r.Version = 1
			}
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to insert lesson attendance: %w", translateError(err))
		}
		return nil
	})
}

// UpsertForLesson writes records with ON CONFLICT (student_id, lesson_id)
// DO UPDATE, leaving students not in records untouched.
func (a *AttendancePostgreSQL) UpsertForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		r.LessonID = lessonID
		if r.Version == 0 {
			r.Version = 1
		}
	}

	updates := clause.AssignmentColumns([]string{"is_present", "marked_at", "marked_by_teacher_id"})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "version"},
		Value:  gorm.Expr("attendances.version + 1"),
	})

	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
			DoUpdates: updates,
		}).
		Create(&records).Error
	if err != nil {
		return fmt.Errorf("failed to upsert lesson attendance: %w", translateError(err))
	}
	return nil
}

type AttendanceAuditPostgreSQL struct {
	db *gorm.DB
}

func NewAttendanceAuditPostgreSQL(db *gorm.DB) repositories.AttendanceAuditRepository {
	return &AttendanceAuditPostgreSQL{db: db}
}

func (a *AttendanceAuditPostgreSQL) Create(ctx context.Context, audit *models.AttendanceAudit) error {
	if err := a.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to write attendance audit: %w", translateError(err))
	}
	return nil
}

func (a *AttendanceAuditPostgreSQL) ListByLesson(ctx context.Context, lessonID uint) ([]*models.AttendanceAudit, error) {
	var audits []*models.AttendanceAudit
	err := a.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("id ASC").
		Find(&audits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance audits: %w", err)
	}
	return audits, nil
}
