package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.Version == 0 {
		lesson.Version = 1
	}
	if err := l.db.WithContext(ctx).Omit(clause.Associations).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", translateError(err))
	}
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, error) {
	query := l.db.WithContext(ctx).Model(&models.Lesson{})
	if filters.ProgramID != nil {
		query = query.Where("educational_program_id = ?", *filters.ProgramID)
	}
	if filters.GroupID != nil {
		query = query.Where("group_id = ?", *filters.GroupID)
	}
	if filters.TeacherID != nil {
		query = query.Where("group_id IN (?)",
			l.db.Model(&models.Group{}).Select("id").Where("teacher_id = ?", *filters.TeacherID))
	}
	if filters.StudentID != nil {
		query = query.Where("group_id IN (?)",
			l.db.Model(&models.GroupStudent{}).Select("group_id").Where("student_id = ?", *filters.StudentID))
	}

	var lessons []*models.Lesson
	if err := query.Order("order_number ASC, id ASC").Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	err := versionedUpdate(ctx, l.db, &models.Lesson{}, lesson.ID, lesson.Version, map[string]interface{}{
		"title":            lesson.Title,
		"description":      lesson.Description,
		"group_id":         lesson.GroupID,
		"order_number":     lesson.OrderNumber,
		"scheduled_at":     lesson.ScheduledAt,
		"duration_minutes": lesson.DurationMinutes,
		"teacher_comment":  lesson.TeacherComment,
		"updated_at":       lesson.UpdatedAt,
	})
	if err != nil {
		return err
	}
	lesson.Version++

	cache.InvalidateLessonCache(ctx, l.cacheManager, lesson.ID)
	return nil
}

// Delete removes a lesson. Lessons with attendance, materials or messages
// fail with ErrInUse.
func (l *LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := deleteByID(ctx, l.db, &models.Lesson{}, id); err != nil {
		return err
	}
	cache.InvalidateLessonCache(ctx, l.cacheManager, id)
	return nil
}

// GetGroupID returns the group a lesson is assigned to, cached
func (l *LessonPostgreSQL) GetGroupID(ctx context.Context, lessonID uint) (*uint, error) {
	var groupID *uint
	err := l.cacheManager.Lesson.CacheOrExecute(ctx, cache.LessonGroupKey(lessonID), &groupID, cache.LessonCacheConfig.TTL, func() (interface{}, error) {
		var lesson models.Lesson
		err := l.db.WithContext(ctx).Select("id, group_id").First(&lesson, lessonID).Error
		if err != nil {
			return nil, translateError(err)
		}
		return lesson.GroupID, nil
	})
	if err != nil {
		return nil, err
	}
	return groupID, nil
}
