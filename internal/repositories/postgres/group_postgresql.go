package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type GroupPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewGroupPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.GroupRepository {
	return &GroupPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (g *GroupPostgreSQL) Create(ctx context.Context, group *models.Group) error {
	if group.Version == 0 {
		group.Version = 1
	}
	if err := g.db.WithContext(ctx).Omit(clause.Associations).Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", translateError(err))
	}
	return nil
}

func (g *GroupPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := g.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &group, nil
}

func (g *GroupPostgreSQL) List(ctx context.Context, filters repositories.GroupFilters) ([]*models.Group, error) {
	query := g.db.WithContext(ctx).Model(&models.Group{})
	if filters.ProgramID != nil {
		query = query.Where("educational_program_id = ?", *filters.ProgramID)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.StudentID != nil {
		query = query.Where("id IN (?)",
			g.db.Model(&models.GroupStudent{}).Select("group_id").Where("student_id = ?", *filters.StudentID))
	}
	if filters.OpenOnly {
		query = query.Where("is_open = ?", true)
	}

	var groups []*models.Group
	if err := query.Order("id ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Update locks the group row and recounts members before writing, so a
// capacity change cannot race a concurrent AddStudent.
func (g *GroupPostgreSQL) Update(ctx context.Context, group *models.Group) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Group
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, group.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrVersionConflict
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.GroupStudent{}).Where("group_id = ?", group.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if int(count) > group.MaxStudents {
			return &repositories.CapacityError{MaxStudents: group.MaxStudents, Members: int(count)}
		}

		return versionedUpdate(ctx, tx, &models.Group{}, group.ID, group.Version, map[string]interface{}{
			"name":         group.Name,
			"description":  group.Description,
			"teacher_id":   group.TeacherID,
			"max_students": group.MaxStudents,
			"is_open":      group.IsOpen,
			"updated_at":   group.UpdatedAt,
		})
	})
	if err != nil {
		return err
	}
	group.Version++

	cache.InvalidateGroupCache(ctx, g.cacheManager, group.ID)
	return nil
}

// Delete removes the group and its memberships. Lessons of the group are
// unassigned by the foreign key.
func (g *GroupPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := deleteByID(ctx, g.db, &models.Group{}, id); err != nil {
		return err
	}
	cache.InvalidateGroupCache(ctx, g.cacheManager, id)
	cache.InvalidateAllLessonGroups(ctx, g.cacheManager)
	return nil
}

// GetOwnerID returns the teacher of the group, cached
func (g *GroupPostgreSQL) GetOwnerID(ctx context.Context, groupID uint) (uint, error) {
	var ownerID uint
	err := g.cacheManager.Group.CacheOrExecute(ctx, cache.GroupOwnerKey(groupID), &ownerID, cache.GroupCacheConfig.TTL, func() (interface{}, error) {
		var group models.Group
		err := g.db.WithContext(ctx).Select("id, teacher_id").First(&group, groupID).Error
		if err != nil {
			return nil, translateError(err)
		}
		return group.TeacherID, nil
	})
	if err != nil {
		return 0, err
	}
	return ownerID, nil
}

func (g *GroupPostgreSQL) GetMemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	if err := g.ensureExists(ctx, groupID); err != nil {
		return nil, err
	}

	var ids []uint
	err := g.db.WithContext(ctx).
		Model(&models.GroupStudent{}).
		Where("group_id = ?", groupID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	return ids, nil
}

func (g *GroupPostgreSQL) IsMember(ctx context.Context, groupID, studentID uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.GroupStudent{}).
		Where("group_id = ? AND student_id = ?", groupID, studentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (g *GroupPostgreSQL) CountMembers(ctx context.Context, groupID uint) (int, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.GroupStudent{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return int(count), nil
}

// AddStudent locks the group row so concurrent joins are serialized and the
// capacity check cannot race.
func (g *GroupPostgreSQL) AddStudent(ctx context.Context, groupID, studentID uint, joinedAt time.Time) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id, max_students, is_open").
			First(&group, groupID).Error
		if err != nil {
			return translateError(err)
		}

		if !group.IsOpen {
			return repositories.ErrGroupClosed
		}

		var count int64
		if err := tx.Model(&models.GroupStudent{}).Where("group_id = ?", groupID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if int(count) >= group.MaxStudents {
			return repositories.ErrGroupFull
		}

		err = tx.Create(&models.GroupStudent{
			GroupID:   groupID,
			StudentID: studentID,
			JoinedAt:  joinedAt,
		}).Error
		if err != nil {
			err = translateError(err)
			if errors.Is(err, repositories.ErrDuplicate) {
				return repositories.ErrAlreadyMember
			}
			return fmt.Errorf("failed to add student: %w", err)
		}
		return nil
	})
}

func (g *GroupPostgreSQL) RemoveStudent(ctx context.Context, groupID, studentID uint) error {
	result := g.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ?", groupID, studentID).
		Delete(&models.GroupStudent{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotMember
	}
	return nil
}

func (g *GroupPostgreSQL) ensureExists(ctx context.Context, groupID uint) error {
	var count int64
	if err := g.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
