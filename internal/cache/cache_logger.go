package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// UserIDKey and UserEmailKey name the two entries of a cached account
func UserIDKey(id uint) string { return fmt.Sprintf("id:%d", id) }

func UserEmailKey(email string) string { return "email:" + strings.ToLower(email) }

// GroupOwnerKey caches the teacher owning a group
func GroupOwnerKey(groupID uint) string { return fmt.Sprintf("owner:%d", groupID) }

// LessonGroupKey caches the group a lesson is assigned to
func LessonGroupKey(lessonID uint) string { return fmt.Sprintf("group:%d", lessonID) }

// InvalidateUserCache drops both lookups of an account
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint, email string) {
	keys := []string{UserIDKey(userID)}
	if email != "" {
		keys = append(keys, UserEmailKey(email))
	}
	SafeDelete(ctx, cm.User, keys...)
}

// InvalidateGroupCache drops the cached owner of a group
func InvalidateGroupCache(ctx context.Context, cm *CacheManager, groupID uint) {
	SafeDelete(ctx, cm.Group, GroupOwnerKey(groupID))
}

// InvalidateLessonCache drops the cached group assignment of a lesson
func InvalidateLessonCache(ctx context.Context, cm *CacheManager, lessonID uint) {
	SafeDelete(ctx, cm.Lesson, LessonGroupKey(lessonID))
}

// InvalidateAllLessonGroups drops every lesson assignment, used when a group
// is deleted and its lessons are unassigned
func InvalidateAllLessonGroups(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Lesson, "group:*")
}
