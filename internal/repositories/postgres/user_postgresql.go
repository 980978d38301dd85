package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// cachedUser keeps the password hash, which models.User hides from JSON
type cachedUser struct {
	ID           uint        `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Role         models.Role `json:"role"`
	Version      int         `json:"version"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func toCachedUser(u *models.User) *cachedUser {
	return &cachedUser{
		ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, Name: u.Name, Description: u.Description,
		Role: u.Role, Version: u.Version, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (c *cachedUser) toModel() *models.User {
	return &models.User{
		ID: c.ID, Email: c.Email, PasswordHash: c.PasswordHash, Name: c.Name, Description: c.Description,
		Role: c.Role, Version: c.Version, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// Create inserts a user, failing with ErrDuplicate on a taken email
func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if user.Version == 0 {
		user.Version = 1
	}
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a user by ID with caching
func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var cached cachedUser
	err := u.cacheManager.User.CacheOrExecute(ctx, cache.UserIDKey(id), &cached, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var user models.User
		if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return nil, translateError(err)
		}
		return toCachedUser(&user), nil
	})
	if err != nil {
		return nil, err
	}
	return cached.toModel(), nil
}

// GetByEmail is uncached so credential checks always see the stored hash
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = query.Order("id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update writes the mutable account fields if user.Version is current
func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	var previous models.User
	if err := u.db.WithContext(ctx).Select("id, email").First(&previous, user.ID).Error; err != nil {
		return translateError(err)
	}

	user.Email = strings.ToLower(user.Email)
	fields := map[string]interface{}{
		"email":       user.Email,
		"name":        user.Name,
		"description": user.Description,
		"role":        user.Role,
		"updated_at":  user.UpdatedAt,
	}
	if user.PasswordHash != "" {
		fields["password_hash"] = user.PasswordHash
	}

	if err := versionedUpdate(ctx, u.db, &models.User{}, user.ID, user.Version, fields); err != nil {
		return err
	}
	user.Version++

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID, previous.Email)
	return nil
}

// Delete removes a user. Users still referenced by groups, attendance or
// messages fail with ErrInUse.
func (u *UserPostgreSQL) Delete(ctx context.Context, id uint) error {
	if err := deleteByID(ctx, u.db, &models.User{}, id); err != nil {
		return err
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, id, "")
	return nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}
