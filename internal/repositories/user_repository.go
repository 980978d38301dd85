package repositories

import (
	"context"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Role   *models.Role
	Limit  int // Page size
	Offset int // Offset for pagination
}

// UserRepository stores accounts. Updates are versioned: the caller passes
// the version it read and gets ErrVersionConflict when it no longer matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
