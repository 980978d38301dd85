package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

// translateError maps gorm errors onto repository errors. The dialector runs
// with TranslateError so unique and foreign key violations arrive as gorm
// sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", repositories.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", repositories.ErrInUse, err)
	default:
		return err
	}
}

// versionedUpdate writes fields to the row with the given id only if its
// version still matches, bumping the version on success.
func versionedUpdate(ctx context.Context, db *gorm.DB, model interface{}, id uint, version int, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")

	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrVersionConflict
	}
	return nil
}

// deleteByID hard deletes one row, reporting ErrNotFound when nothing matched
func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint) error {
	result := db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
