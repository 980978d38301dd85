package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type MaterialPostgreSQL struct {
	db *gorm.DB
}

func NewMaterialPostgreSQL(db *gorm.DB) repositories.MaterialRepository {
	return &MaterialPostgreSQL{db: db}
}

func (m *MaterialPostgreSQL) Create(ctx context.Context, material *models.Material) error {
	if material.Version == 0 {
		material.Version = 1
	}
	if err := m.db.WithContext(ctx).Create(material).Error; err != nil {
		return fmt.Errorf("failed to create material: %w", translateError(err))
	}
	return nil
}

func (m *MaterialPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Material, error) {
	var material models.Material
	if err := m.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &material, nil
}

func (m *MaterialPostgreSQL) List(ctx context.Context, lessonID *uint) ([]*models.Material, error) {
	query := m.db.WithContext(ctx).Model(&models.Material{})
	if lessonID != nil {
		query = query.Where("lesson_id = ?", *lessonID)
	}

	var materials []*models.Material
	if err := query.Order("lesson_id ASC, order_number ASC, id ASC").Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (m *MaterialPostgreSQL) Update(ctx context.Context, material *models.Material) error {
	err := versionedUpdate(ctx, m.db, &models.Material{}, material.ID, material.Version, map[string]interface{}{
		"title":        material.Title,
		"description":  material.Description,
		"content":      material.Content,
		"link":         material.Link,
		"type":         material.Type,
		"order_number": material.OrderNumber,
		"updated_at":   material.UpdatedAt,
	})
	if err != nil {
		return err
	}
	material.Version++
	return nil
}

func (m *MaterialPostgreSQL) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, m.db, &models.Material{}, id)
}
