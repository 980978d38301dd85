package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type ProgramPostgreSQL struct {
	db *gorm.DB
}

func NewProgramPostgreSQL(db *gorm.DB) repositories.ProgramRepository {
	return &ProgramPostgreSQL{db: db}
}

func (p *ProgramPostgreSQL) Create(ctx context.Context, program *models.EducationalProgram) error {
	if program.Version == 0 {
		program.Version = 1
	}
	if err := p.db.WithContext(ctx).Create(program).Error; err != nil {
		return fmt.Errorf("failed to create program: %w", translateError(err))
	}
	return nil
}

func (p *ProgramPostgreSQL) GetByID(ctx context.Context, id uint) (*models.EducationalProgram, error) {
	var program models.EducationalProgram
	if err := p.db.WithContext(ctx).First(&program, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &program, nil
}

func (p *ProgramPostgreSQL) List(ctx context.Context, activeOnly bool) ([]*models.EducationalProgram, error) {
	query := p.db.WithContext(ctx).Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var programs []*models.EducationalProgram
	if err := query.Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

func (p *ProgramPostgreSQL) Update(ctx context.Context, program *models.EducationalProgram) error {
	err := versionedUpdate(ctx, p.db, &models.EducationalProgram{}, program.ID, program.Version, map[string]interface{}{
		"name":        program.Name,
		"description": program.Description,
		"is_active":   program.IsActive,
		"updated_at":  program.UpdatedAt,
	})
	if err != nil {
		return err
	}
	program.Version++
	return nil
}
