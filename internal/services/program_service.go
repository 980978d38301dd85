package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type programService struct {
	repo      repositories.Repository
	authz     Authorizer
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProgramService(deps Dependencies) ProgramService {
	deps = deps.withDefaults()
	return &programService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

// List returns active programs only
func (s *programService) List(ctx context.Context, actor models.Actor) ([]*models.EducationalProgram, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	programs, err := s.repo.Program().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

func (s *programService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.EducationalProgram, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	program, err := s.repo.Program().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProgramNotFound, "get program")
	}
	return program, nil
}

func (s *programService) Create(ctx context.Context, actor models.Actor, req *CreateProgramRequest) (*models.EducationalProgram, error) {
	s.logger.Info("Creating program", "name", req.Name, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpCreateProgram, permissions.Facts{}); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	program := &models.EducationalProgram{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Program().Create(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	s.logger.Info("Program created", "program_id", program.ID)
	return program, nil
}

func (s *programService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateProgramRequest) (*models.EducationalProgram, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpUpdateProgram, permissions.Facts{}); err != nil {
		return nil, err
	}

	return s.update(ctx, id, func(p *models.EducationalProgram) {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
	})
}

func (s *programService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	s.logger.Info("Deactivating program", "program_id", id, "actor_id", actor.ID)

	if err := s.authz.Authorize(actor, permissions.OpDeleteProgram, permissions.Facts{}); err != nil {
		return err
	}
	_, err := s.update(ctx, id, func(p *models.EducationalProgram) {
		p.IsActive = false
	})
	return err
}

func (s *programService) update(ctx context.Context, id uint, apply func(*models.EducationalProgram)) (*models.EducationalProgram, error) {
	program, err := s.repo.Program().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProgramNotFound, "get program")
	}
	apply(program)
	program.UpdatedAt = s.clock.Now()

	if err := s.repo.Program().Update(ctx, program); err != nil {
		return nil, afterVersionMiss(ctx, err, ErrProgramNotFound, func(ctx context.Context) error {
			_, err := s.repo.Program().GetByID(ctx, id)
			return err
		})
	}
	return program, nil
}
