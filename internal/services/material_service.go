package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type materialService struct {
	repo      repositories.Repository
	authz     Authorizer
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMaterialService(deps Dependencies) MaterialService {
	deps = deps.withDefaults()
	return &materialService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *materialService) List(ctx context.Context, actor models.Actor, lessonID *uint) ([]*models.Material, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	materials, err := s.repo.Material().List(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (s *materialService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Material, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	material, err := s.repo.Material().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrMaterialNotFound, "get material")
	}
	return material, nil
}

func (s *materialService) Create(ctx context.Context, actor models.Actor, req *CreateMaterialRequest) (*models.Material, error) {
	s.logger.Info("Creating material", "lesson_id", req.LessonID, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	_, facts, err := lessonFacts(ctx, s.repo, actor, req.LessonID)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return nil, validator.NewValidationErrors("lesson_id", "lesson does not exist", req.LessonID)
		}
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpCreateMaterial, facts); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	material := &models.Material{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		LessonID:    req.LessonID,
		Content:     req.Content,
		Link:        req.Link,
		Type:        models.MaterialText,
		OrderNumber: req.OrderNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Type != "" {
		material.Type = models.MaterialType(req.Type)
	}

	if err := s.repo.Material().Create(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	return material, nil
}

func (s *materialService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateMaterialRequest) (*models.Material, error) {
	s.logger.Info("Updating material", "material_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	material, err := s.authorizeMaterial(ctx, actor, id, permissions.OpUpdateMaterial)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		material.Description = req.Description
	}
	if req.Content != nil {
		material.Content = req.Content
	}
	if req.Link != nil {
		material.Link = req.Link
	}
	if req.Type != nil {
		material.Type = models.MaterialType(*req.Type)
	}
	if req.OrderNumber != nil {
		material.OrderNumber = *req.OrderNumber
	}
	material.UpdatedAt = s.clock.Now()

	if err := s.repo.Material().Update(ctx, material); err != nil {
		return nil, afterVersionMiss(ctx, err, ErrMaterialNotFound, func(ctx context.Context) error {
			_, err := s.repo.Material().GetByID(ctx, id)
			return err
		})
	}
	return material, nil
}

func (s *materialService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	s.logger.Info("Deleting material", "material_id", id, "actor_id", actor.ID)

	if _, err := s.authorizeMaterial(ctx, actor, id, permissions.OpDeleteMaterial); err != nil {
		return err
	}
	if err := s.repo.Material().Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrMaterialNotFound, "delete material")
	}
	return nil
}

func (s *materialService) authorizeMaterial(ctx context.Context, actor models.Actor, id uint, op permissions.Operation) (*models.Material, error) {
	material, err := s.repo.Material().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrMaterialNotFound, "get material")
	}
	_, facts, err := lessonFacts(ctx, s.repo, actor, material.LessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, op, facts); err != nil {
		return nil, err
	}
	return material, nil
}
