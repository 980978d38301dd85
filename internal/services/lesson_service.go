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

type lessonService struct {
	repo      repositories.Repository
	authz     Authorizer
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLessonService(deps Dependencies) LessonService {
	deps = deps.withDefaults()
	return &lessonService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *lessonService) List(ctx context.Context, actor models.Actor, filters repositories.LessonFilters) ([]*models.Lesson, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	lessons, err := s.repo.Lesson().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *lessonService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Lesson, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound, "get lesson")
	}
	return lesson, nil
}

func (s *lessonService) Create(ctx context.Context, actor models.Actor, req *CreateLessonRequest) (*models.Lesson, error) {
	s.logger.Info("Creating lesson", "title", req.Title, "program_id", req.ProgramID, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpCreateLesson, permissions.Facts{}); err != nil {
		return nil, err
	}
	if _, err := s.repo.Program().GetByID(ctx, req.ProgramID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, validator.NewValidationErrors("program_id", "program does not exist", req.ProgramID)
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if err := s.requireGroup(ctx, req.GroupID, req.ProgramID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	lesson := &models.Lesson{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		ProgramID:       req.ProgramID,
		GroupID:         req.GroupID,
		OrderNumber:     req.OrderNumber,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: models.DefaultLessonDuration,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}

	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID)
	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateLessonRequest) (*models.Lesson, error) {
	s.logger.Info("Updating lesson", "lesson_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpUpdateLesson, permissions.Facts{}); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound, "get lesson")
	}

	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		lesson.Description = req.Description
	}
	if req.GroupID != nil {
		if err := s.requireGroup(ctx, req.GroupID, lesson.ProgramID); err != nil {
			return nil, err
		}
		lesson.GroupID = req.GroupID
	}
	if req.OrderNumber != nil {
		lesson.OrderNumber = *req.OrderNumber
	}
	if req.ScheduledAt != nil {
		lesson.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}

	return lesson, s.save(ctx, lesson)
}

// Delete refuses lessons that still have attendance, materials or messages
func (s *lessonService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	s.logger.Info("Deleting lesson", "lesson_id", id, "actor_id", actor.ID)

	if err := s.authz.Authorize(actor, permissions.OpDeleteLesson, permissions.Facts{}); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return inUseError("lesson", err)
		}
		return notFoundAs(err, ErrLessonNotFound, "delete lesson")
	}
	return nil
}

// Comment sets the teacher comment on a lesson of the teacher's own group
func (s *lessonService) Comment(ctx context.Context, actor models.Actor, id uint, req *LessonCommentRequest) (*models.Lesson, error) {
	s.logger.Info("Commenting lesson", "lesson_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	_, facts, err := lessonFacts(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpCommentLesson, facts); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound, "get lesson")
	}
	comment := strings.TrimSpace(req.Comment)
	lesson.TeacherComment = &comment

	return lesson, s.save(ctx, lesson)
}

func (s *lessonService) save(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = s.clock.Now()
	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return afterVersionMiss(ctx, err, ErrLessonNotFound, func(ctx context.Context) error {
			_, err := s.repo.Lesson().GetByID(ctx, lesson.ID)
			return err
		})
	}
	return nil
}

// requireGroup checks that groupID, when set, exists in the lesson's program
func (s *lessonService) requireGroup(ctx context.Context, groupID *uint, programID uint) error {
	if groupID == nil {
		return nil
	}
	group, err := s.repo.Group().GetByID(ctx, *groupID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return validator.NewValidationErrors("group_id", "group does not exist", *groupID)
		}
		return fmt.Errorf("failed to get group: %w", err)
	}
	if group.ProgramID != programID {
		return validator.NewValidationErrors("group_id", "group belongs to a different program", *groupID)
	}
	return nil
}
