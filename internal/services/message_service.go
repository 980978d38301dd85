package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type messageService struct {
	repo      repositories.Repository
	authz     Authorizer
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMessageService(deps Dependencies) MessageService {
	deps = deps.withDefaults()
	return &messageService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

func (s *messageService) ListAll(ctx context.Context, actor models.Actor) ([]*models.Message, error) {
	if err := s.authz.Authorize(actor, permissions.OpListAllMessages, permissions.Facts{}); err != nil {
		return nil, err
	}
	messages, err := s.repo.Message().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *messageService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Message, error) {
	message, err := s.repo.Message().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrMessageNotFound, "get message")
	}
	_, facts, err := lessonFacts(ctx, s.repo, actor, message.LessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpReadLessonMessages, facts); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *messageService) GetByLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.Message, error) {
	_, facts, err := lessonFacts(ctx, s.repo, actor, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpReadLessonMessages, facts); err != nil {
		return nil, err
	}
	messages, err := s.repo.Message().List(ctx, &lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson messages: %w", err)
	}
	return messages, nil
}

func (s *messageService) Create(ctx context.Context, actor models.Actor, req *CreateMessageRequest) (*models.Message, error) {
	s.logger.Info("Posting message", "lesson_id", req.LessonID, "sender_id", actor.ID)

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
	if err := s.authz.Authorize(actor, permissions.OpCreateMessage, facts); err != nil {
		return nil, err
	}

	message := &models.Message{
		Content:   req.Content,
		SenderID:  actor.ID,
		LessonID:  req.LessonID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Message().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return message, nil
}

// Update is limited to the sender and marks the message as edited
func (s *messageService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateMessageRequest) (*models.Message, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	message, err := s.repo.Message().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrMessageNotFound, "get message")
	}
	if err := s.authz.Authorize(actor, permissions.OpUpdateMessage, permissions.Facts{SenderID: message.SenderID}); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	message.Content = req.Content
	message.IsEdited = true
	message.EditedAt = &now

	if err := s.repo.Message().Update(ctx, message); err != nil {
		return nil, afterVersionMiss(ctx, err, ErrMessageNotFound, func(ctx context.Context) error {
			_, err := s.repo.Message().GetByID(ctx, id)
			return err
		})
	}
	return message, nil
}

func (s *messageService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	message, err := s.repo.Message().GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, ErrMessageNotFound, "get message")
	}
	if err := s.authz.Authorize(actor, permissions.OpDeleteMessage, permissions.Facts{SenderID: message.SenderID}); err != nil {
		return err
	}
	if err := s.repo.Message().Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrMessageNotFound, "delete message")
	}
	return nil
}
