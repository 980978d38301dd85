package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// Dependencies are shared by every service
type Dependencies struct {
	Repo       repositories.Repository
	Authorizer Authorizer
	Tokens     *auth.TokenCodec
	Events     events.EventPublisher
	Clock      clock.Clock
	Logger     *slog.Logger
	Validator  *validator.Validator

	// BulkPolicy selects how BulkMark applies a roster
	BulkPolicy models.BulkPolicy
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Events == nil {
		d.Events = events.NewMockEventPublisher(d.Logger)
	}
	if d.BulkPolicy == "" {
		d.BulkPolicy = models.BulkPolicyReplace
	}
	return d
}

// ===== FACT RESOLUTION =====

// groupFacts loads ownership, membership and capacity of a group
func groupFacts(ctx context.Context, repo repositories.Repository, actor models.Actor, groupID uint) (*models.Group, permissions.Facts, error) {
	group, err := repo.Group().GetByID(ctx, groupID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, permissions.Facts{}, ErrGroupNotFound
		}
		return nil, permissions.Facts{}, fmt.Errorf("failed to get group: %w", err)
	}

	count, err := repo.Group().CountMembers(ctx, groupID)
	if err != nil {
		return nil, permissions.Facts{}, fmt.Errorf("failed to count group members: %w", err)
	}

	facts := permissions.Facts{
		OwnerTeacherID: &group.TeacherID,
		GroupOpen:      group.IsOpen,
		MemberCount:    count,
		MaxStudents:    group.MaxStudents,
	}
	if actor.Role == models.RoleStudent {
		facts.IsMember, err = repo.Group().IsMember(ctx, groupID, actor.ID)
		if err != nil {
			return nil, permissions.Facts{}, fmt.Errorf("failed to check membership: %w", err)
		}
	}
	return group, facts, nil
}

// lessonFacts resolves the lesson's group owner and, for students, their
// membership. A lesson without a group yields a nil owner.
func lessonFacts(ctx context.Context, repo repositories.Repository, actor models.Actor, lessonID uint) (*uint, permissions.Facts, error) {
	groupID, err := repo.Lesson().GetGroupID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, permissions.Facts{}, ErrLessonNotFound
		}
		return nil, permissions.Facts{}, fmt.Errorf("failed to get lesson group: %w", err)
	}
	if groupID == nil {
		return nil, permissions.Facts{}, nil
	}

	owner, err := repo.Group().GetOwnerID(ctx, *groupID)
	if err != nil {
		return nil, permissions.Facts{}, fmt.Errorf("failed to get group owner: %w", err)
	}
	facts := permissions.Facts{OwnerTeacherID: &owner}

	if actor.Role == models.RoleStudent {
		facts.IsMember, err = repo.Group().IsMember(ctx, *groupID, actor.ID)
		if err != nil {
			return nil, permissions.Facts{}, fmt.Errorf("failed to check membership: %w", err)
		}
	}
	return groupID, facts, nil
}

// ===== ERROR MAPPING =====

// afterVersionMiss turns a lost versioned update into NotFound when the
// record is gone and ErrConcurrencyConflict when it still exists.
func afterVersionMiss(ctx context.Context, err error, notFound error, probe func(ctx context.Context) error) error {
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	if !errors.Is(err, repositories.ErrVersionConflict) {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if probeErr := probe(ctx); probeErr != nil {
		if repositories.IsNotFoundError(probeErr) {
			return notFound
		}
		return fmt.Errorf("failed to re-check record after version conflict: %w", probeErr)
	}
	return ErrConcurrencyConflict
}

// notFoundAs maps a repository not-found error onto an entity sentinel
func notFoundAs(err error, notFound error, action string) error {
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// ===== EVENTS =====

// publish delivers an event after commit. Failures are logged, never returned.
func publish(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event", "type", event.Type, "subject", event.Subject, "error", err)
	}
}

func lessonSubject(lessonID uint) string {
	return fmt.Sprintf("lesson:%d", lessonID)
}

func groupSubject(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}
