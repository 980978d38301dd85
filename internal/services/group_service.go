package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type groupService struct {
	repo      repositories.Repository
	authz     Authorizer
	events    events.EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGroupService(deps Dependencies) GroupService {
	deps = deps.withDefaults()
	return &groupService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		events:    deps.Events,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

// ===== READS =====

func (s *groupService) List(ctx context.Context, actor models.Actor, filters repositories.GroupFilters) ([]*models.Group, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}
	groups, err := s.repo.Group().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *groupService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.GroupDetail, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadCatalog, permissions.Facts{}); err != nil {
		return nil, err
	}

	group, err := s.repo.Group().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrGroupNotFound, "get group")
	}
	members, err := s.repo.Group().GetMemberIDs(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrGroupNotFound, "get group members")
	}
	if members == nil {
		members = []uint{}
	}

	return &models.GroupDetail{
		Group:        *group,
		StudentIDs:   members,
		StudentCount: len(members),
		IsFull:       len(members) >= group.MaxStudents,
	}, nil
}

// MyGroups returns taught groups for teachers, joined groups for students
// and every group for admins
func (s *groupService) MyGroups(ctx context.Context, actor models.Actor) ([]*models.Group, error) {
	var filters repositories.GroupFilters
	switch actor.Role {
	case models.RoleTeacher:
		filters.TeacherID = &actor.ID
	case models.RoleStudent:
		filters.StudentID = &actor.ID
	}
	return s.List(ctx, actor, filters)
}

// ===== ADMINISTRATION =====

func (s *groupService) Create(ctx context.Context, actor models.Actor, req *CreateGroupRequest) (*models.Group, error) {
	s.logger.Info("Creating group", "name", req.Name, "program_id", req.ProgramID, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpCreateGroup, permissions.Facts{}); err != nil {
		return nil, err
	}
	if err := s.requireProgram(ctx, req.ProgramID); err != nil {
		return nil, err
	}
	if err := s.requireTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ProgramID:   req.ProgramID,
		TeacherID:   req.TeacherID,
		MaxStudents: models.DefaultMaxStudents,
		IsOpen:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.MaxStudents != nil {
		group.MaxStudents = *req.MaxStudents
	}
	if req.IsOpen != nil {
		group.IsOpen = *req.IsOpen
	}

	if err := s.repo.Group().Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return group, nil
}

func (s *groupService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateGroupRequest) (*models.Group, error) {
	s.logger.Info("Updating group", "group_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpUpdateGroup, permissions.Facts{}); err != nil {
		return nil, err
	}

	group, err := s.repo.Group().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrGroupNotFound, "get group")
	}

	if req.Name != nil {
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		group.Description = req.Description
	}
	if req.TeacherID != nil && *req.TeacherID != group.TeacherID {
		if err := s.requireTeacher(ctx, *req.TeacherID); err != nil {
			return nil, err
		}
		group.TeacherID = *req.TeacherID
	}
	if req.MaxStudents != nil {
		count, err := s.repo.Group().CountMembers(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count group members: %w", err)
		}
		if errs := s.validator.GetBusinessValidator().ValidateGroupCapacity(*req.MaxStudents, count); len(errs) > 0 {
			return nil, errs
		}
		group.MaxStudents = *req.MaxStudents
	}
	if req.IsOpen != nil {
		group.IsOpen = *req.IsOpen
	}
	group.UpdatedAt = s.clock.Now()

	if err := s.repo.Group().Update(ctx, group); err != nil {
		var capErr *repositories.CapacityError
		if errors.As(err, &capErr) {
			return nil, s.validator.GetBusinessValidator().ValidateGroupCapacity(capErr.MaxStudents, capErr.Members)
		}
		return nil, afterVersionMiss(ctx, err, ErrGroupNotFound, func(ctx context.Context) error {
			_, err := s.repo.Group().GetByID(ctx, id)
			return err
		})
	}
	return group, nil
}

// Delete removes the group and its memberships. Its lessons stay, detached.
func (s *groupService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	s.logger.Info("Deleting group", "group_id", id, "actor_id", actor.ID)

	if err := s.authz.Authorize(actor, permissions.OpDeleteGroup, permissions.Facts{}); err != nil {
		return err
	}
	if err := s.repo.Group().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return inUseError("group", err)
		}
		return notFoundAs(err, ErrGroupNotFound, "delete group")
	}
	return nil
}

// ===== MEMBERSHIP =====

// Join adds the student to the group. The permission check gives an early
// answer; AddStudent re-checks under the group lock so concurrent joins
// never exceed capacity.
func (s *groupService) Join(ctx context.Context, actor models.Actor, groupID uint) error {
	s.logger.Info("Joining group", "group_id", groupID, "student_id", actor.ID)

	_, facts, err := groupFacts(ctx, s.repo, actor, groupID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, permissions.OpJoinGroup, facts); err != nil {
		return err
	}

	if err := s.repo.Group().AddStudent(ctx, groupID, actor.ID, s.clock.Now()); err != nil {
		return membershipError(err)
	}

	publish(ctx, s.events, s.logger, events.NewEvent(events.GroupStudentJoined, groupSubject(groupID),
		events.MembershipData{GroupID: groupID, StudentID: actor.ID}))
	return nil
}

func (s *groupService) Leave(ctx context.Context, actor models.Actor, groupID uint) error {
	s.logger.Info("Leaving group", "group_id", groupID, "student_id", actor.ID)

	_, facts, err := groupFacts(ctx, s.repo, actor, groupID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, permissions.OpLeaveGroup, facts); err != nil {
		return err
	}

	if err := s.repo.Group().RemoveStudent(ctx, groupID, actor.ID); err != nil {
		return membershipError(err)
	}

	publish(ctx, s.events, s.logger, events.NewEvent(events.GroupStudentLeft, groupSubject(groupID),
		events.MembershipData{GroupID: groupID, StudentID: actor.ID}))
	return nil
}

// membershipError maps the state re-checked under lock onto the same
// validation messages the permission check produces
func membershipError(err error) error {
	var reason permissions.DenyReason
	switch {
	case errors.Is(err, repositories.ErrGroupClosed):
		reason = permissions.ReasonGroupClosed
	case errors.Is(err, repositories.ErrGroupFull):
		reason = permissions.ReasonGroupFull
	case errors.Is(err, repositories.ErrAlreadyMember):
		reason = permissions.ReasonAlreadyMember
	case errors.Is(err, repositories.ErrNotMember):
		reason = permissions.ReasonNotInGroup
	case repositories.IsNotFoundError(err):
		return ErrGroupNotFound
	default:
		return fmt.Errorf("failed to change group membership: %w", err)
	}
	return validator.NewValidationErrors("group", reason.String(), nil)
}

func (s *groupService) requireProgram(ctx context.Context, programID uint) error {
	if _, err := s.repo.Program().GetByID(ctx, programID); err != nil {
		if repositories.IsNotFoundError(err) {
			return validator.NewValidationErrors("program_id", "program does not exist", programID)
		}
		return fmt.Errorf("failed to get program: %w", err)
	}
	return nil
}

func (s *groupService) requireTeacher(ctx context.Context, teacherID uint) error {
	user, err := s.repo.User().GetByID(ctx, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return validator.NewValidationErrors("teacher_id", "teacher does not exist", teacherID)
		}
		return fmt.Errorf("failed to get teacher: %w", err)
	}
	if user.Role != models.RoleTeacher {
		return validator.NewValidationErrors("teacher_id", "user is not a teacher", teacherID)
	}
	return nil
}
