package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type attendanceService struct {
	repo      repositories.Repository
	authz     Authorizer
	events    events.EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
	policy    models.BulkPolicy
}

func NewAttendanceService(deps Dependencies) AttendanceService {
	deps = deps.withDefaults()
	return &attendanceService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		events:    deps.Events,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
		policy:    deps.BulkPolicy,
	}
}

// ===== BULK RECONCILIATION =====

// BulkMark makes the submitted roster the lesson's attendance. Every
// submitted student must belong to the lesson's group; if any does not,
// nothing is written.
func (s *attendanceService) BulkMark(ctx context.Context, actor models.Actor, req *BulkAttendanceRequest) (*models.BulkAttendanceResult, error) {
	s.logger.Info("Bulk marking attendance", "lesson_id", req.LessonID, "actor_id", actor.ID, "students", len(req.Students))

	if errs := s.validator.GetBusinessValidator().ValidateBulkAttendance(req); len(errs) > 0 {
		return nil, errs
	}

	groupID, facts, err := lessonFacts(ctx, s.repo, actor, req.LessonID)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return nil, validator.NewValidationErrors("lesson_id", "lesson does not exist", req.LessonID)
		}
		return nil, err
	}

	if err := s.authz.Authorize(actor, permissions.OpBulkMarkAttendance, facts); err != nil {
		return nil, err
	}

	if err := s.requireMembers(ctx, groupID, req.Students); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	submitted := make(map[uint]struct{}, len(req.Students))
	records := make([]*models.Attendance, 0, len(req.Students))
	for _, st := range req.Students {
		submitted[st.StudentID] = struct{}{}
		records = append(records, &models.Attendance{
			StudentID:         st.StudentID,
			LessonID:          req.LessonID,
			IsPresent:         st.IsPresent,
			MarkedAt:          now,
			MarkedByTeacherID: actor.ID,
		})
	}

	removed := []models.AttendanceSnapshot{}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.Attendance().List(ctx, repositories.AttendanceFilters{LessonID: &req.LessonID})
		if err != nil {
			return fmt.Errorf("failed to snapshot lesson attendance: %w", err)
		}

		switch s.policy {
		case models.BulkPolicyMerge:
			if err := tx.Attendance().UpsertForLesson(ctx, req.LessonID, records); err != nil {
				return err
			}
		default:
			for _, e := range existing {
				if _, kept := submitted[e.StudentID]; !kept {
					removed = append(removed, models.AttendanceSnapshot{
						StudentID:         e.StudentID,
						IsPresent:         e.IsPresent,
						MarkedAt:          e.MarkedAt,
						MarkedByTeacherID: e.MarkedByTeacherID,
					})
				}
			}
			if err := tx.Attendance().ReplaceForLesson(ctx, req.LessonID, records); err != nil {
				return err
			}
		}

		removedJSON, err := json.Marshal(removed)
		if err != nil {
			return fmt.Errorf("failed to encode removed records: %w", err)
		}
		return tx.AttendanceAudit().Create(ctx, &models.AttendanceAudit{
			LessonID:  req.LessonID,
			ActorID:   actor.ID,
			Policy:    s.policy,
			Submitted: len(records),
			Removed:   datatypes.JSON(removedJSON),
			CreatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAttendanceExists
		}
		return nil, fmt.Errorf("failed to reconcile attendance: %w", err)
	}

	written, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{LessonID: &req.LessonID})
	if err != nil {
		return nil, fmt.Errorf("failed to reload lesson attendance: %w", err)
	}
	written = slices.DeleteFunc(written, func(a *models.Attendance) bool {
		_, ok := submitted[a.StudentID]
		return !ok
	})

	s.logger.Info("Attendance reconciled",
		"lesson_id", req.LessonID, "policy", s.policy, "written", len(written), "removed", len(removed))

	publish(ctx, s.events, s.logger, events.NewEvent(events.AttendanceRosterReplaced, lessonSubject(req.LessonID), events.RosterReplacedData{
		LessonID:  req.LessonID,
		ActorID:   actor.ID,
		Policy:    string(s.policy),
		Submitted: len(records),
		Removed:   len(removed),
	}))

	return &models.BulkAttendanceResult{
		LessonID: req.LessonID,
		Policy:   s.policy,
		Records:  written,
		Removed:  len(removed),
	}, nil
}

// requireMembers rejects every student not in the group. A lesson with no
// group has no members.
func (s *attendanceService) requireMembers(ctx context.Context, groupID *uint, students []validator.StudentAttendance) error {
	members := map[uint]struct{}{}
	if groupID != nil {
		ids, err := s.repo.Group().GetMemberIDs(ctx, *groupID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to load group members: %w", err)
		}
		for _, id := range ids {
			members[id] = struct{}{}
		}
	}

	var errs ValidationErrors
	for _, st := range students {
		if _, ok := members[st.StudentID]; !ok {
			errs = append(errs, ValidationError{
				Field:   "students",
				Message: fmt.Sprintf("student %d is not a member of the lesson's group", st.StudentID),
				Value:   st.StudentID,
				Rule:    "business_logic",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ===== SINGLE RECORDS =====

func (s *attendanceService) Create(ctx context.Context, actor models.Actor, req *CreateAttendanceRequest) (*models.Attendance, error) {
	s.logger.Info("Marking attendance", "lesson_id", req.LessonID, "student_id", req.StudentID, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	groupID, facts, err := lessonFacts(ctx, s.repo, actor, req.LessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpMarkAttendance, facts); err != nil {
		return nil, err
	}
	if err := s.requireMembers(ctx, groupID, []validator.StudentAttendance{{StudentID: req.StudentID}}); err != nil {
		return nil, err
	}

	if _, err := s.repo.Attendance().GetByStudentAndLesson(ctx, req.StudentID, req.LessonID); err == nil {
		return nil, ErrAttendanceExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing attendance: %w", err)
	}

	record := &models.Attendance{
		StudentID:         req.StudentID,
		LessonID:          req.LessonID,
		IsPresent:         req.IsPresent,
		MarkedAt:          s.clock.Now(),
		MarkedByTeacherID: actor.ID,
	}
	if err := s.repo.Attendance().Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAttendanceExists
		}
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}

	publish(ctx, s.events, s.logger, events.NewEvent(events.AttendanceMarked, lessonSubject(record.LessonID), attendanceData(record)))
	return record, nil
}

func (s *attendanceService) Update(ctx context.Context, actor models.Actor, id uint, req *UpdateAttendanceRequest) (*models.Attendance, error) {
	s.logger.Info("Updating attendance", "attendance_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	record, err := s.authorizeRecord(ctx, actor, id, permissions.OpUpdateAttendance)
	if err != nil {
		return nil, err
	}

	record.IsPresent = *req.IsPresent
	record.MarkedAt = s.clock.Now()
	record.MarkedByTeacherID = actor.ID

	if err := s.repo.Attendance().Update(ctx, record); err != nil {
		return nil, afterVersionMiss(ctx, err, ErrAttendanceNotFound, func(ctx context.Context) error {
			_, err := s.repo.Attendance().GetByID(ctx, id)
			return err
		})
	}

	publish(ctx, s.events, s.logger, events.NewEvent(events.AttendanceUpdated, lessonSubject(record.LessonID), attendanceData(record)))
	return record, nil
}

func (s *attendanceService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	s.logger.Info("Deleting attendance", "attendance_id", id, "actor_id", actor.ID)

	record, err := s.authorizeRecord(ctx, actor, id, permissions.OpDeleteAttendance)
	if err != nil {
		return err
	}
	if err := s.repo.Attendance().Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrAttendanceNotFound, "delete attendance")
	}

	publish(ctx, s.events, s.logger, events.NewEvent(events.AttendanceDeleted, lessonSubject(record.LessonID), attendanceData(record)))
	return nil
}

// authorizeRecord loads a record and checks op against its lesson's group
func (s *attendanceService) authorizeRecord(ctx context.Context, actor models.Actor, id uint, op permissions.Operation) (*models.Attendance, error) {
	record, err := s.repo.Attendance().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrAttendanceNotFound, "get attendance")
	}
	_, facts, err := lessonFacts(ctx, s.repo, actor, record.LessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, op, facts); err != nil {
		return nil, err
	}
	return record, nil
}

// ===== READS =====

// GetAll returns every record for admins and the records of their own
// groups' lessons for teachers
func (s *attendanceService) GetAll(ctx context.Context, actor models.Actor) ([]*models.Attendance, error) {
	if err := s.authz.Authorize(actor, permissions.OpListAttendance, permissions.Facts{}); err != nil {
		return nil, err
	}

	var filters repositories.AttendanceFilters
	if actor.Role == models.RoleTeacher {
		filters.TeacherID = &actor.ID
	}
	records, err := s.repo.Attendance().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func (s *attendanceService) GetByID(ctx context.Context, actor models.Actor, id uint) (*models.Attendance, error) {
	return s.authorizeRecord(ctx, actor, id, permissions.OpReadAttendance)
}

func (s *attendanceService) GetByLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.Attendance, error) {
	_, facts, err := lessonFacts(ctx, s.repo, actor, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpReadAttendance, facts); err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{LessonID: &lessonID})
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson attendance: %w", err)
	}
	return records, nil
}

// GetByStudent limits teachers to their own groups and students to
// themselves
func (s *attendanceService) GetByStudent(ctx context.Context, actor models.Actor, studentID uint) ([]*models.Attendance, error) {
	if err := s.authz.Authorize(actor, permissions.OpReadAttendanceByStudent, permissions.Facts{SubjectUserID: studentID}); err != nil {
		return nil, err
	}

	filters := repositories.AttendanceFilters{StudentID: &studentID}
	if actor.Role == models.RoleTeacher {
		filters.TeacherID = &actor.ID
	}
	records, err := s.repo.Attendance().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list student attendance: %w", err)
	}
	return records, nil
}

func (s *attendanceService) GetAudits(ctx context.Context, actor models.Actor, lessonID uint) ([]*models.AttendanceAudit, error) {
	_, facts, err := lessonFacts(ctx, s.repo, actor, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpReadAttendance, facts); err != nil {
		return nil, err
	}

	audits, err := s.repo.AttendanceAudit().ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance audits: %w", err)
	}
	return audits, nil
}

func attendanceData(a *models.Attendance) events.AttendanceData {
	return events.AttendanceData{
		AttendanceID:      a.ID,
		LessonID:          a.LessonID,
		StudentID:         a.StudentID,
		IsPresent:         a.IsPresent,
		MarkedByTeacherID: a.MarkedByTeacherID,
	}
}
