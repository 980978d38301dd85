package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

const attendanceSheet = "Attendance"

var attendanceHeader = []interface{}{"Student ID", "Name", "Email", "Present", "Marked At", "Marked By"}

// ExportLesson writes one row per group member plus any recorded student
// who has since left the group. Unmarked members have empty status cells.
func (s *attendanceService) ExportLesson(ctx context.Context, actor models.Actor, lessonID uint) ([]byte, error) {
	s.logger.Info("Exporting lesson attendance", "lesson_id", lessonID, "actor_id", actor.ID)

	groupID, facts, err := lessonFacts(ctx, s.repo, actor, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, permissions.OpExportAttendance, facts); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		return nil, notFoundAs(err, ErrLessonNotFound, "get lesson")
	}

	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{LessonID: &lessonID})
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson attendance: %w", err)
	}
	byStudent := make(map[uint]*models.Attendance, len(records))
	studentIDs := make([]uint, 0, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r
		studentIDs = append(studentIDs, r.StudentID)
	}
	if groupID != nil {
		members, err := s.repo.Group().GetMemberIDs(ctx, *groupID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load group members: %w", err)
		}
		studentIDs = append(studentIDs, members...)
	}
	slices.Sort(studentIDs)
	studentIDs = slices.Compact(studentIDs)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetCellValue(attendanceSheet, "A1", lesson.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(attendanceSheet, "B1", lesson.ScheduledAt.Format("2006-01-02 15:04")); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(attendanceSheet, "A3", &attendanceHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, studentID := range studentIDs {
		row := []interface{}{studentID, "", "", "", "", ""}
		if user, err := s.repo.User().GetByID(ctx, studentID); err == nil {
			row[1], row[2] = user.Name, user.Email
		} else if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load student %d: %w", studentID, err)
		}
		if r, ok := byStudent[studentID]; ok {
			row[3] = presenceLabel(r.IsPresent)
			row[4] = r.MarkedAt.Format("2006-01-02 15:04")
			row[5] = r.MarkedByTeacherID
		}

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(attendanceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func presenceLabel(present bool) string {
	if present {
		return "Present"
	}
	return "Absent"
}
