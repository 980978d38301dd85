package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

func roster(entries ...validator.StudentAttendance) *BulkAttendanceRequest {
	return &BulkAttendanceRequest{Students: entries}
}

func present(id uint) validator.StudentAttendance {
	return validator.StudentAttendance{StudentID: id, IsPresent: true}
}

func absent(id uint) validator.StudentAttendance {
	return validator.StudentAttendance{StudentID: id, IsPresent: false}
}

func presenceByStudent(records []*models.Attendance) map[uint]bool {
	out := make(map[uint]bool, len(records))
	for _, r := range records {
		out[r.StudentID] = r.IsPresent
	}
	return out
}

func TestBulkMark_FullGroupAndForeignTeacher(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	s3 := h.user(t, "s3@example.com", models.RoleStudent)
	teacherU := h.user(t, "u@example.com", models.RoleTeacher)
	g := h.group(t, h.teacher, 2, s1)
	lesson := h.lesson(t, &g.ID)

	groups := NewGroupService(h.deps)
	if err := groups.Join(ctx, s2, g.ID); err != nil {
		t.Fatalf("S2 join: %v", err)
	}

	err := groups.Join(ctx, s3, g.ID)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Message != "Group is full" {
		t.Fatalf("S3 join err = %v, want validation error \"Group is full\"", err)
	}

	req := roster(present(s1.ID), present(s2.ID))
	req.LessonID = lesson.ID
	_, err = NewAttendanceService(h.deps).BulkMark(ctx, teacherU, req)
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("foreign teacher err = %v, want ErrUnauthorized", err)
	}
	if isValidation(err) {
		t.Fatal("access denial must not be a validation error")
	}

	joined := h.events.EventsOfType(events.GroupStudentJoined)
	if len(joined) != 1 {
		t.Fatalf("joined events = %d, want 1", len(joined))
	}
}

func TestBulkMark_NonMemberWritesNothing(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s2)
	lesson := h.lesson(t, &g.ID)
	svc := NewAttendanceService(h.deps)

	existing := &models.Attendance{StudentID: s2.ID, LessonID: lesson.ID, IsPresent: false,
		MarkedAt: h.clock.Now(), MarkedByTeacherID: h.teacher.ID}
	if err := h.repo.Attendance().Create(ctx, existing); err != nil {
		t.Fatal(err)
	}

	req := roster(present(s2.ID), present(s1.ID))
	req.LessonID = lesson.ID
	_, err := svc.BulkMark(ctx, h.admin, req)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if len(verrs) != 1 || verrs[0].Value != s1.ID {
		t.Fatalf("offenders = %+v, want only S1", verrs)
	}

	records, err := h.repo.Attendance().List(ctx, repositories.AttendanceFilters{LessonID: &lesson.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != existing.ID || records[0].IsPresent {
		t.Fatalf("records = %+v, want the pre-existing record untouched", records)
	}
	audits, _ := h.repo.AttendanceAudit().ListByLesson(ctx, lesson.ID)
	if len(audits) != 0 {
		t.Fatal("audit must not be written for a rejected roster")
	}
	if n := len(h.events.GetPublishedEvents()); n != 0 {
		t.Fatalf("published %d events, want none", n)
	}
}

func TestBulkMark_Policies(t *testing.T) {
	tests := []struct {
		name        string
		policy      models.BulkPolicy
		want        map[uint]bool
		wantRemoved int
	}{
		{name: "replace drops omitted students", policy: models.BulkPolicyReplace, want: map[uint]bool{0: false}, wantRemoved: 1},
		{name: "merge keeps omitted students", policy: models.BulkPolicyMerge, want: map[uint]bool{0: false, 1: false}, wantRemoved: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.policy)
			ctx := context.Background()

			students := []models.Actor{
				h.user(t, "s1@example.com", models.RoleStudent),
				h.user(t, "s2@example.com", models.RoleStudent),
			}
			g := h.group(t, h.teacher, 5, students...)
			lesson := h.lesson(t, &g.ID)
			svc := NewAttendanceService(h.deps)

			first := roster(present(students[0].ID), absent(students[1].ID))
			first.LessonID = lesson.ID
			if _, err := svc.BulkMark(ctx, h.teacher, first); err != nil {
				t.Fatalf("first BulkMark: %v", err)
			}

			second := roster(absent(students[0].ID))
			second.LessonID = lesson.ID
			result, err := svc.BulkMark(ctx, h.teacher, second)
			if err != nil {
				t.Fatalf("second BulkMark: %v", err)
			}
			if result.Removed != tt.wantRemoved || result.Policy != tt.policy {
				t.Fatalf("result = %+v", result)
			}
			if len(result.Records) != 1 || result.Records[0].StudentID != students[0].ID {
				t.Fatalf("result records = %+v, want only the submitted student", result.Records)
			}

			stored, err := svc.GetByLesson(ctx, h.teacher, lesson.ID)
			if err != nil {
				t.Fatal(err)
			}
			got := presenceByStudent(stored)
			if len(got) != len(tt.want) {
				t.Fatalf("stored = %v, want %d records", got, len(tt.want))
			}
			for idx, wantPresent := range tt.want {
				p, ok := got[students[idx].ID]
				if !ok || p != wantPresent {
					t.Fatalf("student %d: present=%v ok=%v, want %v", students[idx].ID, p, ok, wantPresent)
				}
			}

			audits, err := svc.GetAudits(ctx, h.teacher, lesson.ID)
			if err != nil || len(audits) != 2 {
				t.Fatalf("audits = %d err = %v", len(audits), err)
			}
			var removed []models.AttendanceSnapshot
			if err := json.Unmarshal(audits[1].Removed, &removed); err != nil {
				t.Fatalf("decode removed: %v", err)
			}
			if len(removed) != tt.wantRemoved {
				t.Fatalf("audit removed = %+v", removed)
			}
			if tt.wantRemoved == 1 && removed[0].StudentID != students[1].ID {
				t.Fatalf("audit removed student %d, want %d", removed[0].StudentID, students[1].ID)
			}
		})
	}
}

func TestBulkMark_Idempotent(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1, s2)
	lesson := h.lesson(t, &g.ID)
	svc := NewAttendanceService(h.deps)

	req := roster(present(s1.ID), absent(s2.ID))
	req.LessonID = lesson.ID
	for i := range 3 {
		result, err := svc.BulkMark(ctx, h.teacher, req)
		if err != nil {
			t.Fatalf("BulkMark #%d: %v", i, err)
		}
		got := presenceByStudent(result.Records)
		if len(got) != 2 || !got[s1.ID] || got[s2.ID] {
			t.Fatalf("BulkMark #%d records = %v", i, got)
		}
	}

	if n := len(h.events.EventsOfType(events.AttendanceRosterReplaced)); n != 3 {
		t.Fatalf("roster events = %d, want 3", n)
	}
}

func TestBulkMark_Rejections(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1)
	lesson := h.lesson(t, &g.ID)
	orphan := h.lesson(t, nil)
	svc := NewAttendanceService(h.deps)

	tests := []struct {
		name       string
		actor      models.Actor
		req        *BulkAttendanceRequest
		validation bool
	}{
		{name: "empty roster", actor: h.teacher, req: &BulkAttendanceRequest{LessonID: lesson.ID}, validation: true},
		{name: "duplicate student", actor: h.teacher, req: &BulkAttendanceRequest{LessonID: lesson.ID, Students: []validator.StudentAttendance{present(s1.ID), absent(s1.ID)}}, validation: true},
		{name: "missing lesson", actor: h.admin, req: &BulkAttendanceRequest{LessonID: 9999, Students: []validator.StudentAttendance{present(s1.ID)}}, validation: true},
		{name: "lesson without group as admin", actor: h.admin, req: &BulkAttendanceRequest{LessonID: orphan.ID, Students: []validator.StudentAttendance{present(s1.ID)}}, validation: true},
		{name: "lesson without group as teacher", actor: h.teacher, req: &BulkAttendanceRequest{LessonID: orphan.ID, Students: []validator.StudentAttendance{present(s1.ID)}}},
		{name: "student", actor: s1, req: &BulkAttendanceRequest{LessonID: lesson.ID, Students: []validator.StudentAttendance{present(s1.ID)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkMark(ctx, tt.actor, tt.req)
			if tt.validation {
				if !isValidation(err) {
					t.Fatalf("err = %v, want ValidationErrors", err)
				}
				return
			}
			if !errors.Is(err, auth.ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestAttendance_CreateConflict(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1)
	lesson := h.lesson(t, &g.ID)
	svc := NewAttendanceService(h.deps)

	req := &CreateAttendanceRequest{StudentID: s1.ID, LessonID: lesson.ID, IsPresent: true}
	record, err := svc.Create(ctx, h.teacher, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.MarkedByTeacherID != h.teacher.ID || !record.MarkedAt.Equal(h.clock.Now()) {
		t.Fatalf("record = %+v", record)
	}

	_, err = svc.Create(ctx, h.teacher, req)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestAttendance_UpdateAfterConcurrentWrite(t *testing.T) {
	tests := []struct {
		name      string
		interfere func(h *harness) func(ctx context.Context, id uint)
		want      error
	}{
		{
			name: "record changed",
			interfere: func(h *harness) func(ctx context.Context, id uint) {
				return func(ctx context.Context, id uint) {
					rec, err := h.repo.Attendance().GetByID(ctx, id)
					if err != nil {
						return
					}
					rec.IsPresent = !rec.IsPresent
					_ = h.repo.Attendance().Update(ctx, rec)
				}
			},
			want: ErrConcurrencyConflict,
		},
		{
			name: "record deleted",
			interfere: func(h *harness) func(ctx context.Context, id uint) {
				return func(ctx context.Context, id uint) {
					_ = h.repo.Attendance().Delete(ctx, id)
				}
			},
			want: ErrAttendanceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, models.BulkPolicyReplace)
			ctx := context.Background()

			s1 := h.user(t, "s1@example.com", models.RoleStudent)
			g := h.group(t, h.teacher, 5, s1)
			lesson := h.lesson(t, &g.ID)

			record, err := NewAttendanceService(h.deps).Create(ctx, h.teacher,
				&CreateAttendanceRequest{StudentID: s1.ID, LessonID: lesson.ID})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			deps := h.deps
			deps.Repo = racingRepo{Repository: h.repo, interfere: tt.interfere(h)}
			yes := true
			_, err = NewAttendanceService(deps).Update(ctx, h.teacher, record.ID, &UpdateAttendanceRequest{IsPresent: &yes})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAttendance_Reads(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	other := h.user(t, "other@example.com", models.RoleTeacher)
	g := h.group(t, h.teacher, 5, s1, s2)
	otherGroup := h.group(t, other, 5, s1)
	lesson := h.lesson(t, &g.ID)
	otherLesson := h.lesson(t, &otherGroup.ID)
	svc := NewAttendanceService(h.deps)

	req := roster(present(s1.ID), absent(s2.ID))
	req.LessonID = lesson.ID
	if _, err := svc.BulkMark(ctx, h.teacher, req); err != nil {
		t.Fatal(err)
	}
	req = roster(present(s1.ID))
	req.LessonID = otherLesson.ID
	if _, err := svc.BulkMark(ctx, other, req); err != nil {
		t.Fatal(err)
	}

	all, err := svc.GetAll(ctx, h.admin)
	if err != nil || len(all) != 3 {
		t.Fatalf("admin GetAll = %d, %v", len(all), err)
	}
	own, err := svc.GetAll(ctx, h.teacher)
	if err != nil || len(own) != 2 {
		t.Fatalf("teacher GetAll = %d, %v", len(own), err)
	}
	if _, err := svc.GetAll(ctx, s1); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("student GetAll err = %v", err)
	}

	mine, err := svc.GetByStudent(ctx, s1, s1.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("student own history = %d, %v", len(mine), err)
	}
	if _, err := svc.GetByStudent(ctx, s1, s2.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("reading another student err = %v", err)
	}
	filtered, err := svc.GetByStudent(ctx, other, s1.ID)
	if err != nil || len(filtered) != 1 || filtered[0].LessonID != otherLesson.ID {
		t.Fatalf("teacher view of student = %+v, %v", filtered, err)
	}

	if _, err := svc.GetByLesson(ctx, other, lesson.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("foreign lesson read err = %v", err)
	}
	if _, err := svc.GetByLesson(ctx, h.admin, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing lesson err = %v", err)
	}
}

func TestAttendance_ExportLesson(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1, s2)
	lesson := h.lesson(t, &g.ID)
	svc := NewAttendanceService(h.deps)

	if _, err := svc.Create(ctx, h.teacher, &CreateAttendanceRequest{StudentID: s1.ID, LessonID: lesson.ID, IsPresent: true}); err != nil {
		t.Fatal(err)
	}

	data, err := svc.ExportLesson(ctx, h.teacher, lesson.ID)
	if err != nil {
		t.Fatalf("ExportLesson: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	cells := []struct {
		cell string
		want string
	}{
		{cell: "A1", want: lesson.Title},
		{cell: "A3", want: "Student ID"},
		{cell: "F3", want: "Marked By"},
		{cell: "A4", want: strconv.FormatUint(uint64(s1.ID), 10)},
		{cell: "C4", want: "s1@example.com"},
		{cell: "D4", want: "Present"},
		{cell: "A5", want: strconv.FormatUint(uint64(s2.ID), 10)},
		{cell: "D5", want: ""},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(attendanceSheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s = %q, want %q", c.cell, got, c.want)
		}
	}

	if _, err := svc.ExportLesson(ctx, s1, lesson.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("student export err = %v", err)
	}
}
