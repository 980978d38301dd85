package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/models"
)

func TestProgramService_DeleteDeactivates(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewProgramService(h.deps)

	p, err := svc.Create(ctx, h.admin, &CreateProgramRequest{Name: "Frontend"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, h.teacher, p.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("teacher delete err = %v", err)
	}
	if err := svc.Delete(ctx, h.admin, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := svc.GetByID(ctx, h.teacher, p.ID)
	if err != nil || got.IsActive {
		t.Fatalf("deactivated program = %+v, %v", got, err)
	}
	active, err := svc.List(ctx, h.teacher)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range active {
		if a.ID == p.ID {
			t.Fatal("deactivated program must not be listed")
		}
	}
	if err := svc.Delete(ctx, h.admin, 9999); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("missing program err = %v", err)
	}
}

func TestLessonService_CreateAndComment(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewLessonService(h.deps)

	other := h.user(t, "other@example.com", models.RoleTeacher)
	g := h.group(t, h.teacher, 5)
	foreignProgram := &models.EducationalProgram{Name: "Other", IsActive: true}
	if err := h.repo.Program().Create(ctx, foreignProgram); err != nil {
		t.Fatal(err)
	}

	when := h.clock.Now().Add(24 * time.Hour)
	lesson, err := svc.Create(ctx, h.admin, &CreateLessonRequest{Title: "Intro", ProgramID: h.program.ID, GroupID: &g.ID, ScheduledAt: when})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lesson.DurationMinutes != models.DefaultLessonDuration {
		t.Fatalf("duration = %d", lesson.DurationMinutes)
	}

	invalid := []struct {
		name string
		req  *CreateLessonRequest
	}{
		{name: "missing program", req: &CreateLessonRequest{Title: "x", ProgramID: 9999, ScheduledAt: when}},
		{name: "group of another program", req: &CreateLessonRequest{Title: "x", ProgramID: foreignProgram.ID, GroupID: &g.ID, ScheduledAt: when}},
		{name: "no schedule", req: &CreateLessonRequest{Title: "x", ProgramID: h.program.ID}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, h.admin, tt.req); !isValidation(err) {
				t.Fatalf("err = %v, want ValidationErrors", err)
			}
		})
	}

	commented, err := svc.Comment(ctx, h.teacher, lesson.ID, &LessonCommentRequest{Comment: " well done "})
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if commented.TeacherComment == nil || *commented.TeacherComment != "well done" || commented.Version != 2 {
		t.Fatalf("commented = %+v", commented)
	}
	if _, err := svc.Comment(ctx, other, lesson.ID, &LessonCommentRequest{Comment: "x"}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("foreign comment err = %v", err)
	}
	if _, err := svc.Comment(ctx, h.teacher, 9999, &LessonCommentRequest{Comment: "x"}); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("missing lesson err = %v", err)
	}
}

func TestLessonService_DeleteInUse(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1)
	lesson := h.lesson(t, &g.ID)

	if _, err := NewMessageService(h.deps).Create(ctx, s1, &CreateMessageRequest{LessonID: lesson.ID, Content: "hi"}); err != nil {
		t.Fatalf("post message: %v", err)
	}

	svc := NewLessonService(h.deps)
	if err := svc.Delete(ctx, h.admin, lesson.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	empty := h.lesson(t, &g.ID)
	if err := svc.Delete(ctx, h.admin, empty.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, s1, empty.ID); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
}

func TestMaterialService_OwnerOnly(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewMaterialService(h.deps)

	other := h.user(t, "other@example.com", models.RoleTeacher)
	g := h.group(t, h.teacher, 5)
	lesson := h.lesson(t, &g.ID)

	m, err := svc.Create(ctx, h.teacher, &CreateMaterialRequest{Title: "Slides", LessonID: lesson.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Type != models.MaterialText {
		t.Fatalf("type = %q, want Text by default", m.Type)
	}

	if _, err := svc.Create(ctx, other, &CreateMaterialRequest{Title: "x", LessonID: lesson.ID}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("foreign create err = %v", err)
	}
	if _, err := svc.Create(ctx, h.teacher, &CreateMaterialRequest{Title: "x", LessonID: 9999}); !isValidation(err) {
		t.Fatalf("missing lesson err = %v", err)
	}
	if _, err := svc.Create(ctx, h.teacher, &CreateMaterialRequest{Title: "x", LessonID: lesson.ID, Type: "Podcast"}); !isValidation(err) {
		t.Fatalf("bad type err = %v", err)
	}

	link := "https://example.com/slides"
	linkType := string(models.MaterialLink)
	updated, err := svc.Update(ctx, h.teacher, m.ID, &UpdateMaterialRequest{Link: &link, Type: &linkType})
	if err != nil || updated.Type != models.MaterialLink || *updated.Link != link {
		t.Fatalf("Update = %+v, %v", updated, err)
	}
	if err := svc.Delete(ctx, other, m.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := svc.Delete(ctx, h.admin, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, h.teacher, m.ID); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
}

func TestMessageService_Discussion(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewMessageService(h.deps)

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	outsider := h.user(t, "s3@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 5, s1, s2)
	lesson := h.lesson(t, &g.ID)

	msg, err := svc.Create(ctx, s1, &CreateMessageRequest{LessonID: lesson.ID, Content: "question"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, outsider, &CreateMessageRequest{LessonID: lesson.ID, Content: "hi"}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("outsider post err = %v", err)
	}
	if _, err := svc.Create(ctx, h.teacher, &CreateMessageRequest{LessonID: lesson.ID, Content: "answer"}); err != nil {
		t.Fatalf("owner post: %v", err)
	}

	thread, err := svc.GetByLesson(ctx, s2, lesson.ID)
	if err != nil || len(thread) != 2 {
		t.Fatalf("thread = %d, %v", len(thread), err)
	}
	if thread[0].Sender == nil || thread[0].Sender.PasswordHash != "" {
		t.Fatalf("sender = %+v, want attached without password hash", thread[0].Sender)
	}
	if _, err := svc.GetByLesson(ctx, outsider, lesson.ID); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("outsider read err = %v", err)
	}

	if _, err := svc.Update(ctx, s2, msg.ID, &UpdateMessageRequest{Content: "hijack"}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("non-sender edit err = %v", err)
	}
	h.clock.Advance(time.Minute)
	edited, err := svc.Update(ctx, s1, msg.ID, &UpdateMessageRequest{Content: "better question"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !edited.IsEdited || edited.EditedAt == nil || !edited.EditedAt.Equal(h.clock.Now()) {
		t.Fatalf("edited = %+v", edited)
	}

	if _, err := svc.ListAll(ctx, h.teacher); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("teacher ListAll err = %v", err)
	}
	if err := svc.Delete(ctx, h.admin, msg.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	all, err := svc.ListAll(ctx, h.admin)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListAll = %d, %v", len(all), err)
	}
}
