package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	return verrs[0].Message
}

func TestGroupService_JoinLeave(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewGroupService(h.deps)

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	open := h.group(t, h.teacher, 3)
	closed := h.group(t, h.teacher, 3)
	isOpen := false
	if _, err := svc.Update(ctx, h.admin, closed.ID, &UpdateGroupRequest{IsOpen: &isOpen}); err != nil {
		t.Fatalf("close group: %v", err)
	}

	if err := svc.Join(ctx, s1, open.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	tests := []struct {
		name    string
		run     func() error
		message string
		wantErr error
	}{
		{name: "already member", run: func() error { return svc.Join(ctx, s1, open.ID) }, message: "Student is already in this group"},
		{name: "closed group", run: func() error { return svc.Join(ctx, s2, closed.ID) }, message: "Group is not open for joining"},
		{name: "leave without membership", run: func() error { return svc.Leave(ctx, s2, open.ID) }, message: "Student is not in this group"},
		{name: "teacher cannot join", run: func() error { return svc.Join(ctx, h.teacher, open.ID) }, wantErr: auth.ErrUnauthorized},
		{name: "missing group", run: func() error { return svc.Join(ctx, s2, 9999) }, wantErr: ErrGroupNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if got := validationMessage(t, err); got != tt.message {
				t.Fatalf("message = %q, want %q", got, tt.message)
			}
		})
	}

	if err := svc.Leave(ctx, s1, open.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	detail, err := svc.GetByID(ctx, s1, open.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.StudentCount != 0 || len(detail.StudentIDs) != 0 {
		t.Fatalf("detail = %+v, want empty group", detail)
	}
	if n := len(h.events.EventsOfType(events.GroupStudentLeft)); n != 1 {
		t.Fatalf("left events = %d, want 1", n)
	}
}

func TestGroupService_ConcurrentJoinsRespectCapacity(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewGroupService(h.deps)

	const capacity, students = 3, 16
	g := h.group(t, h.teacher, capacity)
	actors := make([]models.Actor, students)
	for i := range actors {
		actors[i] = h.user(t, fmt.Sprintf("s%d@example.com", i), models.RoleStudent)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)
	for _, a := range actors {
		wg.Add(1)
		go func(a models.Actor) {
			defer wg.Done()
			err := svc.Join(ctx, a, g.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case isValidation(err):
				full++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}(a)
	}
	wg.Wait()

	if joined != capacity || full != students-capacity {
		t.Fatalf("joined = %d full = %d, want %d and %d", joined, full, capacity, students-capacity)
	}
	count, err := h.repo.Group().CountMembers(ctx, g.ID)
	if err != nil || count != capacity {
		t.Fatalf("members = %d, %v", count, err)
	}
}

func TestGroupService_Administration(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()
	svc := NewGroupService(h.deps)

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)

	g, err := svc.Create(ctx, h.admin, &CreateGroupRequest{Name: " Evening ", ProgramID: h.program.ID, TeacherID: h.teacher.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Name != "Evening" || g.MaxStudents != models.DefaultMaxStudents || !g.IsOpen {
		t.Fatalf("group = %+v", g)
	}

	invalid := []struct {
		name string
		req  *CreateGroupRequest
	}{
		{name: "missing program", req: &CreateGroupRequest{Name: "x", ProgramID: 9999, TeacherID: h.teacher.ID}},
		{name: "student as teacher", req: &CreateGroupRequest{Name: "x", ProgramID: h.program.ID, TeacherID: s1.ID}},
		{name: "empty name", req: &CreateGroupRequest{ProgramID: h.program.ID, TeacherID: h.teacher.ID}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, h.admin, tt.req); !isValidation(err) {
				t.Fatalf("err = %v, want ValidationErrors", err)
			}
		})
	}

	if _, err := svc.Create(ctx, h.teacher, &CreateGroupRequest{Name: "x", ProgramID: h.program.ID, TeacherID: h.teacher.ID}); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("teacher create err = %v", err)
	}

	for _, s := range []models.Actor{s1, s2} {
		if err := svc.Join(ctx, s, g.ID); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	one := 1
	if _, err := svc.Update(ctx, h.admin, g.ID, &UpdateGroupRequest{MaxStudents: &one}); !isValidation(err) {
		t.Fatalf("shrinking below membership err = %v", err)
	}

	mine, err := svc.MyGroups(ctx, s1)
	if err != nil || len(mine) != 1 || mine[0].ID != g.ID {
		t.Fatalf("MyGroups = %+v, %v", mine, err)
	}

	if err := svc.Delete(ctx, h.admin, g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, h.admin, g.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
}

// joinAfterCount lets another student join right after the service has
// counted members, before the capacity change is written.
type joinAfterCount struct {
	repositories.Repository
	join func(ctx context.Context, groupID uint)
}

func (r joinAfterCount) Group() repositories.GroupRepository {
	return joinAfterCountGroups{GroupRepository: r.Repository.Group(), join: r.join}
}

type joinAfterCountGroups struct {
	repositories.GroupRepository
	join func(ctx context.Context, groupID uint)
}

func (g joinAfterCountGroups) CountMembers(ctx context.Context, groupID uint) (int, error) {
	count, err := g.GroupRepository.CountMembers(ctx, groupID)
	if err == nil {
		g.join(ctx, groupID)
	}
	return count, err
}

func TestGroupService_ShrinkRacingJoin(t *testing.T) {
	h := newHarness(t, models.BulkPolicyReplace)
	ctx := context.Background()

	s1 := h.user(t, "s1@example.com", models.RoleStudent)
	s2 := h.user(t, "s2@example.com", models.RoleStudent)
	g := h.group(t, h.teacher, 3, s1)

	deps := h.deps
	deps.Repo = joinAfterCount{
		Repository: h.repo,
		join: func(ctx context.Context, groupID uint) {
			if err := h.repo.Group().AddStudent(ctx, groupID, s2.ID, h.clock.Now()); err != nil {
				t.Errorf("interleaved join: %v", err)
			}
		},
	}
	svc := NewGroupService(deps)

	one := 1
	_, err := svc.Update(ctx, h.admin, g.ID, &UpdateGroupRequest{MaxStudents: &one})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 || verrs[0].Field != "max_students" {
		t.Fatalf("err = %v, want max_students validation error", err)
	}

	stored, err := h.repo.Group().GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	count, err := h.repo.Group().CountMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("CountMembers: %v", err)
	}
	if stored.MaxStudents != 3 || count != 2 {
		t.Fatalf("max = %d members = %d, want 3 and 2", stored.MaxStudents, count)
	}
}
