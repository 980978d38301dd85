package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/memory"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// harness wires every service against the in-memory repository
type harness struct {
	repo   *memory.Repository
	events *events.MockEventPublisher
	clock  *clock.FakeClock
	deps   Dependencies

	admin   models.Actor
	teacher models.Actor
	program *models.EducationalProgram
}

func newHarness(t *testing.T, policy models.BulkPolicy) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.Fake(time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC))

	codec, err := auth.NewTokenCodec(testKey, 0, clk)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	h := &harness{
		repo:   memory.New(),
		events: events.NewMockEventPublisher(logger),
		clock:  clk,
	}
	h.deps = Dependencies{
		Repo:       h.repo,
		Authorizer: auth.NewSessionAuthenticator(codec, logger),
		Tokens:     codec,
		Events:     h.events,
		Clock:      clk,
		Logger:     logger,
		Validator:  validator.New(),
		BulkPolicy: policy,
	}

	h.admin = h.user(t, "admin@example.com", models.RoleAdmin)
	h.teacher = h.user(t, "teacher@example.com", models.RoleTeacher)

	h.program = &models.EducationalProgram{Name: "Backend", IsActive: true}
	if err := h.repo.Program().Create(context.Background(), h.program); err != nil {
		t.Fatalf("create program: %v", err)
	}
	return h
}

func (h *harness) user(t *testing.T, email string, role models.Role) models.Actor {
	t.Helper()
	u := &models.User{Email: email, Name: email, Role: role, CreatedAt: h.clock.Now()}
	if err := h.repo.User().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return models.Actor{ID: u.ID, Role: role}
}

func (h *harness) group(t *testing.T, owner models.Actor, capacity int, members ...models.Actor) *models.Group {
	t.Helper()
	ctx := context.Background()
	g := &models.Group{Name: "G", ProgramID: h.program.ID, TeacherID: owner.ID, MaxStudents: capacity, IsOpen: true}
	if err := h.repo.Group().Create(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, m := range members {
		if err := h.repo.Group().AddStudent(ctx, g.ID, m.ID, h.clock.Now()); err != nil {
			t.Fatalf("add member %d: %v", m.ID, err)
		}
	}
	return g
}

func (h *harness) lesson(t *testing.T, groupID *uint) *models.Lesson {
	t.Helper()
	l := &models.Lesson{
		Title:           "Lesson",
		ProgramID:       h.program.ID,
		GroupID:         groupID,
		ScheduledAt:     h.clock.Now(),
		DurationMinutes: models.DefaultLessonDuration,
	}
	if err := h.repo.Lesson().Create(context.Background(), l); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return l
}

func isValidation(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}

// racingRepo runs interfere before every attendance update, simulating a
// writer that commits between the service's read and its write
type racingRepo struct {
	repositories.Repository
	interfere func(ctx context.Context, id uint)
}

func (r racingRepo) Attendance() repositories.AttendanceRepository {
	return racingAttendance{AttendanceRepository: r.Repository.Attendance(), interfere: r.interfere}
}

type racingAttendance struct {
	repositories.AttendanceRepository
	interfere func(ctx context.Context, id uint)
}

func (r racingAttendance) Update(ctx context.Context, attendance *models.Attendance) error {
	r.interfere(ctx, attendance.ID)
	return r.AttendanceRepository.Update(ctx, attendance)
}
