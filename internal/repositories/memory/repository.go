// Package memory is an in-process Repository with the same semantics as the
// PostgreSQL implementation. Transactions are exclusive and roll back by
// restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type state struct {
	nextID uint

	users      map[uint]models.User
	programs   map[uint]models.EducationalProgram
	groups     map[uint]models.Group
	members    map[uint]map[uint]time.Time // group -> student -> joined at
	lessons    map[uint]models.Lesson
	materials  map[uint]models.Material
	attendance map[uint]models.Attendance
	audits     map[uint]models.AttendanceAudit
	messages   map[uint]models.Message
}

func newState() *state {
	return &state{
		users:      map[uint]models.User{},
		programs:   map[uint]models.EducationalProgram{},
		groups:     map[uint]models.Group{},
		members:    map[uint]map[uint]time.Time{},
		lessons:    map[uint]models.Lesson{},
		materials:  map[uint]models.Material{},
		attendance: map[uint]models.Attendance{},
		audits:     map[uint]models.AttendanceAudit{},
		messages:   map[uint]models.Message{},
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:     s.nextID,
		users:      maps.Clone(s.users),
		programs:   maps.Clone(s.programs),
		groups:     maps.Clone(s.groups),
		members:    make(map[uint]map[uint]time.Time, len(s.members)),
		lessons:    maps.Clone(s.lessons),
		materials:  maps.Clone(s.materials),
		attendance: maps.Clone(s.attendance),
		audits:     maps.Clone(s.audits),
		messages:   maps.Clone(s.messages),
	}
	for g, m := range s.members {
		c.members[g] = maps.Clone(m)
	}
	return c
}

func (s *state) newID() uint {
	s.nextID++
	return s.nextID
}

// Repository is safe for concurrent use
type Repository struct {
	gate *sync.Mutex
	st   **state
	inTx bool
}

var _ repositories.Repository = (*Repository)(nil)

func New() *Repository {
	st := newState()
	return &Repository{gate: &sync.Mutex{}, st: &st}
}

// do runs fn with exclusive access to the state. Inside a transaction the
// gate is already held.
func (r *Repository) do(fn func(s *state) error) error {
	if !r.inTx {
		r.gate.Lock()
		defer r.gate.Unlock()
	}
	return fn(*r.st)
}

func (r *Repository) User() repositories.UserRepository       { return userRepo{r} }
func (r *Repository) Program() repositories.ProgramRepository { return programRepo{r} }
func (r *Repository) Group() repositories.GroupRepository     { return groupRepo{r} }
func (r *Repository) Lesson() repositories.LessonRepository   { return lessonRepo{r} }

func (r *Repository) Material() repositories.MaterialRepository {
	return materialRepo{r}
}

func (r *Repository) Attendance() repositories.AttendanceRepository {
	return attendanceRepo{r}
}

func (r *Repository) AttendanceAudit() repositories.AttendanceAuditRepository {
	return auditRepo{r}
}

func (r *Repository) Message() repositories.MessageRepository {
	return messageRepo{r}
}

// WithTransaction holds the gate for the whole of fn and restores the
// snapshot taken at entry if fn fails or panics.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.inTx {
		r.gate.Lock()
		defer r.gate.Unlock()
	}

	snapshot := (*r.st).clone()
	committed := false
	defer func() {
		if !committed {
			*r.st = snapshot
		}
	}()

	if err := fn(&Repository{gate: r.gate, st: r.st, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *Repository) Close() error {
	return nil
}

// Manager adapts Repository to repositories.RepositoryManager
type Manager struct {
	repo *Repository
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Initialize() error {
	if m.repo == nil {
		m.repo = New()
	}
	return nil
}

func (m *Manager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *Manager) Shutdown(ctx context.Context) error {
	return m.repo.Close()
}
