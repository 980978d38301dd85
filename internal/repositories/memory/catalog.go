package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

// ===== PROGRAMS =====

type programRepo struct{ r *Repository }

func (p programRepo) Create(ctx context.Context, program *models.EducationalProgram) error {
	return p.r.do(func(s *state) error {
		program.ID = s.newID()
		if program.Version == 0 {
			program.Version = 1
		}
		s.programs[program.ID] = *program
		return nil
	})
}

func (p programRepo) GetByID(ctx context.Context, id uint) (*models.EducationalProgram, error) {
	var out models.EducationalProgram
	err := p.r.do(func(s *state) error {
		program, ok := s.programs[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = program
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p programRepo) List(ctx context.Context, activeOnly bool) ([]*models.EducationalProgram, error) {
	var out []*models.EducationalProgram
	err := p.r.do(func(s *state) error {
		for _, program := range s.programs {
			if activeOnly && !program.IsActive {
				continue
			}
			out = append(out, &program)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.EducationalProgram) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (p programRepo) Update(ctx context.Context, program *models.EducationalProgram) error {
	return p.r.do(func(s *state) error {
		current, ok := s.programs[program.ID]
		if !ok || current.Version != program.Version {
			return repositories.ErrVersionConflict
		}
		current.Name = program.Name
		current.Description = program.Description
		current.IsActive = program.IsActive
		current.UpdatedAt = program.UpdatedAt
		current.Version++
		s.programs[program.ID] = current
		program.Version = current.Version
		return nil
	})
}

// ===== GROUPS =====

type groupRepo struct{ r *Repository }

func (g groupRepo) Create(ctx context.Context, group *models.Group) error {
	return g.r.do(func(s *state) error {
		group.ID = s.newID()
		if group.Version == 0 {
			group.Version = 1
		}
		stored := *group
		stored.Program, stored.Teacher = nil, nil
		s.groups[group.ID] = stored
		return nil
	})
}

func (g groupRepo) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var out models.Group
	err := g.r.do(func(s *state) error {
		group, ok := s.groups[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = group
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (g groupRepo) List(ctx context.Context, filters repositories.GroupFilters) ([]*models.Group, error) {
	var out []*models.Group
	err := g.r.do(func(s *state) error {
		for _, group := range s.groups {
			if filters.ProgramID != nil && group.ProgramID != *filters.ProgramID {
				continue
			}
			if filters.TeacherID != nil && group.TeacherID != *filters.TeacherID {
				continue
			}
			if filters.StudentID != nil {
				if _, ok := s.members[group.ID][*filters.StudentID]; !ok {
					continue
				}
			}
			if filters.OpenOnly && !group.IsOpen {
				continue
			}
			out = append(out, &group)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Group) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (g groupRepo) Update(ctx context.Context, group *models.Group) error {
	return g.r.do(func(s *state) error {
		current, ok := s.groups[group.ID]
		if !ok || current.Version != group.Version {
			return repositories.ErrVersionConflict
		}
		if members := len(s.members[group.ID]); members > group.MaxStudents {
			return &repositories.CapacityError{MaxStudents: group.MaxStudents, Members: members}
		}
		current.Name = group.Name
		current.Description = group.Description
		current.TeacherID = group.TeacherID
		current.MaxStudents = group.MaxStudents
		current.IsOpen = group.IsOpen
		current.UpdatedAt = group.UpdatedAt
		current.Version++
		s.groups[group.ID] = current
		group.Version = current.Version
		return nil
	})
}

func (g groupRepo) Delete(ctx context.Context, id uint) error {
	return g.r.do(func(s *state) error {
		if _, ok := s.groups[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.groups, id)
		delete(s.members, id)
		for lessonID, lesson := range s.lessons {
			if lesson.GroupID != nil && *lesson.GroupID == id {
				lesson.GroupID = nil
				s.lessons[lessonID] = lesson
			}
		}
		return nil
	})
}

func (g groupRepo) GetOwnerID(ctx context.Context, groupID uint) (uint, error) {
	group, err := g.GetByID(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return group.TeacherID, nil
}

func (g groupRepo) GetMemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	err := g.r.do(func(s *state) error {
		if _, ok := s.groups[groupID]; !ok {
			return repositories.ErrNotFound
		}
		for studentID := range s.members[groupID] {
			ids = append(ids, studentID)
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

func (g groupRepo) IsMember(ctx context.Context, groupID, studentID uint) (bool, error) {
	var member bool
	err := g.r.do(func(s *state) error {
		_, member = s.members[groupID][studentID]
		return nil
	})
	return member, err
}

func (g groupRepo) CountMembers(ctx context.Context, groupID uint) (int, error) {
	var n int
	err := g.r.do(func(s *state) error {
		n = len(s.members[groupID])
		return nil
	})
	return n, err
}

// AddStudent checks and inserts under the gate, so concurrent joins are
// serialized exactly like the row lock in PostgreSQL.
func (g groupRepo) AddStudent(ctx context.Context, groupID, studentID uint, joinedAt time.Time) error {
	return g.r.do(func(s *state) error {
		group, ok := s.groups[groupID]
		if !ok {
			return repositories.ErrNotFound
		}
		if !group.IsOpen {
			return repositories.ErrGroupClosed
		}
		members := s.members[groupID]
		if len(members) >= group.MaxStudents {
			return repositories.ErrGroupFull
		}
		if _, ok := members[studentID]; ok {
			return repositories.ErrAlreadyMember
		}
		if members == nil {
			members = map[uint]time.Time{}
			s.members[groupID] = members
		}
		members[studentID] = joinedAt
		return nil
	})
}

func (g groupRepo) RemoveStudent(ctx context.Context, groupID, studentID uint) error {
	return g.r.do(func(s *state) error {
		if _, ok := s.members[groupID][studentID]; !ok {
			return repositories.ErrNotMember
		}
		delete(s.members[groupID], studentID)
		return nil
	})
}

// ===== LESSONS =====

type lessonRepo struct{ r *Repository }

func (l lessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	return l.r.do(func(s *state) error {
		lesson.ID = s.newID()
		if lesson.Version == 0 {
			lesson.Version = 1
		}
		stored := *lesson
		stored.Group = nil
		s.lessons[lesson.ID] = stored
		return nil
	})
}

func (l lessonRepo) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var out models.Lesson
	err := l.r.do(func(s *state) error {
		lesson, ok := s.lessons[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (l lessonRepo) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, error) {
	var out []*models.Lesson
	err := l.r.do(func(s *state) error {
		for _, lesson := range s.lessons {
			if filters.ProgramID != nil && lesson.ProgramID != *filters.ProgramID {
				continue
			}
			if filters.GroupID != nil && (lesson.GroupID == nil || *lesson.GroupID != *filters.GroupID) {
				continue
			}
			if filters.TeacherID != nil {
				if lesson.GroupID == nil || s.groups[*lesson.GroupID].TeacherID != *filters.TeacherID {
					continue
				}
			}
			if filters.StudentID != nil {
				if lesson.GroupID == nil {
					continue
				}
				if _, ok := s.members[*lesson.GroupID][*filters.StudentID]; !ok {
					continue
				}
			}
			out = append(out, &lesson)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Lesson) int {
		if c := cmp.Compare(a.OrderNumber, b.OrderNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (l lessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	return l.r.do(func(s *state) error {
		current, ok := s.lessons[lesson.ID]
		if !ok || current.Version != lesson.Version {
			return repositories.ErrVersionConflict
		}
		current.Title = lesson.Title
		current.Description = lesson.Description
		current.GroupID = lesson.GroupID
		current.OrderNumber = lesson.OrderNumber
		current.ScheduledAt = lesson.ScheduledAt
		current.DurationMinutes = lesson.DurationMinutes
		current.TeacherComment = lesson.TeacherComment
		current.UpdatedAt = lesson.UpdatedAt
		current.Version++
		s.lessons[lesson.ID] = current
		lesson.Version = current.Version
		return nil
	})
}

func (l lessonRepo) Delete(ctx context.Context, id uint) error {
	return l.r.do(func(s *state) error {
		if _, ok := s.lessons[id]; !ok {
			return repositories.ErrNotFound
		}
		for _, a := range s.attendance {
			if a.LessonID == id {
				return repositories.ErrInUse
			}
		}
		for _, m := range s.materials {
			if m.LessonID == id {
				return repositories.ErrInUse
			}
		}
		for _, m := range s.messages {
			if m.LessonID == id {
				return repositories.ErrInUse
			}
		}
		delete(s.lessons, id)
		return nil
	})
}

func (l lessonRepo) GetGroupID(ctx context.Context, lessonID uint) (*uint, error) {
	lesson, err := l.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	return lesson.GroupID, nil
}

// ===== MATERIALS =====

type materialRepo struct{ r *Repository }

func (m materialRepo) Create(ctx context.Context, material *models.Material) error {
	return m.r.do(func(s *state) error {
		material.ID = s.newID()
		if material.Version == 0 {
			material.Version = 1
		}
		s.materials[material.ID] = *material
		return nil
	})
}

func (m materialRepo) GetByID(ctx context.Context, id uint) (*models.Material, error) {
	var out models.Material
	err := m.r.do(func(s *state) error {
		material, ok := s.materials[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m materialRepo) List(ctx context.Context, lessonID *uint) ([]*models.Material, error) {
	var out []*models.Material
	err := m.r.do(func(s *state) error {
		for _, material := range s.materials {
			if lessonID != nil && material.LessonID != *lessonID {
				continue
			}
			out = append(out, &material)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Material) int {
		if c := cmp.Compare(a.LessonID, b.LessonID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.OrderNumber, b.OrderNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (m materialRepo) Update(ctx context.Context, material *models.Material) error {
	return m.r.do(func(s *state) error {
		current, ok := s.materials[material.ID]
		if !ok || current.Version != material.Version {
			return repositories.ErrVersionConflict
		}
		current.Title = material.Title
		current.Description = material.Description
		current.Content = material.Content
		current.Link = material.Link
		current.Type = material.Type
		current.OrderNumber = material.OrderNumber
		current.UpdatedAt = material.UpdatedAt
		current.Version++
		s.materials[material.ID] = current
		material.Version = current.Version
		return nil
	})
}

func (m materialRepo) Delete(ctx context.Context, id uint) error {
	return m.r.do(func(s *state) error {
		if _, ok := s.materials[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.materials, id)
		return nil
	})
}
