package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

// ===== ATTENDANCE =====

type attendanceRepo struct{ r *Repository }

func findAttendance(s *state, studentID, lessonID uint) (models.Attendance, bool) {
	for _, a := range s.attendance {
		if a.StudentID == studentID && a.LessonID == lessonID {
			return a, true
		}
	}
	return models.Attendance{}, false
}

func insertAttendance(s *state, attendance *models.Attendance) error {
	if _, exists := findAttendance(s, attendance.StudentID, attendance.LessonID); exists {
		return repositories.ErrDuplicate
	}
	attendance.ID = s.newID()
	if attendance.Version == 0 {
		attendance.Version = 1
	}
	s.attendance[attendance.ID] = *attendance
	return nil
}

func (a attendanceRepo) Create(ctx context.Context, attendance *models.Attendance) error {
	return a.r.do(func(s *state) error {
		return insertAttendance(s, attendance)
	})
}

func (a attendanceRepo) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var out models.Attendance
	err := a.r.do(func(s *state) error {
		record, ok := s.attendance[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a attendanceRepo) GetByStudentAndLesson(ctx context.Context, studentID, lessonID uint) (*models.Attendance, error) {
	var out models.Attendance
	err := a.r.do(func(s *state) error {
		record, ok := findAttendance(s, studentID, lessonID)
		if !ok {
			return repositories.ErrNotFound
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a attendanceRepo) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.Attendance, error) {
	var out []*models.Attendance
	err := a.r.do(func(s *state) error {
		for _, record := range s.attendance {
			if filters.LessonID != nil && record.LessonID != *filters.LessonID {
				continue
			}
			if filters.StudentID != nil && record.StudentID != *filters.StudentID {
				continue
			}
			if filters.TeacherID != nil {
				lesson, ok := s.lessons[record.LessonID]
				if !ok || lesson.GroupID == nil {
					continue
				}
				group, ok := s.groups[*lesson.GroupID]
				if !ok || group.TeacherID != *filters.TeacherID {
					continue
				}
			}
			out = append(out, &record)
		}
		return nil
	})
	slices.SortFunc(out, func(x, y *models.Attendance) int {
		if c := cmp.Compare(x.LessonID, y.LessonID); c != 0 {
			return c
		}
		return cmp.Compare(x.StudentID, y.StudentID)
	})
	return out, err
}

func (a attendanceRepo) Update(ctx context.Context, attendance *models.Attendance) error {
	return a.r.do(func(s *state) error {
		current, ok := s.attendance[attendance.ID]
		if !ok || current.Version != attendance.Version {
			return repositories.ErrVersionConflict
		}
		current.IsPresent = attendance.IsPresent
		current.MarkedAt = attendance.MarkedAt
		current.MarkedByTeacherID = attendance.MarkedByTeacherID
		current.Version++
		s.attendance[attendance.ID] = current
		attendance.Version = current.Version
		return nil
	})
}

func (a attendanceRepo) Delete(ctx context.Context, id uint) error {
	return a.r.do(func(s *state) error {
		if _, ok := s.attendance[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.attendance, id)
		return nil
	})
}

// ReplaceForLesson is atomic on its own: a failed insert restores the
// records that were deleted.
func (a attendanceRepo) ReplaceForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error {
	return a.r.do(func(s *state) error {
		before := s.clone()
		for id, record := range s.attendance {
			if record.LessonID == lessonID {
				delete(s.attendance, id)
			}
		}
		for _, record := range records {
			record.LessonID = lessonID
			if err := insertAttendance(s, record); err != nil {
				*s = *before
				return err
			}
		}
		return nil
	})
}

func (a attendanceRepo) UpsertForLesson(ctx context.Context, lessonID uint, records []*models.Attendance) error {
	return a.r.do(func(s *state) error {
		for _, record := range records {
			record.LessonID = lessonID
			current, ok := findAttendance(s, record.StudentID, lessonID)
			if !ok {
				if err := insertAttendance(s, record); err != nil {
					return err
				}
				continue
			}
			current.IsPresent = record.IsPresent
			current.MarkedAt = record.MarkedAt
			current.MarkedByTeacherID = record.MarkedByTeacherID
			current.Version++
			s.attendance[current.ID] = current
			record.ID = current.ID
			record.Version = current.Version
		}
		return nil
	})
}

// ===== AUDIT =====

type auditRepo struct{ r *Repository }

func (a auditRepo) Create(ctx context.Context, audit *models.AttendanceAudit) error {
	return a.r.do(func(s *state) error {
		audit.ID = s.newID()
		s.audits[audit.ID] = *audit
		return nil
	})
}

func (a auditRepo) ListByLesson(ctx context.Context, lessonID uint) ([]*models.AttendanceAudit, error) {
	var out []*models.AttendanceAudit
	err := a.r.do(func(s *state) error {
		for _, audit := range s.audits {
			if audit.LessonID == lessonID {
				out = append(out, &audit)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(x, y *models.AttendanceAudit) int { return cmp.Compare(x.ID, y.ID) })
	return out, err
}

// ===== MESSAGES =====

type messageRepo struct{ r *Repository }

func withSender(s *state, message models.Message) *models.Message {
	if sender, ok := s.users[message.SenderID]; ok {
		sender.PasswordHash = ""
		message.Sender = &sender
	}
	return &message
}

func (m messageRepo) Create(ctx context.Context, message *models.Message) error {
	return m.r.do(func(s *state) error {
		message.ID = s.newID()
		if message.Version == 0 {
			message.Version = 1
		}
		stored := *message
		stored.Sender = nil
		s.messages[message.ID] = stored
		return nil
	})
}

func (m messageRepo) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var out *models.Message
	err := m.r.do(func(s *state) error {
		message, ok := s.messages[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = withSender(s, message)
		return nil
	})
	return out, err
}

func (m messageRepo) List(ctx context.Context, lessonID *uint) ([]*models.Message, error) {
	var out []*models.Message
	err := m.r.do(func(s *state) error {
		for _, message := range s.messages {
			if lessonID != nil && message.LessonID != *lessonID {
				continue
			}
			out = append(out, withSender(s, message))
		}
		return nil
	})
	slices.SortFunc(out, func(x, y *models.Message) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out, err
}

func (m messageRepo) Update(ctx context.Context, message *models.Message) error {
	return m.r.do(func(s *state) error {
		current, ok := s.messages[message.ID]
		if !ok || current.Version != message.Version {
			return repositories.ErrVersionConflict
		}
		current.Content = message.Content
		current.IsEdited = message.IsEdited
		current.EditedAt = message.EditedAt
		current.Version++
		s.messages[message.ID] = current
		message.Version = current.Version
		return nil
	})
}

func (m messageRepo) Delete(ctx context.Context, id uint) error {
	return m.r.do(func(s *state) error {
		if _, ok := s.messages[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(s.messages, id)
		return nil
	})
}
