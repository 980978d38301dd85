package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "classroom-service"
	EventVersion = "1.0"
)

type EventType string

const (
	AttendanceRosterReplaced EventType = "attendance.roster_replaced"
	AttendanceMarked         EventType = "attendance.marked"
	AttendanceUpdated        EventType = "attendance.updated"
	AttendanceDeleted        EventType = "attendance.deleted"

	GroupStudentJoined EventType = "group.student_joined"
	GroupStudentLeft   EventType = "group.student_left"
)

// Event is the envelope published for every domain change
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Subject   string      `json:"subject"` // partition key, e.g. "lesson:5"
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, subject string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Data:      data,
	}
}

// EventPublisher delivers events to the message bus. Publishing happens
// after the originating transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== PAYLOADS =====

type RosterReplacedData struct {
	LessonID  uint   `json:"lesson_id"`
	ActorID   uint   `json:"actor_id"`
	Policy    string `json:"policy"`
	Submitted int    `json:"submitted"`
	Removed   int    `json:"removed"`
}

type AttendanceData struct {
	AttendanceID      uint `json:"attendance_id"`
	LessonID          uint `json:"lesson_id"`
	StudentID         uint `json:"student_id"`
	IsPresent         bool `json:"is_present"`
	MarkedByTeacherID uint `json:"marked_by_teacher_id"`
}

type MembershipData struct {
	GroupID   uint `json:"group_id"`
	StudentID uint `json:"student_id"`
}
