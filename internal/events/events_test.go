package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(AttendanceMarked, "lesson:5", AttendanceData{LessonID: 5, StudentID: 9})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Source != "classroom-service" {
		t.Errorf("Expected source 'classroom-service', got '%s'", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("Event timestamp should not be zero")
	}
}

func TestWatermillPublisher_Topic(t *testing.T) {
	pub, pubSub := NewInProcessPublisher("school", testLogger())
	defer pubSub.Close()

	tests := []struct {
		eventType EventType
		want      string
	}{
		{AttendanceRosterReplaced, "school.attendance"},
		{AttendanceDeleted, "school.attendance"},
		{GroupStudentJoined, "school.group"},
	}
	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if got := pub.Topic(tt.eventType); got != tt.want {
				t.Fatalf("Topic(%s) = %q, want %q", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestWatermillPublisher_PublishInProcess(t *testing.T) {
	pub, pubSub := NewInProcessPublisher("", testLogger())
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "classroom.group")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := NewEvent(GroupStudentJoined, "group:3", MembershipData{GroupID: 3, StudentID: 12})
	if err := pub.Publish(ctx, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message uuid = %s, want %s", msg.UUID, event.ID)
		}
		if msg.Metadata.Get("event_type") != "group.student_joined" {
			t.Errorf("event_type metadata = %q", msg.Metadata.Get("event_type"))
		}
		if msg.Metadata.Get("partition_key") != "group:3" {
			t.Errorf("partition_key metadata = %q", msg.Metadata.Get("partition_key"))
		}

		var decoded struct {
			Type EventType      `json:"type"`
			Data MembershipData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if decoded.Type != GroupStudentJoined || decoded.Data.StudentID != 12 {
			t.Errorf("decoded = %+v", decoded)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	_ = mock.Publish(ctx, NewEvent(AttendanceMarked, "lesson:1", nil))
	_ = mock.Publish(ctx, NewEvent(GroupStudentLeft, "group:1", nil))

	if got := len(mock.GetPublishedEvents()); got != 2 {
		t.Fatalf("Expected 2 events, got %d", got)
	}
	if got := len(mock.EventsOfType(GroupStudentLeft)); got != 1 {
		t.Fatalf("Expected 1 group.student_left event, got %d", got)
	}

	mock.ClearEvents()
	if got := len(mock.GetPublishedEvents()); got != 0 {
		t.Fatalf("Expected no events after clear, got %d", got)
	}
}
