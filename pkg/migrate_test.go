package pkg

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrations(t *testing.T) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer source.Close()

	version, err := source.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if version != 1 {
		t.Fatalf("first version = %d, want 1", version)
	}

	up, _, err := source.ReadUp(version)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer up.Close()
	body, err := io.ReadAll(up)
	if err != nil {
		t.Fatal(err)
	}

	sql := string(body)
	for _, want := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_lesson ON attendances (student_id, lesson_id)",
		"PRIMARY KEY (group_id, student_id)",
		"group_id               BIGINT       REFERENCES groups (id) ON DELETE SET NULL",
		"marked_by_teacher_id BIGINT      NOT NULL REFERENCES users (id) ON DELETE RESTRICT",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("up migration is missing %q", want)
		}
	}

	down, _, err := source.ReadDown(version)
	if err != nil {
		t.Fatalf("ReadDown: %v", err)
	}
	down.Close()
}
