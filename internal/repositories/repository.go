package repositories

import "context"

// Repository aggregates every entity repository behind one transaction boundary
type Repository interface {
	// Identity
	User() UserRepository

	// Catalog
	Program() ProgramRepository
	Group() GroupRepository
	Lesson() LessonRepository
	Material() MaterialRepository

	// Classroom activity
	Attendance() AttendanceRepository
	AttendanceAudit() AttendanceAuditRepository
	Message() MessageRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// Returning an error from fn rolls every write back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
