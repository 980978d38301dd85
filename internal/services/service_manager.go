package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	// Service instances
	userService       UserService
	programService    ProgramService
	groupService      GroupService
	lessonService     LessonService
	materialService   MaterialService
	messageService    MessageService
	attendanceService AttendanceService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies) ServiceManager {
	return &serviceManager{deps: deps.withDefaults()}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return errors.New("service manager requires a repository")
	}
	if sm.deps.Authorizer == nil {
		return errors.New("service manager requires an authorizer")
	}
	if sm.deps.Tokens == nil {
		return errors.New("service manager requires a token codec")
	}

	sm.deps.Logger.Info("Initializing service manager", "bulk_policy", sm.deps.BulkPolicy)

	sm.userService = NewUserService(sm.deps)
	sm.programService = NewProgramService(sm.deps)
	sm.groupService = NewGroupService(sm.deps)
	sm.lessonService = NewLessonService(sm.deps)
	sm.materialService = NewMaterialService(sm.deps)
	sm.messageService = NewMessageService(sm.deps)
	sm.attendanceService = NewAttendanceService(sm.deps)

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

// ready panics when a getter is used before Initialize
func (sm *serviceManager) ready(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("user")
	return sm.userService
}

func (sm *serviceManager) Program() ProgramService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("program")
	return sm.programService
}

func (sm *serviceManager) Group() GroupService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("group")
	return sm.groupService
}

func (sm *serviceManager) Lesson() LessonService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("lesson")
	return sm.lessonService
}

func (sm *serviceManager) Material() MaterialService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("material")
	return sm.materialService
}

func (sm *serviceManager) Message() MessageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("message")
	return sm.messageService
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("attendance")
	return sm.attendanceService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.deps.Logger.Info("Shutting down service manager")

	var errs []error
	if err := sm.deps.Events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
	}

	sm.shutdown = true
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	sm.deps.Logger.Info("Service manager shut down successfully")
	return nil
}
