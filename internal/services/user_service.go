package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/clock"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/permissions"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type userService struct {
	repo      repositories.Repository
	authz     Authorizer
	tokens    *auth.TokenCodec
	clock     clock.Clock
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(deps Dependencies) UserService {
	deps = deps.withDefaults()
	return &userService{
		repo:      deps.Repo,
		authz:     deps.Authorizer,
		tokens:    deps.Tokens,
		clock:     deps.Clock,
		logger:    deps.Logger,
		validator: deps.Validator,
	}
}

// ===== AUTHENTICATION =====

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	s.logger.Info("Registering user", "email", req.Email, "role", req.Role)

	if errs := s.validator.GetBusinessValidator().ValidateRegister(req); len(errs) > 0 {
		return nil, errs
	}

	role, err := registrationRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role.String())
	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			auth.RejectPassword(req.Password)
			s.logger.Warn("Login failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		s.logger.Warn("Login failed", "user_id", user.ID, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return s.issue(user)
}

func (s *userService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.IssueWithExpiry(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.NewUserSummary(user),
	}, nil
}

// registrationRole resolves the requested role, defaulting to Student
func registrationRole(raw string) (models.Role, error) {
	if raw == "" {
		return models.RoleStudent, nil
	}
	role, err := models.ParseRole(raw)
	if err != nil {
		return 0, validator.NewValidationErrors("role", err.Error(), raw)
	}
	return role, nil
}

// ===== OWN ACCOUNT =====

func (s *userService) GetMe(ctx context.Context, actor models.Actor) (*models.UserSummary, error) {
	if err := s.authz.Authorize(actor, permissions.OpManageOwnAccount, permissions.Facts{SubjectUserID: actor.ID}); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}
	summary := models.NewUserSummary(user)
	return &summary, nil
}

func (s *userService) UpdateAccount(ctx context.Context, actor models.Actor, req *UpdateAccountRequest) (*models.UserSummary, error) {
	s.logger.Info("Updating account", "user_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpManageOwnAccount, permissions.Facts{SubjectUserID: actor.ID}); err != nil {
		return nil, err
	}

	return s.updateUser(ctx, actor.ID, func(user *models.User) error {
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			user.Description = req.Description
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.PasswordHash = hash
		}
		return nil
	})
}

func (s *userService) DeleteAccount(ctx context.Context, actor models.Actor) error {
	if err := s.authz.Authorize(actor, permissions.OpManageOwnAccount, permissions.Facts{SubjectUserID: actor.ID}); err != nil {
		return err
	}
	return s.delete(ctx, actor.ID)
}

// ===== ADMINISTRATION =====

func (s *userService) GetByEmail(ctx context.Context, actor models.Actor, email string) (*models.UserSummary, error) {
	if err := s.authz.Authorize(actor, permissions.OpManageUsers, permissions.Facts{}); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}
	summary := models.NewUserSummary(user)
	return &summary, nil
}

func (s *userService) List(ctx context.Context, actor models.Actor, page, size int) (*UserListResponse, error) {
	if err := s.authz.Authorize(actor, permissions.OpManageUsers, permissions.Facts{}); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, models.NewUserSummary(u))
	}
	return &UserListResponse{Users: summaries, Total: total, Page: page, Size: size}, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor models.Actor, id uint, req *AdminUpdateUserRequest) (*models.UserSummary, error) {
	s.logger.Info("Updating user", "user_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.authz.Authorize(actor, permissions.OpManageUsers, permissions.Facts{}); err != nil {
		return nil, err
	}

	return s.updateUser(ctx, id, func(user *models.User) error {
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			user.Description = req.Description
		}
		if req.Email != nil {
			user.Email = strings.TrimSpace(*req.Email)
		}
		return nil
	})
}

func (s *userService) DeleteUser(ctx context.Context, actor models.Actor, id uint) error {
	if err := s.authz.Authorize(actor, permissions.OpManageUsers, permissions.Facts{}); err != nil {
		return err
	}
	return s.delete(ctx, id)
}

// ===== HELPERS =====

func (s *userService) updateUser(ctx context.Context, id uint, apply func(*models.User) error) (*models.UserSummary, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}
	// Only a new hash is written back
	user.PasswordHash = ""
	if err := apply(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.repo.User().Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, afterVersionMiss(ctx, err, ErrUserNotFound, func(ctx context.Context) error {
			_, err := s.repo.User().GetByID(ctx, id)
			return err
		})
	}

	summary := models.NewUserSummary(user)
	return &summary, nil
}

func (s *userService) delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting user", "user_id", id)

	if err := s.repo.User().Delete(ctx, id); err != nil {
		switch {
		case repositories.IsNotFoundError(err):
			return ErrUserNotFound
		case errors.Is(err, repositories.ErrInUse):
			return inUseError("user", err)
		default:
			return fmt.Errorf("failed to delete user: %w", err)
		}
	}
	return nil
}
