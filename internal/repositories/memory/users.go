package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type userRepo struct{ r *Repository }

func (u userRepo) Create(ctx context.Context, user *models.User) error {
	return u.r.do(func(s *state) error {
		email := strings.ToLower(user.Email)
		for _, existing := range s.users {
			if existing.Email == email {
				return repositories.ErrDuplicate
			}
		}
		user.ID = s.newID()
		user.Email = email
		if user.Version == 0 {
			user.Version = 1
		}
		s.users[user.ID] = *user
		return nil
	})
}

func (u userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var out models.User
	err := u.r.do(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out models.User
	err := u.r.do(func(s *state) error {
		email = strings.ToLower(email)
		for _, user := range s.users {
			if user.Email == email {
				out = user
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u userRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	var total int64
	err := u.r.do(func(s *state) error {
		var all []*models.User
		for _, user := range s.users {
			if filters.Role != nil && user.Role != *filters.Role {
				continue
			}
			all = append(all, &user)
		}
		slices.SortFunc(all, func(a, b *models.User) int { return cmp.Compare(a.ID, b.ID) })
		total = int64(len(all))
		out = paginate(all, filters.Offset, filters.Limit)
		return nil
	})
	return out, total, err
}

func (u userRepo) Update(ctx context.Context, user *models.User) error {
	return u.r.do(func(s *state) error {
		current, ok := s.users[user.ID]
		if !ok || current.Version != user.Version {
			return repositories.ErrVersionConflict
		}
		email := strings.ToLower(user.Email)
		for id, other := range s.users {
			if id != user.ID && other.Email == email {
				return repositories.ErrDuplicate
			}
		}

		current.Email = email
		current.Name = user.Name
		current.Description = user.Description
		current.Role = user.Role
		current.UpdatedAt = user.UpdatedAt
		if user.PasswordHash != "" {
			current.PasswordHash = user.PasswordHash
		}
		current.Version++
		s.users[user.ID] = current

		user.Email = email
		user.Version = current.Version
		return nil
	})
}

func (u userRepo) Delete(ctx context.Context, id uint) error {
	return u.r.do(func(s *state) error {
		if _, ok := s.users[id]; !ok {
			return repositories.ErrNotFound
		}
		for _, g := range s.groups {
			if g.TeacherID == id {
				return repositories.ErrInUse
			}
		}
		for _, a := range s.attendance {
			if a.StudentID == id || a.MarkedByTeacherID == id {
				return repositories.ErrInUse
			}
		}
		for _, m := range s.messages {
			if m.SenderID == id {
				return repositories.ErrInUse
			}
		}

		delete(s.users, id)
		for _, members := range s.members {
			delete(members, id)
		}
		return nil
	})
}

func (u userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.GetByEmail(ctx, email)
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
