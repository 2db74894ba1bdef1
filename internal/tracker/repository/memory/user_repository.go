package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/central-university-dev/go-shuttle/internal/domain/errors"
	"github.com/central-university-dev/go-shuttle/internal/domain/models"
)

type UserRepository struct {
	users map[int64]models.User
	mu    sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[int64]models.User),
	}
}

func (r *UserRepository) FindByID(_ context.Context, chatID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[chatID]
	if !exists {
		return nil, &errors.ErrUserNotFound{ChatID: chatID}
	}

	return &user, nil
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ChatID]; exists {
		return &errors.ErrUserAlreadyExists{ChatID: user.ChatID}
	}

	r.users[user.ChatID] = *user

	return nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ChatID]; !exists {
		return &errors.ErrUserNotFound{ChatID: user.ChatID}
	}

	r.users[user.ChatID] = *user

	return nil
}

func (r *UserRepository) MarkRequestSent(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[chatID]
	if !exists {
		return &errors.ErrUserNotFound{ChatID: chatID}
	}

	user.RequestSent = true
	r.users[chatID] = user

	return nil
}

func (r *UserRepository) FindAdmins(_ context.Context) ([]*models.User, error) {
	return r.filter(func(u models.User) bool { return u.Admin }), nil
}

func (r *UserRepository) FindRequests(_ context.Context) ([]*models.User, error) {
	return r.filter(func(u models.User) bool { return u.Pending && u.RequestSent }), nil
}

func (r *UserRepository) FindBlocked(_ context.Context) ([]*models.User, error) {
	return r.filter(func(u models.User) bool { return u.Blocked && !u.Pending }), nil
}

func (r *UserRepository) FindActive(_ context.Context) ([]*models.User, error) {
	return r.filter(func(u models.User) bool { return !u.Blocked }), nil
}

func (r *UserRepository) Stats(_ context.Context) (*models.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.UserStats{Total: len(r.users)}

	for _, user := range r.users {
		if user.Blocked {
			stats.Blocked++
		}

		if user.Pending {
			stats.Pending++
		}

		if user.RequestSent {
			stats.RequestSent++
		}

		if user.Admin {
			stats.Admins++
		}
	}

	return stats, nil
}

func (r *UserRepository) filter(match func(models.User) bool) []*models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0)

	for _, user := range r.users {
		if match(user) {
			u := user
			result = append(result, &u)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ChatID < result[j].ChatID
	})

	return result
}
