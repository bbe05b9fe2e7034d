package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu         sync.RWMutex
	byUsername map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byUsername: make(map[string]user.User),
	}
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	_, ok := r.byUsername[username]
	r.mu.RUnlock()

	return ok, nil
}

// Create is the uniqueness guard: the check and the insert happen under one lock.
func (r *UsersRepo) Create(ctx context.Context, username, passwordHash string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[username]; exists {
		return user.User{}, user.ErrUsernameTaken
	}

	r.byUsername[username] = u

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.byUsername[username]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}
