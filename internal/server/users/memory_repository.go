package users

import (
	"context"
	"sync"
	"time"

	"github.com/remarkly/backend/internal/shared"
)

// MemoryRepository is a mutex-guarded in-process store. It backs tests and
// the "memory" development backend; state is lost on restart.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return nil, shared.ErrorUserExists
	}

	stored := *user
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.users[user.Username] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[username]
	if !ok {
		return nil, shared.ErrorNotFound
	}

	result := *user
	return &result, nil
}

func (r *MemoryRepository) AdjustCredits(ctx context.Context, username string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[username]
	if !ok {
		return 0, shared.ErrorNotFound
	}

	if user.Credits+delta < 0 {
		return 0, &shared.InsufficientCreditsError{Required: -delta, Available: user.Credits}
	}

	user.Credits += delta
	return user.Credits, nil
}
