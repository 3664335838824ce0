package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/naira-pay/naira_pay/internal/store"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[string]User
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byEmail: make(map[string]User),
		byID:    make(map[string]User),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User, u store.Unit) error {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return errors.New("user exists")
	}
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user

	mu.OnRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.byEmail, user.Email)
		delete(r.byID, user.ID)
	})
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}
