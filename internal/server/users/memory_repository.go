package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// MemoryRepository is an in-process Repository for development and tests.
// It hands out copies so callers cannot mutate stored records.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrEmailTaken
	}

	user.CreatedAt = time.Now().UTC()
	stored := cloneUser(user)
	r.byID[user.ID] = stored
	r.byEmail[user.Email] = user.ID
	return cloneUser(stored), nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) SetRefreshToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = &token
	return nil
}

func (r *MemoryRepository) ClearRefreshToken(_ context.Context, userID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || u.RefreshToken == nil {
		return false, nil
	}
	if token != "" && *u.RefreshToken != token {
		return false, nil
	}
	u.RefreshToken = nil
	return true, nil
}

func cloneUser(u *User) *User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}
