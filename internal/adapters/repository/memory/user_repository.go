// Package memory holds in-process repositories used by tests and local
// runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUserRepository() ports.UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *UserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.VerificationTokenHash == tokenHash {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.users[user.ID.String()] = copyUser(user)
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.EmailVerified = true
		u.VerificationTokenHash = ""
	}
	return nil
}

func (r *UserRepository) SetVerificationTokenHash(ctx context.Context, id, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.VerificationTokenHash = tokenHash
	}
	return nil
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	return &out
}
