package ports

import (
	"context"

	"github.com/maroltinger/votebox/internal/core/domain"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	MarkVerified(ctx context.Context, id string) error
	SetVerificationTokenHash(ctx context.Context, id, tokenHash string) error
}
