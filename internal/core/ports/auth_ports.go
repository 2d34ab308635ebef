package ports

import (
	"context"

	"github.com/maroltinger/votebox/internal/core/domain"
)

type RegisterInput struct {
	Email    string
	Password string
}

type AuthService interface {
	// Register creates an unverified account and sends a verification
	// mail. Only emails of the configured domain are accepted.
	Register(ctx context.Context, input RegisterInput) error

	// Login checks credentials and returns a signed access token plus
	// the authenticated identity. Unverified users can log in but are
	// refused by the voting core.
	Login(ctx context.Context, email, password string) (string, *domain.AuthUser, error)

	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error

	// UserFromToken validates an access token and returns the identity
	// it carries.
	UserFromToken(token string) (*domain.AuthUser, error)
}

// EmailSender delivers verification mails. Actual delivery is outside
// this system; adapters may just log the token.
type EmailSender interface {
	SendVerification(ctx context.Context, email, token string) error
}
