package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash and VerificationTokenHash
// never leave the repository layer.
type User struct {
	ID                    uuid.UUID `json:"id"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	EmailVerified         bool      `json:"email_verified"`
	VerificationTokenHash string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
}

// AuthUser is the authenticated identity attached to a request or a
// vote session. It mirrors the auth provider's view of the user.
type AuthUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// CanVote reports whether this identity may cast votes: it must be
// present and have a verified email.
func (u *AuthUser) CanVote() bool {
	return u != nil && u.EmailVerified
}
