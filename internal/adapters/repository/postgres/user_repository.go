package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, email_verified, COALESCE(verification_token_hash, ''), created_at
	          FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, email_verified, COALESCE(verification_token_hash, ''), created_at
	          FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `SELECT id, email, password_hash, email_verified, COALESCE(verification_token_hash, ''), created_at
	          FROM users WHERE verification_token_hash = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (email, password_hash, verification_token_hash)
	          VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.VerificationTokenHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET email_verified = TRUE, verification_token_hash = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (r *UserRepository) SetVerificationTokenHash(ctx context.Context, id, tokenHash string) error {
	query := `UPDATE users SET verification_token_hash = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tokenHash); err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.EmailVerified, &user.VerificationTokenHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
