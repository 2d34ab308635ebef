package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

const minPasswordLength = 6

type AuthConfig struct {
	// AllowedDomain is the only email domain accepted for registration,
	// without the leading "@".
	AllowedDomain string
	JWTSecret     []byte
	TokenTTL      time.Duration
}

type AuthService struct {
	userRepo ports.UserRepository
	mailer   ports.EmailSender
	cfg      AuthConfig
}

func NewAuthService(userRepo ports.UserRepository, mailer ports.EmailSender, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if len(cfg.JWTSecret) == 0 {
		slog.Warn("JWT secret not set")
	}
	return &AuthService{userRepo: userRepo, mailer: mailer, cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.HasSuffix(email, "@"+s.cfg.AllowedDomain) {
		return domain.ErrEmailDomain
	}
	if len(input.Password) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	token := uuid.NewString()
	user := &domain.User{
		Email:                 email,
		PasswordHash:          string(hash),
		VerificationTokenHash: hashToken(token),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		// The account exists; the user can request a resend.
		slog.Error("failed to send verification mail", "email", email, "error", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	authUser := &domain.AuthUser{
		ID:            user.ID.String(),
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	}
	token, err := s.generateAccessToken(authUser)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, authUser, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	// Verification tokens are random uuids handed out at registration;
	// they are matched by hash, never stored in the clear.
	user, err := s.findByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}
	if err := s.userRepo.MarkVerified(ctx, user.ID.String()); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	slog.Info("email verified", "user_id", user.ID)
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	token := uuid.NewString()
	if err := s.userRepo.SetVerificationTokenHash(ctx, user.ID.String(), hashToken(token)); err != nil {
		return fmt.Errorf("failed to rotate verification token: %w", err)
	}
	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}
	return nil
}

func (s *AuthService) UserFromToken(tokenString string) (*domain.AuthUser, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	if sub == "" || email == "" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.AuthUser{ID: sub, Email: email, EmailVerified: verified}, nil
}

func (s *AuthService) generateAccessToken(user *domain.AuthUser) (string, error) {
	claims := jwt.MapClaims{
		"sub":            user.ID,
		"email":          user.Email,
		"email_verified": user.EmailVerified,
		"exp":            time.Now().Add(s.cfg.TokenTTL).Unix(),
		"iat":            time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWTSecret)
}

func (s *AuthService) findByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.userRepo.GetByVerificationTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
