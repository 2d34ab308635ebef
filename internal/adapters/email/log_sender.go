// Package email holds EmailSender adapters. Real delivery is outside
// this system; the log sender writes the verification link to the log
// so operators (and tests) can pick it up.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maroltinger/votebox/internal/core/ports"
)

type LogSender struct {
	// BaseURL is the public base of the verification endpoint, e.g.
	// "http://localhost:8080".
	BaseURL string
}

func NewLogSender(baseURL string) ports.EmailSender {
	return &LogSender{BaseURL: baseURL}
}

func (s *LogSender) SendVerification(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", s.BaseURL, token)
	slog.Info("verification mail", "email", email, "link", link)
	return nil
}
