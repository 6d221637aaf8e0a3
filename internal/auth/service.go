package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/comanda-erp/comanda/internal/session"
	"github.com/comanda-erp/comanda/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	latency time.Duration
}

// NewService constructs a new Service. latency delays every attempt to mimic
// the round-trip to an external identity provider.
func NewService(repo Repository, latency time.Duration) *Service {
	return &Service{repo: repo, latency: latency}
}

// Authenticate validates email/credential pairs.
func (s *Service) Authenticate(ctx context.Context, email, credential string) (session.Identity, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return session.Identity{}, ctx.Err()
		case <-timer.C:
		}
	}
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return session.Identity{}, shared.ErrUnknownIdentity
		}
		return session.Identity{}, err
	}
	if !user.IsActive {
		return session.Identity{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return session.Identity{}, shared.ErrInvalidCredentials
	}
	return session.Identity{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
	}, nil
}

var _ session.Authenticator = (*Service)(nil)
