package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/payoutpilot/mentorchat/internal/domain"
	"github.com/payoutpilot/mentorchat/internal/pkg/idtoken"
	"github.com/payoutpilot/mentorchat/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
	ErrInvalidToken = idtoken.ErrInvalidToken
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByUID(ctx context.Context, uid string) (domain.User, error)
}

// AuthService registers and resolves users against identity-provider tokens.
type AuthService struct {
	verifier idtoken.Verifier
	repo     AuthUserRepository
}

func NewAuthService(verifier idtoken.Verifier, repo AuthUserRepository) *AuthService {
	return &AuthService{
		verifier: verifier,
		repo:     repo,
	}
}

// Register verifies the id token and creates the user record with the given
// role. Registering an already-known subject returns the existing record
// unchanged.
func (s *AuthService) Register(ctx context.Context, rawToken, role string) (domain.User, error) {
	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.verifier.Verify -> %w", err)
	}

	user, err := s.repo.FindByUID(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("s.repo.FindByUID -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.User{
		UID:   identity.Subject,
		Email: identity.Email,
		Role:  role,
	})
	if err != nil {
		// Lost a create race; the record exists now.
		if errors.Is(err, repository.ErrUserUIDExists) {
			return s.repo.FindByUID(ctx, identity.Subject)
		}

		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// UserByUID resolves an already-verified subject to its user record.
func (s *AuthService) UserByUID(ctx context.Context, uid string) (domain.User, error) {
	user, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByUID -> %w", err)
	}

	return user, nil
}
