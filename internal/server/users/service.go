// Package users implements account registration, login, and the credit
// ledger primitives every other component builds on.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/remarkly/backend/internal/server/auth"
	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/shared"
)

type Service struct {
	repo                  Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	signupGrant           int64
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                  repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		signupGrant:           cfg.SignupGrant,
	}
}

// Register creates an account with the fixed starting credit grant.
// The email is optional and only used for payment receipts.
func (s *Service) Register(ctx context.Context, username, password, email string) (*User, error) {

	if username == "" || password == "" {
		return nil, shared.ErrorMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Credits:      s.signupGrant,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, shared.ErrorUserExists) {
			return nil, shared.ErrorUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credential and issues a session token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, "", shared.ErrorUnauthorized
		}
		return nil, "", shared.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", shared.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", shared.ErrorInternal
	}

	return user, token, nil
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}
