// Package generation implements the credit-metered generation workflow:
// authorization lookup, balance check, one batched vendor call, then an
// atomic debit. A failed vendor call never charges the user.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/llm"
	"github.com/remarkly/backend/internal/server/users"
	"github.com/remarkly/backend/internal/shared"
)

const (
	// alternativesCost is the fixed price of a rephrasing request.
	alternativesCost = 1

	// maxAlternatives caps how many phrasings a rephrasing request returns.
	maxAlternatives = 5
)

type Service struct {
	users   users.Repository
	gateway llm.Gateway
	logger  logging.Logger
}

func NewService(userRepo users.Repository, gateway llm.Gateway, logger logging.Logger) *Service {
	return &Service{
		users:   userRepo,
		gateway: gateway,
		logger:  logger.With("module", "generation"),
	}
}

// Generate produces one comment per profile and debits one credit per
// profile, in strict order: requester lookup, affordability check (no vendor
// call when it fails), vendor call (no debit when it fails), atomic debit.
func (s *Service) Generate(ctx context.Context, requester string, profiles []StudentProfile, style, model string) ([]llm.Comment, error) {

	if len(profiles) == 0 {
		return nil, shared.ErrorEmptyRequest
	}

	user, err := s.users.GetByUsername(ctx, requester)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, shared.ErrorUnauthorized
		}
		return nil, fmt.Errorf("looking up requester: %w", err)
	}

	required := int64(len(profiles))
	if user.Credits < required {
		return nil, &shared.InsufficientCreditsError{Required: required, Available: user.Credits}
	}

	prompt := BuildCommentPrompt(profiles, style)

	comments, err := s.gateway.GenerateComments(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	// The charge is an optimistic decrement, not a write of the balance read
	// above, so concurrent requests for the same user cannot overspend.
	balance, err := s.users.AdjustCredits(ctx, requester, -required)
	if err != nil {
		return nil, fmt.Errorf("debiting credits: %w", err)
	}

	s.logger.Info(ctx, "generation charged",
		"username", requester, "credits", required, "remaining", balance)

	return comments, nil
}

// GenerateAlternatives follows the same ordering with a fixed cost of one
// credit and returns up to five alternative phrasings.
func (s *Service) GenerateAlternatives(ctx context.Context, requester, text, sourceTag, style, model string) ([]string, error) {

	user, err := s.users.GetByUsername(ctx, requester)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, shared.ErrorUnauthorized
		}
		return nil, fmt.Errorf("looking up requester: %w", err)
	}

	if user.Credits < alternativesCost {
		return nil, &shared.InsufficientCreditsError{Required: alternativesCost, Available: user.Credits}
	}

	prompt := BuildAlternativesPrompt(text, sourceTag, style)

	phrasings, err := s.gateway.GenerateStrings(ctx, model, prompt)
	if err != nil {
		return nil, err
	}
	if len(phrasings) > maxAlternatives {
		phrasings = phrasings[:maxAlternatives]
	}

	balance, err := s.users.AdjustCredits(ctx, requester, -alternativesCost)
	if err != nil {
		return nil, fmt.Errorf("debiting credits: %w", err)
	}

	s.logger.Info(ctx, "alternatives charged",
		"username", requester, "credits", alternativesCost, "remaining", balance)

	return phrasings, nil
}
