package users

import (
	"context"
)

// Repository persists user records and owns the only mutation of a user's
// credit balance.
type Repository interface {
	// Create stores a new user. Returns shared.ErrorUserExists when the
	// username is already taken.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByUsername returns shared.ErrorNotFound for unknown users.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// AdjustCredits applies delta to the user's balance in a single atomic
	// step and returns the new balance. A debit that would take the balance
	// below zero is refused with *shared.InsufficientCreditsError; the
	// balance is left untouched.
	AdjustCredits(ctx context.Context, username string, delta int64) (int64, error)
}
