// Package shared defines sentinel errors used across service layers.
// Callers should use errors.Is / errors.As to match these values.
package shared

import (
	"errors"
	"fmt"
)

var (

	// common errors
	ErrorNotFound = errors.New("not found")
	ErrorInternal = errors.New("internal error")

	// auth-specific errors
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorInvalidToken  = errors.New("invalid token")
	ErrorUserExists    = errors.New("username exists")
	ErrorMissingFields = errors.New("username and password are required")

	// ledger-specific errors
	ErrorInsufficientCredits = errors.New("insufficient credits")

	// generation request errors
	ErrorEmptyRequest = errors.New("no student profiles provided")

	// order-specific errors
	ErrorOrderNotFound = errors.New("order does not exist")

	// generation gateway errors
	ErrorUpstreamUnavailable = errors.New("upstream provider unavailable")
	ErrorMalformedResponse   = errors.New("malformed provider response")
	ErrorSchemaMismatch      = errors.New("provider response schema mismatch")
	ErrorUnknownModel        = errors.New("unknown model selector")

	// payment errors
	ErrorSignatureInvalid = errors.New("notification signature invalid")
)

// InsufficientCreditsError reports how many credits a request needed versus
// how many the user had. It matches ErrorInsufficientCredits via errors.Is.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrorInsufficientCredits
}
