package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/remarkly/backend/internal/shared"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors to HTTP statuses. Insufficient-credit
// rejections carry the required/available pair so the client can show a
// meaningful top-up hint.
func writeError(w http.ResponseWriter, err error) {

	var insufficient *shared.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"message":   insufficient.Error(),
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
		return
	}

	writeJSON(w, statusFor(err), map[string]string{"message": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrorMissingFields),
		errors.Is(err, shared.ErrorEmptyRequest),
		errors.Is(err, shared.ErrorUserExists),
		errors.Is(err, shared.ErrorUnknownModel),
		errors.Is(err, shared.ErrorSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrorUnauthorized),
		errors.Is(err, shared.ErrorInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrorInsufficientCredits):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrorNotFound),
		errors.Is(err, shared.ErrorOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
