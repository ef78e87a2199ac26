package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/caterline/caterline/internal/auth"
	"github.com/caterline/caterline/internal/repository"
	"github.com/caterline/caterline/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP responses. Unknown errors
// are logged and surfaced as a generic failure so internals never leak to
// the caller.
func handleServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "access token is missing or not provided")
	case errors.Is(err, auth.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "token_expired", "token has expired")
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty or not found")
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrLineNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrAddressNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrDuplicatePayment):
		respondError(w, http.StatusConflict, "duplicate_payment", err.Error())
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, repository.ErrOrderReconciled):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
