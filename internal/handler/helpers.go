package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/checkout-service/internal/settlement"
)

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, settlement.ErrNoOrderIDs):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, settlement.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, settlement.ErrVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrAlreadySettled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func clientMessageFor(err error) string {
	switch {
	case errors.Is(err, settlement.ErrNoOrderIDs):
		return "No order IDs provided"
	case errors.Is(err, settlement.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, settlement.ErrNotOrderOwner):
		return "Unauthorized"
	case errors.Is(err, settlement.ErrVerificationFailed):
		return "Payment verification failed"
	case errors.Is(err, settlement.ErrAlreadySettled):
		return "Order already settled"
	default:
		return "Failed to verify payment"
	}
}
