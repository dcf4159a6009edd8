package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/checkout-service/internal/auth"
	"github.com/vasiliy-maslov/checkout-service/internal/settlement"
)

type VerifyPaymentResponse struct {
	Success       bool     `json:"success"`
	OrderIDs      []string `json:"order_ids"`
	PaymentStatus string   `json:"payment_status"`
}

// CheckoutHandler handles HTTP requests for the checkout payment flow.
type CheckoutHandler struct {
	svc      settlement.Service
	validate *validator.Validate
}

func NewCheckoutHandler(svc settlement.Service) *CheckoutHandler {
	validate := validator.New()
	// Report fields by their JSON names so validation messages match the
	// wire format.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CheckoutHandler{
		svc:      svc,
		validate: validate,
	}
}

func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout/verify-payment", h.handleVerifyPayment)
}

func (h *CheckoutHandler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req settlement.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode verify-payment request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
			return
		}
		respondWithError(w, http.StatusBadRequest, formatValidationErrors(validationErrors))
		return
	}

	result, err := h.svc.VerifyAndSettle(r.Context(), userID, &req)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessageFor(err))
		return
	}

	respondWithJSON(w, http.StatusOK, VerifyPaymentResponse{
		Success:       true,
		OrderIDs:      result.OrderIDs,
		PaymentStatus: result.PaymentStatus.String(),
	})
}

// formatValidationErrors turns validator output into one human-readable
// message naming the first offending field.
func formatValidationErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation failed"
	}

	fe := errs[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
