package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docpoint/platform/internal/appointments"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/pkg/logging"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("payments: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateOrder handles POST /appointments/{appointmentID}/pay.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RolePatient {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), chi.URLParam(r, "appointmentID"), actor)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, appointments.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, ErrInvalidPaymentRequest):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to create payment order", "error", err)
			http.Error(w, "failed to create payment order", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Verify handles POST /payments/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Verify(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			http.Error(w, "signature mismatch", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidPaymentRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, appointments.ErrAppointmentNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, appointments.ErrInvalidState):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to verify payment", "error", err)
			http.Error(w, "failed to verify payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paid": appt.Paid, "appointment_id": appt.ID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
