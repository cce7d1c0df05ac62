package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	doctors doctors.Repository
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler. The doctor repository is
// only used for the admin dashboard's doctor count.
func NewHandler(service *Service, doctorRepo doctors.Repository, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		doctors: doctorRepo,
		logger:  logger,
	}
}

// Book handles POST /appointments. Patients book for themselves; the user id
// always comes from the token, never the body.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RolePatient {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = actor.SubjectID

	appt, err := h.service.Book(r.Context(), req)
	if err != nil {
		h.writeBookError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *Handler) writeBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidBooking), errors.Is(err, slots.ErrBadSlotFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, doctors.ErrDoctorNotFound), errors.Is(err, patients.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDoctorUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, slots.ErrSlotConflict):
		http.Error(w, "slot already booked", http.StatusConflict)
	default:
		h.logger.Error("failed to book appointment", "error", err)
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
	}
}

// List handles GET /appointments, scoped to the caller's role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	appts, err := h.service.List(r.Context(), actor)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Get(r.Context(), chi.URLParam(r, "appointmentID"), actor)
	if err != nil {
		h.writeLifecycleError(w, err, "fetch")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles POST /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Cancel(r.Context(), chi.URLParam(r, "appointmentID"), actor)
	if err != nil {
		h.writeLifecycleError(w, err, "cancel")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Complete(r.Context(), chi.URLParam(r, "appointmentID"), actor)
	if err != nil {
		h.writeLifecycleError(w, err, "complete")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// DoctorDashboard handles GET /doctors/me/dashboard.
func (h *Handler) DoctorDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDoctor {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	dash, err := h.service.DashboardForDoctor(r.Context(), actor.SubjectID)
	if err != nil {
		h.logger.Error("failed to build doctor dashboard", "error", err, "doc_id", actor.SubjectID)
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// AdminDashboard handles GET /admin/dashboard.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || !actor.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	doctorCount := 0
	if h.doctors != nil {
		roster, err := h.doctors.List(r.Context())
		if err != nil {
			h.logger.Error("failed to count doctors for dashboard", "error", err)
			http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
			return
		}
		doctorCount = len(roster)
	}

	dash, err := h.service.DashboardForAdmin(r.Context(), doctorCount)
	if err != nil {
		h.logger.Error("failed to build admin dashboard", "error", err)
		http.Error(w, "failed to build dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("failed to "+action+" appointment", "error", err)
		http.Error(w, "failed to "+action+" appointment", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
