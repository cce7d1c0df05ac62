package doctors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

// Handler handles HTTP requests for doctors.
type Handler struct {
	repo   Repository
	ledger slots.Ledger
	logger *logging.Logger
}

// NewHandler creates a new doctors handler.
func NewHandler(repo Repository, ledger slots.Ledger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		ledger: ledger,
		logger: logger,
	}
}

// List handles GET /doctors: the public browsable roster.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// Get handles GET /doctors/{doctorID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	doctor, err := h.repo.GetByID(r.Context(), doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch doctor", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to fetch doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// BookedSlots handles GET /doctors/{doctorID}/slots: the booked ledger the
// booking UI uses to gray out taken times.
func (h *Handler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if _, err := h.repo.GetByID(r.Context(), doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch doctor", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to fetch doctor", http.StatusInternalServerError)
		return
	}

	ledger, err := h.ledger.BookedByDate(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to load slot ledger", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to load slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots_booked": ledger})
}

// Create handles POST /admin/doctors.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doctor, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDoctor):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateEmail):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("failed to create doctor", "error", err)
			http.Error(w, "failed to create doctor", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("doctor registered", "doctor_id", doctor.ID, "speciality", doctor.Speciality)
	writeJSON(w, http.StatusCreated, doctor)
}

// SetAvailability handles POST /doctors/{doctorID}/availability. Admins may
// toggle any doctor; a doctor only their own profile.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}
	if !actor.IsAdmin() && !(actor.Role == identity.RoleDoctor && actor.SubjectID == doctorID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doctor, err := h.repo.SetAvailability(r.Context(), doctorID, req.Available)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to set availability", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to set availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor availability changed", "doctor_id", doctorID, "available", doctor.Available)
	writeJSON(w, http.StatusOK, map[string]any{"available": doctor.Available})
}

// UpdateProfile handles PUT /doctors/me for the authenticated doctor.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDoctor {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doctor, err := h.repo.UpdateProfile(r.Context(), actor.SubjectID, &req)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidDoctor) {
			http.Error(w, "fees must be positive", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to update profile", "error", err, "doctor_id", actor.SubjectID)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
