package patients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/pkg/logging"
)

// Handler handles HTTP requests for patient profiles.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register handles POST /patients. It only creates the profile record;
// credential issuance happens at the identity provider.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidPatient) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to register patient", "error", err)
		http.Error(w, "failed to register patient", http.StatusInternalServerError)
		return
	}

	h.logger.Info("patient registered", "patient_id", patient.ID)
	writeJSON(w, http.StatusCreated, patient)
}

// GetProfile handles GET /patients/me.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RolePatient {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	patient, err := h.repo.GetByID(r.Context(), actor.SubjectID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch patient", "error", err, "patient_id", actor.SubjectID)
		http.Error(w, "failed to fetch profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// UpdateProfile handles PUT /patients/me.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RolePatient {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.UpdateProfile(r.Context(), actor.SubjectID, &req)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update patient", "error", err, "patient_id", actor.SubjectID)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
