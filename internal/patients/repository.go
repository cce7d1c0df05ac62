package patients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage.
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Patient, error)
}

// InMemoryRepository stores patients in memory for tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{patients: make(map[string]*Patient)}
}

// Create registers a patient profile.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient := &Patient{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.patients[patient.ID] = patient
	r.mu.Unlock()

	return clonePatient(patient), nil
}

// GetByID retrieves a patient by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return clonePatient(patient), nil
}

// UpdateProfile applies the editable profile fields.
func (r *InMemoryRepository) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.BirthDate != nil {
		patient.BirthDate = *req.BirthDate
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	return clonePatient(patient), nil
}

func clonePatient(p *Patient) *Patient {
	copied := *p
	return &copied
}
