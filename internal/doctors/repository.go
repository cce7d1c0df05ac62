package doctors

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for doctor storage.
type Repository interface {
	Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error)
	UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Doctor, error)
}

// InMemoryRepository stores doctors in memory for tests and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
	byEmail map[string]string
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		doctors: make(map[string]*Doctor),
		byEmail: make(map[string]string),
	}
}

// Create registers a doctor, available by default.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[req.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	doctor := &Doctor{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Image:      req.Image,
		Speciality: req.Speciality,
		Degree:     req.Degree,
		Experience: req.Experience,
		About:      req.About,
		Fees:       req.Fees,
		Address:    req.Address,
		Available:  true,
		CreatedAt:  time.Now().UTC(),
	}
	r.doctors[doctor.ID] = doctor
	r.byEmail[doctor.Email] = doctor.ID
	return cloneDoctor(doctor), nil
}

// GetByID retrieves a doctor by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doctor, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return cloneDoctor(doctor), nil
}

// List returns all doctors.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.doctors))
	for _, doctor := range r.doctors {
		out = append(out, cloneDoctor(doctor))
	}
	return out, nil
}

// SetAvailability flips the bookable flag.
func (r *InMemoryRepository) SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doctor, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	doctor.Available = available
	return cloneDoctor(doctor), nil
}

// UpdateProfile applies the editable profile fields.
func (r *InMemoryRepository) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doctor, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if req.About != nil {
		doctor.About = *req.About
	}
	if req.Fees != nil {
		doctor.Fees = *req.Fees
	}
	if req.Address != nil {
		doctor.Address = *req.Address
	}
	if req.Available != nil {
		doctor.Available = *req.Available
	}
	return cloneDoctor(doctor), nil
}

func cloneDoctor(d *Doctor) *Doctor {
	copied := *d
	return &copied
}
