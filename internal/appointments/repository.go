package appointments

import (
	"context"
	"sort"
	"sync"
)

// Repository persists appointments. The Mark* methods are conditional state
// transitions: they atomically check the lifecycle flags and set the new one,
// returning ErrInvalidState when the check fails. Implementations must make
// the check-and-set atomic so that concurrent cancel/complete calls cannot
// both succeed.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)

	// MarkCancelled sets cancelled=true. Fails with ErrInvalidState when
	// the appointment is already cancelled or completed.
	MarkCancelled(ctx context.Context, id string) (*Appointment, error)

	// MarkCompleted sets isCompleted=true. Fails with ErrInvalidState when
	// the appointment is already cancelled or completed.
	MarkCompleted(ctx context.Context, id string) (*Appointment, error)

	// MarkPaid sets paid=true. Fails with ErrInvalidState when the
	// appointment is cancelled or already paid. Completed appointments may
	// still be marked paid.
	MarkPaid(ctx context.Context, id string) (*Appointment, error)
}

// InMemoryRepository is a mutex-guarded Repository for tests and local runs.
type InMemoryRepository struct {
	mu    sync.Mutex
	items map[string]*Appointment
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Appointment)}
}

func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.items[appt.ID] = &cp
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *InMemoryRepository) List(_ context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, appt := range r.items {
		if filter.UserID != "" && appt.UserID != filter.UserID {
			continue
		}
		if filter.DocID != "" && appt.DocID != filter.DocID {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) MarkCancelled(_ context.Context, id string) (*Appointment, error) {
	return r.transition(id, func(a *Appointment) bool {
		if a.Terminal() {
			return false
		}
		a.Cancelled = true
		return true
	})
}

func (r *InMemoryRepository) MarkCompleted(_ context.Context, id string) (*Appointment, error) {
	return r.transition(id, func(a *Appointment) bool {
		if a.Terminal() {
			return false
		}
		a.IsCompleted = true
		return true
	})
}

func (r *InMemoryRepository) MarkPaid(_ context.Context, id string) (*Appointment, error) {
	return r.transition(id, func(a *Appointment) bool {
		if a.Cancelled || a.Paid {
			return false
		}
		a.Paid = true
		return true
	})
}

func (r *InMemoryRepository) transition(id string, apply func(*Appointment) bool) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if !apply(appt) {
		return nil, ErrInvalidState
	}
	cp := *appt
	return &cp, nil
}
