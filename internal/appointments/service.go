package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/events"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/observability/metrics"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

var bookingTracer = otel.Tracer("docpoint.internal.appointments")

type doctorDirectory interface {
	GetByID(ctx context.Context, id string) (*doctors.Doctor, error)
}

type patientDirectory interface {
	GetByID(ctx context.Context, id string) (*patients.Patient, error)
}

// BookRequest carries everything needed to create an appointment.
type BookRequest struct {
	UserID   string `json:"user_id"`
	DocID    string `json:"doc_id"`
	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`
}

// Service owns the appointment lifecycle: booking against the slot ledger,
// cancellation with slot release, completion, and payment marking.
type Service struct {
	repo      Repository
	doctors   doctorDirectory
	patients  patientDirectory
	ledger    slots.Ledger
	publisher *events.Publisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires the booking core. publisher and bookingMetrics may be nil.
func NewService(
	repo Repository,
	doctorRepo doctorDirectory,
	patientRepo patientDirectory,
	ledger slots.Ledger,
	publisher *events.Publisher,
	bookingMetrics *metrics.BookingMetrics,
	logger *logging.Logger,
) *Service {
	if repo == nil {
		panic("appointments: repository cannot be nil")
	}
	if doctorRepo == nil {
		panic("appointments: doctor repository cannot be nil")
	}
	if patientRepo == nil {
		panic("appointments: patient repository cannot be nil")
	}
	if ledger == nil {
		panic("appointments: slot ledger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		doctors:   doctorRepo,
		patients:  patientRepo,
		ledger:    ledger,
		publisher: publisher,
		metrics:   bookingMetrics,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Book reserves the slot and creates the appointment. The reservation happens
// first so two concurrent bookings of the same slot race on a single atomic
// conditional write; if persisting the appointment then fails, the
// reservation is released again.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("docpoint.doc_id", req.DocID),
		attribute.String("docpoint.slot_date", req.SlotDate),
	)

	started := s.now()
	appt, err := s.book(ctx, req)
	s.observeBooking(err, s.now().Sub(started))
	return appt, err
}

func (s *Service) book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.UserID == "" || req.DocID == "" {
		return nil, fmt.Errorf("%w: user and doctor ids are required", ErrInvalidBooking)
	}
	if err := slots.ValidateSlot(req.SlotDate, req.SlotTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBooking, err)
	}

	doctor, err := s.doctors.GetByID(ctx, req.DocID)
	if err != nil {
		return nil, err
	}
	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}
	patient, err := s.patients.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Reserve(ctx, req.DocID, req.SlotDate, req.SlotTime); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:        s.newID(),
		UserID:    req.UserID,
		DocID:     req.DocID,
		SlotDate:  req.SlotDate,
		SlotTime:  req.SlotTime,
		UserData:  snapshotPatient(patient),
		DocData:   snapshotDoctor(doctor),
		Amount:    doctor.Fees,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if relErr := s.ledger.Release(ctx, req.DocID, req.SlotDate, req.SlotTime); relErr != nil {
			s.logger.Error("release slot after failed create",
				"doc_id", req.DocID, "slot_date", req.SlotDate, "slot_time", req.SlotTime, "error", relErr)
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID, "doc_id", appt.DocID, "user_id", appt.UserID,
		"slot_date", appt.SlotDate, "slot_time", appt.SlotTime)
	s.publisher.Publish(ctx, events.TypeAppointmentBooked, events.AppointmentBookedV1{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		DocID:         appt.DocID,
		SlotDate:      appt.SlotDate,
		SlotTime:      appt.SlotTime,
		PatientName:   appt.UserData.Name,
		PatientEmail:  appt.UserData.Email,
		DoctorName:    appt.DocData.Name,
		Speciality:    appt.DocData.Speciality,
		Amount:        appt.Amount,
	})
	return appt, nil
}

// Cancel marks the appointment cancelled and releases its slot so the time
// becomes bookable again. The flag is flipped before the release: once a
// cancel succeeds the slot must not stay held even if the release has to be
// retried.
func (s *Service) Cancel(ctx context.Context, id string, actor identity.Actor) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("docpoint.appointment_id", id))

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.metrics.ObserveCancellation("error", string(actor.Role))
		return nil, err
	}
	if !CanTransition(appt, actor, OpCancel) {
		s.metrics.ObserveCancellation("forbidden", string(actor.Role))
		return nil, ErrForbidden
	}

	appt, err = s.repo.MarkCancelled(ctx, id)
	if err != nil {
		s.metrics.ObserveCancellation("rejected", string(actor.Role))
		return nil, err
	}
	if err := s.ledger.Release(ctx, appt.DocID, appt.SlotDate, appt.SlotTime); err != nil {
		s.logger.Error("release slot after cancel",
			"appointment_id", id, "doc_id", appt.DocID,
			"slot_date", appt.SlotDate, "slot_time", appt.SlotTime, "error", err)
		s.metrics.ObserveCancellation("error", string(actor.Role))
		return nil, fmt.Errorf("appointments: appointment %s cancelled but slot release failed: %w", id, err)
	}

	s.logger.Info("appointment cancelled",
		"appointment_id", id, "actor_role", actor.Role, "actor_id", actor.SubjectID)
	s.metrics.ObserveCancellation("ok", string(actor.Role))
	s.publisher.Publish(ctx, events.TypeAppointmentCancelled, events.AppointmentCancelledV1{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		DocID:         appt.DocID,
		SlotDate:      appt.SlotDate,
		SlotTime:      appt.SlotTime,
		PatientName:   appt.UserData.Name,
		PatientEmail:  appt.UserData.Email,
		DoctorName:    appt.DocData.Name,
		CancelledBy:   string(actor.Role),
	})
	return appt, nil
}

// Complete marks the appointment completed. Only the appointment's own doctor
// may complete it.
func (s *Service) Complete(ctx context.Context, id string, actor identity.Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt, actor, OpComplete) {
		return nil, ErrForbidden
	}
	appt, err = s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment completed", "appointment_id", id, "doc_id", appt.DocID)
	return appt, nil
}

// MarkPaid sets the paid flag. It is called by the payment verifier after a
// signature check, never directly from a client request.
func (s *Service) MarkPaid(ctx context.Context, id string, actor identity.Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt, actor, OpMarkPaid) {
		return nil, ErrForbidden
	}
	appt, err = s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment paid", "appointment_id", id, "amount", appt.Amount)
	return appt, nil
}

// Get fetches one appointment, enforcing that non-admin actors only see
// their own.
func (s *Service) Get(ctx context.Context, id string, actor identity.Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(appt, actor) {
		return nil, ErrForbidden
	}
	return appt, nil
}

// List returns the appointments visible to the actor: patients see their own
// bookings, doctors their schedule, admins everything.
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]*Appointment, error) {
	var filter ListFilter
	switch actor.Role {
	case identity.RolePatient:
		filter.UserID = actor.SubjectID
	case identity.RoleDoctor:
		filter.DocID = actor.SubjectID
	case identity.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

func canView(appt *Appointment, actor identity.Actor) bool {
	switch actor.Role {
	case identity.RoleAdmin, identity.RoleSystem:
		return true
	case identity.RoleDoctor:
		return actor.SubjectID == appt.DocID
	case identity.RolePatient:
		return actor.SubjectID == appt.UserID
	}
	return false
}

func (s *Service) observeBooking(err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, slots.ErrSlotConflict):
		status = "conflict"
	case errors.Is(err, ErrDoctorUnavailable):
		status = "unavailable"
	case errors.Is(err, ErrInvalidBooking), errors.Is(err, slots.ErrBadSlotFormat):
		status = "invalid"
	case errors.Is(err, doctors.ErrDoctorNotFound), errors.Is(err, patients.ErrPatientNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	s.metrics.ObserveBooking(status, elapsed.Seconds())
}
