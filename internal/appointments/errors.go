package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when no appointment with the
	// given id exists.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrForbidden is returned when the acting identity is not allowed to
	// perform the requested lifecycle operation on this appointment.
	ErrForbidden = errors.New("appointments: operation not permitted for this actor")

	// ErrInvalidState is returned when a lifecycle transition is attempted
	// on an appointment whose flags already rule it out, e.g. cancelling a
	// completed appointment.
	ErrInvalidState = errors.New("appointments: appointment state does not permit this operation")

	// ErrDoctorUnavailable is returned when booking against a doctor whose
	// availability flag is off.
	ErrDoctorUnavailable = errors.New("appointments: doctor is not accepting bookings")

	// ErrInvalidBooking is returned when a booking request fails field
	// validation before any state is touched.
	ErrInvalidBooking = errors.New("appointments: invalid booking request")
)
