package doctors

import "errors"

var (
	// ErrDoctorNotFound is returned when a doctor does not exist.
	ErrDoctorNotFound = errors.New("doctors: doctor not found")

	// ErrInvalidDoctor is returned when a create request is incomplete.
	ErrInvalidDoctor = errors.New("doctors: name, email, speciality and a positive fee are required")

	// ErrDuplicateEmail is returned when registering an email twice.
	ErrDuplicateEmail = errors.New("doctors: email already registered")
)
