package patients

import "errors"

var (
	// ErrPatientNotFound is returned when a patient does not exist.
	ErrPatientNotFound = errors.New("patients: patient not found")

	// ErrInvalidPatient is returned when a create request is incomplete.
	ErrInvalidPatient = errors.New("patients: name and a valid email are required")
)
