// Package events defines the versioned messages the booking core emits and
// the queue they travel on. Consumers such as the notify worker read them off
// SQS; publishing failures never fail the booking that triggered them.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeAppointmentBooked    = "appointment.booked.v1"
	TypeAppointmentCancelled = "appointment.cancelled.v1"
)

// Envelope wraps every queued event with its type and emission time.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// AppointmentBookedV1 is emitted after an appointment is durably created.
type AppointmentBookedV1 struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	DocID         string `json:"doc_id"`
	SlotDate      string `json:"slot_date"`
	SlotTime      string `json:"slot_time"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	DoctorName    string `json:"doctor_name"`
	Speciality    string `json:"speciality"`
	Amount        int64  `json:"amount"`
}

// AppointmentCancelledV1 is emitted after a cancellation takes effect and the
// slot has been released.
type AppointmentCancelledV1 struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	DocID         string `json:"doc_id"`
	SlotDate      string `json:"slot_date"`
	SlotTime      string `json:"slot_time"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	DoctorName    string `json:"doctor_name"`
	CancelledBy   string `json:"cancelled_by"`
}

// Encode marshals a payload into its transport envelope.
func Encode(eventType string, occurredAt time.Time, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("events: marshal %s payload: %w", eventType, err)
	}
	body, err := json.Marshal(Envelope{
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Payload:    raw,
	})
	if err != nil {
		return "", fmt.Errorf("events: marshal %s envelope: %w", eventType, err)
	}
	return string(body), nil
}

// Decode parses a transport body back into its envelope.
func Decode(body string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("events: decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("events: envelope missing type")
	}
	return &env, nil
}
