package appointments

import (
	"time"

	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/patients"
)

// Appointment is a booked consultation. The (DocID, SlotDate, SlotTime)
// triple is unique among non-cancelled appointments; the slot ledger and the
// appointment record are two views of the same reservation.
type Appointment struct {
	ID       string `json:"id" dynamodbav:"id"`
	UserID   string `json:"user_id" dynamodbav:"userId"`
	DocID    string `json:"doc_id" dynamodbav:"docId"`
	SlotDate string `json:"slot_date" dynamodbav:"slotDate"`
	SlotTime string `json:"slot_time" dynamodbav:"slotTime"`

	// Profile snapshots captured at booking time. Deliberately not synced
	// with later profile edits so historical appointments render as booked.
	UserData PatientSnapshot `json:"user_data" dynamodbav:"userData"`
	DocData  DoctorSnapshot  `json:"doc_data" dynamodbav:"docData"`

	Amount      int64     `json:"amount" dynamodbav:"amount"`
	Cancelled   bool      `json:"cancelled" dynamodbav:"cancelled"`
	IsCompleted bool      `json:"is_completed" dynamodbav:"isCompleted"`
	Paid        bool      `json:"paid" dynamodbav:"paid"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"createdAt"`
}

// Terminal reports whether a lifecycle flag has been set. Payment status may
// still change on a completed appointment; nothing else may.
func (a *Appointment) Terminal() bool {
	return a.Cancelled || a.IsCompleted
}

// PatientSnapshot is the patient profile as it was at booking time.
type PatientSnapshot struct {
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	Phone     string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Image     string `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Gender    string `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	BirthDate string `json:"dob,omitempty" dynamodbav:"dob,omitempty"`
}

// DoctorSnapshot is the doctor profile as it was at booking time.
type DoctorSnapshot struct {
	Name       string `json:"name" dynamodbav:"name"`
	Speciality string `json:"speciality" dynamodbav:"speciality"`
	Degree     string `json:"degree" dynamodbav:"degree"`
	Image      string `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Fees       int64  `json:"fees" dynamodbav:"fees"`
	AddrLine1  string `json:"address_line1,omitempty" dynamodbav:"addrLine1,omitempty"`
	AddrLine2  string `json:"address_line2,omitempty" dynamodbav:"addrLine2,omitempty"`
}

func snapshotPatient(p *patients.Patient) PatientSnapshot {
	return PatientSnapshot{
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Image:     p.Image,
		Gender:    p.Gender,
		BirthDate: p.BirthDate,
	}
}

func snapshotDoctor(d *doctors.Doctor) DoctorSnapshot {
	return DoctorSnapshot{
		Name:       d.Name,
		Speciality: d.Speciality,
		Degree:     d.Degree,
		Image:      d.Image,
		Fees:       d.Fees,
		AddrLine1:  d.Address.Line1,
		AddrLine2:  d.Address.Line2,
	}
}

// ListFilter narrows appointment listings. Zero values mean no constraint.
type ListFilter struct {
	UserID string
	DocID  string
}
