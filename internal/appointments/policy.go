package appointments

import "github.com/docpoint/platform/internal/identity"

// Operation names a lifecycle transition for authorization purposes.
type Operation string

const (
	OpCancel   Operation = "cancel"
	OpComplete Operation = "complete"
	OpMarkPaid Operation = "mark_paid"
)

// CanTransition decides whether actor may apply op to appt. It only answers
// the ownership question; state checks (already cancelled, already paid) are
// enforced by the repository's conditional writes.
//
// Cancel: the booking patient, the appointment's doctor, or an admin.
// Complete: the appointment's doctor only.
// MarkPaid: admins, or the system itself after payment verification.
func CanTransition(appt *Appointment, actor identity.Actor, op Operation) bool {
	switch op {
	case OpCancel:
		switch actor.Role {
		case identity.RoleAdmin:
			return true
		case identity.RoleDoctor:
			return actor.SubjectID == appt.DocID
		case identity.RolePatient:
			return actor.SubjectID == appt.UserID
		}
	case OpComplete:
		return actor.Role == identity.RoleDoctor && actor.SubjectID == appt.DocID
	case OpMarkPaid:
		return actor.Role == identity.RoleAdmin || actor.Role == identity.RoleSystem
	}
	return false
}
