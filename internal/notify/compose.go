package notify

import (
	"fmt"

	"github.com/docpoint/platform/internal/events"
)

// BookingConfirmation renders the email for a freshly booked appointment.
func BookingConfirmation(evt events.AppointmentBookedV1) EmailMessage {
	return EmailMessage{
		To:      evt.PatientEmail,
		ToName:  evt.PatientName,
		Subject: fmt.Sprintf("Appointment confirmed with %s", evt.DoctorName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with %s (%s) is confirmed for %s at %s.\nConsultation fee: %d.\n\nYou can manage this appointment from your DocPoint account.",
			evt.PatientName, evt.DoctorName, evt.Speciality, evt.SlotDate, evt.SlotTime, evt.Amount),
	}
}

// CancellationNotice renders the email for a cancelled appointment.
func CancellationNotice(evt events.AppointmentCancelledV1) EmailMessage {
	return EmailMessage{
		To:      evt.PatientEmail,
		ToName:  evt.PatientName,
		Subject: fmt.Sprintf("Appointment with %s cancelled", evt.DoctorName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment with %s on %s at %s has been cancelled.\nIf it was paid, the amount will be refunded to your original payment method.",
			evt.PatientName, evt.DoctorName, evt.SlotDate, evt.SlotTime),
	}
}
