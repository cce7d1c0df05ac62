package appointments

import (
	"context"
	"sort"
)

// DoctorDashboard summarises a doctor's booking activity.
type DoctorDashboard struct {
	Earnings           int64          `json:"earnings"`
	Appointments       int            `json:"appointments"`
	Patients           int            `json:"patients"`
	LatestAppointments []*Appointment `json:"latest_appointments"`
}

// AdminDashboard summarises platform-wide booking activity.
type AdminDashboard struct {
	Appointments       int            `json:"appointments"`
	Patients           int            `json:"patients"`
	Doctors            int            `json:"doctors"`
	LatestAppointments []*Appointment `json:"latest_appointments"`
}

const dashboardLatestLimit = 5

// DashboardForDoctor aggregates the doctor's appointments. Earnings count an
// appointment once it is paid or completed; cancelled appointments earn
// nothing.
func (s *Service) DashboardForDoctor(ctx context.Context, docID string) (*DoctorDashboard, error) {
	appts, err := s.repo.List(ctx, ListFilter{DocID: docID})
	if err != nil {
		return nil, err
	}

	dash := &DoctorDashboard{Appointments: len(appts)}
	seen := make(map[string]struct{})
	for _, appt := range appts {
		if !appt.Cancelled && (appt.Paid || appt.IsCompleted) {
			dash.Earnings += appt.Amount
		}
		seen[appt.UserID] = struct{}{}
	}
	dash.Patients = len(seen)
	dash.LatestAppointments = latest(appts, dashboardLatestLimit)
	return dash, nil
}

// DashboardForAdmin aggregates across all appointments. doctorCount comes
// from the directory since doctors without bookings still count.
func (s *Service) DashboardForAdmin(ctx context.Context, doctorCount int) (*AdminDashboard, error) {
	appts, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	dash := &AdminDashboard{
		Appointments: len(appts),
		Doctors:      doctorCount,
	}
	seen := make(map[string]struct{})
	for _, appt := range appts {
		seen[appt.UserID] = struct{}{}
	}
	dash.Patients = len(seen)
	dash.LatestAppointments = latest(appts, dashboardLatestLimit)
	return dash, nil
}

func latest(appts []*Appointment, limit int) []*Appointment {
	sorted := make([]*Appointment, len(appts))
	copy(sorted, appts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
