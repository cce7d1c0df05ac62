package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/events"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

type fixture struct {
	service  *Service
	repo     *InMemoryRepository
	doctors  *doctors.InMemoryRepository
	patients *patients.InMemoryRepository
	ledger   *slots.InMemoryLedger
	queue    *events.InMemoryQueue
	doctorID string
	userID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     NewInMemoryRepository(),
		doctors:  doctors.NewInMemoryRepository(),
		patients: patients.NewInMemoryRepository(),
		ledger:   slots.NewInMemoryLedger(),
		queue:    events.NewInMemoryQueue(),
	}
	logger := logging.New("error")

	doc, err := f.doctors.Create(context.Background(), &doctors.CreateDoctorRequest{
		Name:       "Dr. Richard James",
		Email:      "richard@example.com",
		Speciality: "General physician",
		Degree:     "MBBS",
		Fees:       50,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	f.doctorID = doc.ID

	patient, err := f.patients.Create(context.Background(), &patients.CreatePatientRequest{
		Name:  "Ada Example",
		Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	f.userID = patient.ID

	f.service = NewService(f.repo, f.doctors, f.patients, f.ledger,
		events.NewPublisher(f.queue, logger), nil, logger)
	return f
}

func (f *fixture) bookRequest() BookRequest {
	return BookRequest{
		UserID:   f.userID,
		DocID:    f.doctorID,
		SlotDate: "25_12_2026",
		SlotTime: "10:00 AM",
	}
}

func (f *fixture) mustBook(t *testing.T) *Appointment {
	t.Helper()
	appt, err := f.service.Book(context.Background(), f.bookRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func patientActor(id string) identity.Actor {
	return identity.Actor{Role: identity.RolePatient, SubjectID: id}
}

func doctorActor(id string) identity.Actor {
	return identity.Actor{Role: identity.RoleDoctor, SubjectID: id}
}

func TestBookReservesSlot(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if appt.Amount != 50 {
		t.Fatalf("amount = %d, want doctor fee 50", appt.Amount)
	}
	if appt.DocData.Name != "Dr. Richard James" || appt.UserData.Name != "Ada Example" {
		t.Fatalf("snapshots not captured: %+v %+v", appt.DocData, appt.UserData)
	}

	free, err := f.ledger.IsFree(context.Background(), f.doctorID, "25_12_2026", "10:00 AM")
	if err != nil {
		t.Fatalf("IsFree: %v", err)
	}
	if free {
		t.Fatal("slot still reported free after booking")
	}
	if f.queue.Len() != 1 {
		t.Fatalf("queued events = %d, want 1 booked event", f.queue.Len())
	}
}

func TestBookSlotConflict(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)

	_, err := f.service.Book(context.Background(), f.bookRequest())
	if !errors.Is(err, slots.ErrSlotConflict) {
		t.Fatalf("second booking err = %v, want ErrSlotConflict", err)
	}
}

func TestBookConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Book(context.Background(), f.bookRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, slots.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected booking error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != attempts-1 {
		t.Fatalf("wins = %d conflicts = %d, want exactly one winner", wins, conflicts)
	}
	appts, err := f.repo.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("appointments created = %d, want 1", len(appts))
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)

	req := f.bookRequest()
	req.SlotDate = "2026-12-25"
	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("bad date err = %v, want ErrInvalidBooking", err)
	}

	req = f.bookRequest()
	req.SlotTime = "22:00"
	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("bad time err = %v, want ErrInvalidBooking", err)
	}

	req = f.bookRequest()
	req.DocID = "missing"
	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, doctors.ErrDoctorNotFound) {
		t.Fatalf("missing doctor err = %v, want ErrDoctorNotFound", err)
	}

	req = f.bookRequest()
	req.UserID = "missing"
	if _, err := f.service.Book(context.Background(), req); !errors.Is(err, patients.ErrPatientNotFound) {
		t.Fatalf("missing patient err = %v, want ErrPatientNotFound", err)
	}
}

func TestBookUnavailableDoctor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.doctors.SetAvailability(context.Background(), f.doctorID, false); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	_, err := f.service.Book(context.Background(), f.bookRequest())
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("err = %v, want ErrDoctorUnavailable", err)
	}
	free, _ := f.ledger.IsFree(context.Background(), f.doctorID, "25_12_2026", "10:00 AM")
	if !free {
		t.Fatal("slot reserved despite unavailable doctor")
	}
}

type failingRepo struct {
	Repository
}

func (failingRepo) Create(context.Context, *Appointment) error {
	return fmt.Errorf("appointments: simulated write failure")
}

func TestBookReleasesSlotWhenCreateFails(t *testing.T) {
	f := newFixture(t)
	logger := logging.New("error")
	svc := NewService(failingRepo{Repository: f.repo}, f.doctors, f.patients, f.ledger, nil, nil, logger)

	if _, err := svc.Book(context.Background(), f.bookRequest()); err == nil {
		t.Fatal("expected create failure")
	}

	free, err := f.ledger.IsFree(context.Background(), f.doctorID, "25_12_2026", "10:00 AM")
	if err != nil {
		t.Fatalf("IsFree: %v", err)
	}
	if !free {
		t.Fatal("slot left reserved after failed create")
	}
}

func TestCancelReleasesSlotForRebooking(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	cancelled, err := f.service.Cancel(context.Background(), appt.ID, patientActor(f.userID))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.Cancelled {
		t.Fatal("cancelled flag not set")
	}

	// The same slot must be bookable again.
	rebooked, err := f.service.Book(context.Background(), f.bookRequest())
	if err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
	if rebooked.ID == appt.ID {
		t.Fatal("rebooking reused the cancelled appointment")
	}
}

func TestCancelForbiddenForOtherPatient(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	_, err := f.service.Cancel(context.Background(), appt.ID, patientActor("someone-else"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	got, err := f.repo.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cancelled {
		t.Fatal("appointment cancelled despite forbidden actor")
	}
}

func TestCancelByDoctorAndAdmin(t *testing.T) {
	f := newFixture(t)

	appt := f.mustBook(t)
	if _, err := f.service.Cancel(context.Background(), appt.ID, doctorActor(f.doctorID)); err != nil {
		t.Fatalf("doctor cancel: %v", err)
	}

	appt = f.mustBook(t)
	admin := identity.Actor{Role: identity.RoleAdmin, SubjectID: "admin-1"}
	if _, err := f.service.Cancel(context.Background(), appt.ID, admin); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestCancelAfterCompleteRejected(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if _, err := f.service.Complete(context.Background(), appt.ID, doctorActor(f.doctorID)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := f.service.Cancel(context.Background(), appt.ID, patientActor(f.userID))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel after complete err = %v, want ErrInvalidState", err)
	}
}

func TestCompleteAfterCancelRejected(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if _, err := f.service.Cancel(context.Background(), appt.ID, patientActor(f.userID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.service.Complete(context.Background(), appt.ID, doctorActor(f.doctorID))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("complete after cancel err = %v, want ErrInvalidState", err)
	}
}

func TestCompleteForbiddenForOtherDoctor(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	_, err := f.service.Complete(context.Background(), appt.ID, doctorActor("another-doctor"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestMarkPaidLifecycle(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	paid, err := f.service.MarkPaid(context.Background(), appt.ID, identity.System())
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !paid.Paid {
		t.Fatal("paid flag not set")
	}

	// Double payment is rejected.
	if _, err := f.service.MarkPaid(context.Background(), appt.ID, identity.System()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second mark paid err = %v, want ErrInvalidState", err)
	}
}

func TestMarkPaidAfterCompletionAllowed(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if _, err := f.service.Complete(context.Background(), appt.ID, doctorActor(f.doctorID)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	paid, err := f.service.MarkPaid(context.Background(), appt.ID, identity.System())
	if err != nil {
		t.Fatalf("mark paid on completed appointment: %v", err)
	}
	if !paid.Paid || !paid.IsCompleted {
		t.Fatalf("flags = paid:%v completed:%v, want both", paid.Paid, paid.IsCompleted)
	}
}

func TestMarkPaidOnCancelledRejected(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if _, err := f.service.Cancel(context.Background(), appt.ID, patientActor(f.userID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.service.MarkPaid(context.Background(), appt.ID, identity.System()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("mark paid on cancelled err = %v, want ErrInvalidState", err)
	}
}

func TestSnapshotsSurviveProfileEdits(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	newFees := int64(80)
	if _, err := f.doctors.UpdateProfile(context.Background(), f.doctorID, &doctors.UpdateProfileRequest{Fees: &newFees}); err != nil {
		t.Fatalf("update doctor: %v", err)
	}

	got, err := f.repo.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DocData.Fees != 50 {
		t.Fatalf("snapshot fees = %d, want the booking-time fee", got.DocData.Fees)
	}
	if got.Amount != 50 {
		t.Fatalf("amount = %d, want the booking-time fee", got.Amount)
	}
}

func TestListScopedByActor(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)

	other, err := f.patients.Create(context.Background(), &patients.CreatePatientRequest{
		Name:  "Ben Example",
		Email: "ben@example.com",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	req := f.bookRequest()
	req.UserID = other.ID
	req.SlotTime = "11:00 AM"
	if _, err := f.service.Book(context.Background(), req); err != nil {
		t.Fatalf("book second: %v", err)
	}

	mine, err := f.service.List(context.Background(), patientActor(f.userID))
	if err != nil {
		t.Fatalf("list as patient: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != f.userID {
		t.Fatalf("patient sees %d appointments, want only their own", len(mine))
	}

	schedule, err := f.service.List(context.Background(), doctorActor(f.doctorID))
	if err != nil {
		t.Fatalf("list as doctor: %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("doctor sees %d appointments, want 2", len(schedule))
	}

	all, err := f.service.List(context.Background(), identity.Actor{Role: identity.RoleAdmin, SubjectID: "admin-1"})
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin sees %d appointments, want 2", len(all))
	}
}

func TestDoctorDashboard(t *testing.T) {
	f := newFixture(t)

	first := f.mustBook(t)
	if _, err := f.service.MarkPaid(context.Background(), first.ID, identity.System()); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	req := f.bookRequest()
	req.SlotTime = "11:00 AM"
	second, err := f.service.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("book second: %v", err)
	}
	if _, err := f.service.Cancel(context.Background(), second.ID, patientActor(f.userID)); err != nil {
		t.Fatalf("cancel second: %v", err)
	}

	dash, err := f.service.DashboardForDoctor(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Earnings != 50 {
		t.Fatalf("earnings = %d, want 50 (cancelled booking earns nothing)", dash.Earnings)
	}
	if dash.Appointments != 2 || dash.Patients != 1 {
		t.Fatalf("appointments = %d patients = %d, want 2 and 1", dash.Appointments, dash.Patients)
	}
}
