package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/docpoint/platform/internal/appointments"
	"github.com/docpoint/platform/internal/doctors"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/slots"
	"github.com/docpoint/platform/pkg/logging"
)

const testKeySecret = "test-key-secret"

type fakeGateway struct {
	orders       map[string]*Order
	createParams []CreateOrderParams
	nextID       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: make(map[string]*Order)}
}

func (g *fakeGateway) CreateOrder(_ context.Context, params CreateOrderParams) (*Order, error) {
	g.createParams = append(g.createParams, params)
	g.nextID++
	order := &Order{
		ID:       fmt.Sprintf("order_%d", g.nextID),
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Status:   "created",
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *fakeGateway) GetOrder(_ context.Context, orderID string) (*Order, error) {
	order, ok := g.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

type paymentFixture struct {
	service  *Service
	gateway  *fakeGateway
	bookings *appointments.Service
	userID   string
	appt     *appointments.Appointment
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	logger := logging.New("error")

	doctorRepo := doctors.NewInMemoryRepository()
	patientRepo := patients.NewInMemoryRepository()
	doc, err := doctorRepo.Create(context.Background(), &doctors.CreateDoctorRequest{
		Name:       "Dr. Emily Larson",
		Email:      "emily@example.com",
		Speciality: "Gynecologist",
		Degree:     "MBBS",
		Fees:       60,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	patient, err := patientRepo.Create(context.Background(), &patients.CreatePatientRequest{
		Name:  "Ada Example",
		Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	bookings := appointments.NewService(
		appointments.NewInMemoryRepository(), doctorRepo, patientRepo,
		slots.NewInMemoryLedger(), nil, nil, logger)
	appt, err := bookings.Book(context.Background(), appointments.BookRequest{
		UserID:   patient.ID,
		DocID:    doc.ID,
		SlotDate: "25_12_2026",
		SlotTime: "10:00 AM",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	gateway := newFakeGateway()
	return &paymentFixture{
		service:  NewService(gateway, bookings, testKeySecret, "INR", nil, logger),
		gateway:  gateway,
		bookings: bookings,
		userID:   patient.ID,
		appt:     appt,
	}
}

func signPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	f := newPaymentFixture(t)

	order, err := f.service.CreateOrder(context.Background(),
		f.appt.ID, identity.Actor{Role: identity.RolePatient, SubjectID: f.userID})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if order.Amount != 6000 {
		t.Fatalf("amount = %d, want fee in subunits 6000", order.Amount)
	}
	if order.Receipt != f.appt.ID {
		t.Fatalf("receipt = %q, want appointment id", order.Receipt)
	}
	if order.Currency != "INR" {
		t.Fatalf("currency = %q, want INR", order.Currency)
	}
}

func TestCreateOrderForbiddenForOtherPatient(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.CreateOrder(context.Background(),
		f.appt.ID, identity.Actor{Role: identity.RolePatient, SubjectID: "someone-else"})
	if !errors.Is(err, appointments.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCreateOrderRejectedForCancelled(t *testing.T) {
	f := newPaymentFixture(t)
	actor := identity.Actor{Role: identity.RolePatient, SubjectID: f.userID}
	if _, err := f.bookings.Cancel(context.Background(), f.appt.ID, actor); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.service.CreateOrder(context.Background(), f.appt.ID, actor)
	if !errors.Is(err, ErrInvalidPaymentRequest) {
		t.Fatalf("err = %v, want ErrInvalidPaymentRequest", err)
	}
}

// fixedBookings hands back a canned appointment regardless of id.
type fixedBookings struct {
	appt *appointments.Appointment
}

func (b *fixedBookings) Get(context.Context, string, identity.Actor) (*appointments.Appointment, error) {
	return b.appt, nil
}

func (b *fixedBookings) MarkPaid(context.Context, string, identity.Actor) (*appointments.Appointment, error) {
	return b.appt, nil
}

func TestCreateOrderRejectedForNonPositiveAmount(t *testing.T) {
	gateway := newFakeGateway()
	svc := NewService(gateway, &fixedBookings{appt: &appointments.Appointment{ID: "apt_1", Amount: 0}},
		testKeySecret, "INR", nil, logging.New("error"))

	_, err := svc.CreateOrder(context.Background(), "apt_1",
		identity.Actor{Role: identity.RolePatient, SubjectID: "user_1"})
	if !errors.Is(err, ErrInvalidPaymentRequest) {
		t.Fatalf("err = %v, want ErrInvalidPaymentRequest", err)
	}
	if len(gateway.createParams) != 0 {
		t.Fatalf("gateway saw %d create calls, want none", len(gateway.createParams))
	}
}

func TestVerifyMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	actor := identity.Actor{Role: identity.RolePatient, SubjectID: f.userID}
	order, err := f.service.CreateOrder(context.Background(), f.appt.ID, actor)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	appt, err := f.service.Verify(context.Background(), VerifyRequest{
		OrderID:   order.ID,
		PaymentID: "pay_123",
		Signature: signPayment(order.ID, "pay_123"),
	})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !appt.Paid {
		t.Fatal("appointment not marked paid")
	}
}

func TestVerifyTamperedSignatureLeavesUnpaid(t *testing.T) {
	f := newPaymentFixture(t)
	actor := identity.Actor{Role: identity.RolePatient, SubjectID: f.userID}
	order, err := f.service.CreateOrder(context.Background(), f.appt.ID, actor)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = f.service.Verify(context.Background(), VerifyRequest{
		OrderID:   order.ID,
		PaymentID: "pay_123",
		Signature: signPayment(order.ID, "pay_different"),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	got, err := f.bookings.Get(context.Background(), f.appt.ID, actor)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if got.Paid {
		t.Fatal("tampered callback marked the appointment paid")
	}
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.Verify(context.Background(), VerifyRequest{
		OrderID:   "order_missing",
		PaymentID: "pay_123",
		Signature: signPayment("order_missing", "pay_123"),
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestVerifyDoublePaymentRejected(t *testing.T) {
	f := newPaymentFixture(t)
	actor := identity.Actor{Role: identity.RolePatient, SubjectID: f.userID}
	order, err := f.service.CreateOrder(context.Background(), f.appt.ID, actor)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	callback := VerifyRequest{
		OrderID:   order.ID,
		PaymentID: "pay_123",
		Signature: signPayment(order.ID, "pay_123"),
	}
	if _, err := f.service.Verify(context.Background(), callback); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := f.service.Verify(context.Background(), callback); !errors.Is(err, appointments.ErrInvalidState) {
		t.Fatalf("replayed verify err = %v, want ErrInvalidState", err)
	}
}
