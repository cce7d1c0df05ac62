package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/docpoint/platform/internal/appointments"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/observability/metrics"
	"github.com/docpoint/platform/pkg/logging"
)

type bookingCore interface {
	Get(ctx context.Context, id string, actor identity.Actor) (*appointments.Appointment, error)
	MarkPaid(ctx context.Context, id string, actor identity.Actor) (*appointments.Appointment, error)
}

// VerifyRequest is the callback payload the gateway-driven client posts back
// after a checkout.
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Service opens payment orders and verifies gateway callbacks. The paid flag
// is only ever set after a signature verified against the key secret; nothing
// client-supplied is trusted on its own.
type Service struct {
	gateway   Gateway
	bookings  bookingCore
	keySecret string
	currency  string
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

func NewService(gateway Gateway, bookings bookingCore, keySecret, currency string, bookingMetrics *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if gateway == nil {
		panic("payments: gateway cannot be nil")
	}
	if bookings == nil {
		panic("payments: booking core cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		gateway:   gateway,
		bookings:  bookings,
		keySecret: keySecret,
		currency:  currency,
		metrics:   bookingMetrics,
		logger:    logger,
	}
}

// CreateOrder opens a gateway order for the appointment. Only the booking
// patient can pay, and only while the appointment is neither cancelled nor
// already paid. The order receipt carries the appointment id.
func (s *Service) CreateOrder(ctx context.Context, appointmentID string, actor identity.Actor) (*Order, error) {
	appt, err := s.bookings.Get(ctx, appointmentID, actor)
	if err != nil {
		return nil, err
	}
	if appt.Cancelled {
		return nil, fmt.Errorf("%w: appointment is cancelled", ErrInvalidPaymentRequest)
	}
	if appt.Paid {
		return nil, fmt.Errorf("%w: appointment is already paid", ErrInvalidPaymentRequest)
	}
	if appt.Amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", ErrInvalidPaymentRequest)
	}

	order, err := s.gateway.CreateOrder(ctx, CreateOrderParams{
		Amount:   appt.Amount * 100, // gateway expects the smallest currency unit
		Currency: s.currency,
		Receipt:  appt.ID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment order created",
		"appointment_id", appt.ID, "order_id", order.ID, "amount", order.Amount)
	return order, nil
}

// Verify checks the callback signature and, when valid, marks the receipted
// appointment paid. A tampered signature leaves all state untouched.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*appointments.Appointment, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		s.metrics.ObservePaymentVerification("invalid")
		return nil, fmt.Errorf("%w: callback fields missing", ErrInvalidPaymentRequest)
	}

	if !s.signatureValid(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("payment signature mismatch", "order_id", req.OrderID, "payment_id", req.PaymentID)
		s.metrics.ObservePaymentVerification("bad_signature")
		return nil, ErrInvalidSignature
	}

	order, err := s.gateway.GetOrder(ctx, req.OrderID)
	if err != nil {
		s.metrics.ObservePaymentVerification("error")
		return nil, err
	}

	appt, err := s.bookings.MarkPaid(ctx, order.Receipt, identity.System())
	if err != nil {
		s.metrics.ObservePaymentVerification("error")
		return nil, err
	}
	s.logger.Info("payment verified",
		"appointment_id", appt.ID, "order_id", req.OrderID, "payment_id", req.PaymentID)
	s.metrics.ObservePaymentVerification("ok")
	return appt, nil
}

// signatureValid recomputes the gateway signature, HMAC-SHA256 over
// "orderID|paymentID" keyed with the secret, and compares in constant time.
func (s *Service) signatureValid(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
