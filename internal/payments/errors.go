package payments

import "errors"

var (
	// ErrInvalidSignature is returned when a payment callback's HMAC
	// signature does not match. The appointment stays unpaid.
	ErrInvalidSignature = errors.New("payments: payment signature mismatch")

	// ErrInvalidPaymentRequest is returned when an order is requested for
	// an appointment that cannot accept payment.
	ErrInvalidPaymentRequest = errors.New("payments: appointment not payable")

	// ErrOrderNotFound is returned when the gateway has no order with the
	// given id.
	ErrOrderNotFound = errors.New("payments: order not found")
)
