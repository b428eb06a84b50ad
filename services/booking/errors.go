package booking

import "fmt"

// Reason codes carried on BookingError. Callers use these to decide whether
// retrying the same slot is pointless (slot taken/expired, payment declined)
// or safe (gateway trouble).
const (
	CodeValidation         = "validationFailed"
	CodeDayClosed          = "dayClosed"
	CodeSlotNotFound       = "slotNotFound"
	CodeSlotTaken          = "slotAlreadyTaken"
	CodeSlotExpired        = "slotExpired"
	CodeGatewayUnavailable = "gatewayUnavailable"
	CodeOrderFailed        = "paymentOrderFailed"
	CodePaymentFailed      = "paymentFailed"
	CodeStaleCallback      = "staleCallback"
)

// BookingError is a caller-facing failure with a machine-readable code.
type BookingError struct {
	Code    string
	Message string
	// RetrySameSlot tells a retrying caller whether the same slot can
	// still be worth another attempt.
	RetrySameSlot bool
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newRejection(code, msg string) error {
	return &BookingError{Code: code, Message: msg}
}

func newRetryable(code, msg string) error {
	return &BookingError{Code: code, Message: msg, RetrySameSlot: true}
}

// ConsistencyError is the one failure class that must never be swallowed:
// the payment cleared but the booking could not be secured. It is kept
// distinct from contention errors so reconciliation can be triggered.
type ConsistencyError struct {
	AttemptID string
	OrderID   string
	PaymentID string
	Reason    string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("payment succeeded but booking failed for attempt %s (order %s, payment %s): %s",
		e.AttemptID, e.OrderID, e.PaymentID, e.Reason)
}
