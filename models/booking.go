package models

import "time"

// CallerIdentity is the opaque identity of the booking caller, supplied by
// the session layer. The engine never interprets it beyond recording it.
type CallerIdentity struct {
	ID          string `bson:"id" json:"id"`
	DisplayName string `bson:"displayName" json:"displayName"`
	Contact     string `bson:"contact" json:"contact"`
}

// BookingRequest is the ephemeral input to start a booking. It is validated
// and converted into a BookingAttempt; never persisted as-is.
type BookingRequest struct {
	ProviderID  string `json:"providerId" binding:"required"`
	Date        string `json:"date" binding:"required"` // "2006-01-02"
	SlotStart   int    `json:"slotStart"`               // minutes from midnight
	PatientName string `json:"patientName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// AttemptState tracks a booking attempt from hold to its terminal outcome.
type AttemptState string

const (
	AttemptHeld            AttemptState = "held"
	AttemptAwaitingPayment AttemptState = "awaiting_payment"
	AttemptPaid            AttemptState = "paid"
	AttemptConfirmed       AttemptState = "confirmed"
	AttemptPaymentFailed   AttemptState = "payment_failed"
	AttemptExpired         AttemptState = "expired"
)

// BookingAttempt is the in-flight state of one booking request. It lives in
// the attempt cache for the duration of the flow; on confirmation it is
// projected into an Appointment.
type BookingAttempt struct {
	ID            string         `json:"id"`
	ProviderID    string         `json:"providerId"`
	ProviderName  string         `json:"providerName"`
	Date          string         `json:"date"`
	Day           string         `json:"day"`
	SlotStart     int            `json:"slotStart"`
	SlotEnd       int            `json:"slotEnd"`
	Requester     CallerIdentity `json:"requester"`
	PatientName   string         `json:"patientName"`
	PhoneNumber   string         `json:"phoneNumber"`
	Address       string         `json:"address"`
	FeeMinorUnits int64          `json:"feeMinorUnits"`
	Currency      string         `json:"currency"`
	State         AttemptState   `json:"state"`
	OrderID       string         `json:"orderId,omitempty"`
	PaymentID     string         `json:"paymentId,omitempty"`
	AppointmentID string         `json:"appointmentId,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// BookingStartResponse is returned to the caller once a slot is held and a
// payment order exists for it.
type BookingStartResponse struct {
	AttemptID     string `json:"attemptId"`
	OrderID       string `json:"orderId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	FeeMinorUnits int64  `json:"feeMinorUnits"`
	Currency      string `json:"currency"`
}
