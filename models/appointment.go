package models

import "time"

// Appointment statuses. Cancellation only flips the status; the record
// itself is immutable once written.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
)

// Appointment is the durable record of a confirmed booking. Created only on
// successful payment confirmation.
type Appointment struct {
	ID            string         `bson:"id" json:"id"`
	AttemptID     string         `bson:"attemptId" json:"attemptId"`
	ProviderID    string         `bson:"providerId" json:"providerId"`
	ProviderName  string         `bson:"providerName" json:"providerName"`
	Requester     CallerIdentity `bson:"requester" json:"requester"`
	PatientName   string         `bson:"patientName" json:"patientName"`
	PhoneNumber   string         `bson:"phoneNumber" json:"phoneNumber"`
	Address       string         `bson:"address,omitempty" json:"address,omitempty"`
	Date          string         `bson:"date" json:"date"`
	Day           string         `bson:"day" json:"day"`
	SlotStart     int            `bson:"slotStart" json:"slotStart"`
	SlotEnd       int            `bson:"slotEnd" json:"slotEnd"`
	FeeMinorUnits int64          `bson:"feeMinorUnits" json:"feeMinorUnits"`
	Currency      string         `bson:"currency" json:"currency"`
	PaymentID     string         `bson:"paymentId" json:"paymentId"`
	OrderID       string         `bson:"orderId" json:"orderId"`
	Status        string         `bson:"status" json:"status"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
}
