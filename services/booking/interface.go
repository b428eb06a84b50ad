package booking

import (
	"context"
	"time"

	appointmentRepo "medibook/database/repository/appointment"
	providerRepo "medibook/database/repository/provider"
	"medibook/models"
)

// BookingService is the single entry point for the booking lifecycle. All
// page-level callers go through it; none of them touch slot state directly.
type BookingService interface {
	StartBooking(ctx context.Context, req models.BookingRequest, caller models.CallerIdentity) (*models.BookingStartResponse, error)
	ConfirmPayment(ctx context.Context, cb models.PaymentSuccessCallback) (*models.Appointment, error)
	FailPayment(ctx context.Context, cb models.PaymentFailureCallback) error
	CancelHold(ctx context.Context, attemptID string) error
	// ReleaseExpiredHold is the sweep path: frees the slot of an attempt
	// that never converted within the hold window.
	ReleaseExpiredHold(ctx context.Context, attemptID string) error

	GetDayAvailability(ctx context.Context, providerID, date string) (*models.DayAvailability, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, requesterID string) ([]models.Appointment, error)
	CancelAppointment(ctx context.Context, id, requesterID string) (*models.Appointment, error)
}

// ExpiryScheduler enqueues the deferred hold-expiry sweep for an attempt.
type ExpiryScheduler interface {
	ScheduleHoldExpiry(attemptID string, delay time.Duration) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Providers    providerRepo.ProviderRepository
	Appointments appointmentRepo.AppointmentRepository
	Allocator    *SlotAllocator
	Attempts     AttemptStore
	Gateway      PaymentGateway
	Expiry       ExpiryScheduler
	// HoldTTL bounds how long a held slot may wait for payment.
	HoldTTL time.Duration
}
