package appointmentRepo

import (
	"errors"

	"medibook/models"
)

// ErrAppointmentNotFound is returned by the read paths when no record matches.
var ErrAppointmentNotFound = errors.New("appointment not found")

// AppointmentRepository is the durable store of confirmed bookings.
// Storage errors propagate as-is; the repository does not interpret them.
type AppointmentRepository interface {
	Save(appointment *models.Appointment) error
	FindByID(id string) (*models.Appointment, error)
	// FindByAttemptID backs idempotent payment confirmation: the unique
	// attemptId index guarantees at most one appointment per attempt.
	FindByAttemptID(attemptID string) (*models.Appointment, error)
	FindByRequester(requesterID string) ([]models.Appointment, error)
	UpdateStatus(id, status string) error
}
