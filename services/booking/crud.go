package booking

import (
	"context"
	"errors"
	"fmt"

	providerRepo "medibook/database/repository/provider"
	scheduleRepo "medibook/database/repository/schedule"
	"medibook/models"
	"medibook/utils"

	"go.uber.org/zap"
)

// GetDayAvailability is the listing-page read path: the provider's slots for
// one date, with statuses. A closed or unpublished day comes back with
// Open == false rather than an error.
func (s *DefaultBookingService) GetDayAvailability(ctx context.Context, providerID, date string) (*models.DayAvailability, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, newRejection(CodeValidation, err.Error())
	}

	provider, err := s.Providers.GetByID(providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			return nil, newRejection(CodeValidation, fmt.Sprintf("unknown provider %s", providerID))
		}
		return nil, err
	}

	availability := &models.DayAvailability{
		ProviderID: providerID,
		Date:       date,
		Day:        day.Weekday().String(),
	}
	if !IsOpen(provider.Availability, day) {
		return availability, nil
	}

	schedule, err := s.Allocator.EnsureSchedule(provider, date, day.Weekday())
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			// Open weekday but no published hours: no bookable slots.
			return availability, nil
		}
		return nil, err
	}
	availability.Open = true
	availability.Slots = schedule.Slots
	return availability, nil
}

func (s *DefaultBookingService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	return s.Appointments.FindByID(id)
}

func (s *DefaultBookingService) ListAppointments(ctx context.Context, requesterID string) ([]models.Appointment, error) {
	return s.Appointments.FindByRequester(requesterID)
}

// CancelAppointment flips a scheduled appointment to cancelled and marks its
// slot free again. No refund handling happens here.
func (s *DefaultBookingService) CancelAppointment(ctx context.Context, id, requesterID string) (*models.Appointment, error) {
	appointment, err := s.Appointments.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appointment.Requester.ID != requesterID {
		return nil, newRejection(CodeValidation, "appointment belongs to a different caller")
	}
	if appointment.Status == models.AppointmentCancelled {
		return appointment, nil
	}

	if err := s.Appointments.UpdateStatus(id, models.AppointmentCancelled); err != nil {
		return nil, err
	}
	if err := s.Allocator.Schedules.FreeBookedSlot(appointment.ProviderID, appointment.Date, appointment.SlotStart, id); err != nil {
		// The cancellation stands; the slot just stays blocked until fixed.
		utils.GetLogger().Error("failed to free slot for cancelled appointment",
			zap.String("appointmentId", id), zap.Error(err))
	}

	appointment.Status = models.AppointmentCancelled
	return appointment, nil
}
