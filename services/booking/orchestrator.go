package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook/config"
	providerRepo "medibook/database/repository/provider"
	"medibook/models"
	"medibook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartBooking validates the request, claims the slot and opens a payment
// order. On return the slot is held and the caller owes a payment; the hold
// survives at most HoldTTL before the sweep frees it.
func (s *DefaultBookingService) StartBooking(ctx context.Context, req models.BookingRequest, caller models.CallerIdentity) (*models.BookingStartResponse, error) {
	logger := utils.GetLogger()

	if err := validateBookingRequest(req, caller); err != nil {
		return nil, err
	}
	day, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, newRejection(CodeValidation, err.Error())
	}

	provider, err := s.Providers.GetByID(req.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			return nil, newRejection(CodeValidation, fmt.Sprintf("unknown provider %s", req.ProviderID))
		}
		return nil, fmt.Errorf("failed to resolve provider: %w", err)
	}

	// The availability map is consulted for this exact date, before any
	// slot mutation happens. A closed day never reaches the allocator.
	if !IsOpen(provider.Availability, day) {
		return nil, newRejection(CodeDayClosed,
			fmt.Sprintf("provider %s does not take bookings on %s", provider.ID, day.Weekday()))
	}

	// Providers without an explicit currency charge in the platform default.
	currency := provider.Currency
	if currency == "" {
		currency = config.AppConfig.Currency
	}

	attemptID := uuid.New().String()
	slot, err := s.Allocator.Hold(provider, req.Date, req.SlotStart, attemptID)
	if err != nil {
		return nil, err
	}
	logger.Info("slot held",
		zap.String("attemptId", attemptID),
		zap.String("providerId", provider.ID),
		zap.String("date", req.Date),
		zap.Int("slotStart", req.SlotStart))

	now := time.Now()
	attempt := &models.BookingAttempt{
		ID:            attemptID,
		ProviderID:    provider.ID,
		ProviderName:  provider.Name,
		Date:          req.Date,
		Day:           day.Weekday().String(),
		SlotStart:     slot.Start,
		SlotEnd:       slot.End,
		Requester:     caller,
		PatientName:   req.PatientName,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		FeeMinorUnits: provider.FeeMinorUnits,
		Currency:      currency,
		State:         models.AttemptHeld,
		CreatedAt:     now,
	}
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		s.releaseHold(attempt)
		return nil, fmt.Errorf("failed to record booking attempt: %w", err)
	}

	order, err := s.Gateway.CreateOrder(ctx, attempt.FeeMinorUnits, attempt.Currency, attemptID)
	if err != nil {
		// Order creation failing is retryable with a fresh request, but
		// this attempt ends here: give the slot back immediately.
		s.releaseHold(attempt)
		if delErr := s.Attempts.Delete(ctx, attemptID); delErr != nil {
			logger.Warn("failed to discard attempt after order failure",
				zap.String("attemptId", attemptID), zap.Error(delErr))
		}
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, newRetryable(CodeGatewayUnavailable, "payment gateway unavailable, try again")
		}
		return nil, newRetryable(CodeOrderFailed, fmt.Sprintf("payment order creation failed: %v", err))
	}

	attempt.State = models.AttemptAwaitingPayment
	attempt.OrderID = order.OrderID
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		s.releaseHold(attempt)
		return nil, fmt.Errorf("failed to update booking attempt: %w", err)
	}

	if s.Expiry != nil {
		if err := s.Expiry.ScheduleHoldExpiry(attemptID, s.HoldTTL); err != nil {
			// The attempt record's own TTL still bounds the hold; log and move on.
			logger.Warn("failed to schedule hold expiry sweep",
				zap.String("attemptId", attemptID), zap.Error(err))
		}
	}

	logger.Info("booking attempt awaiting payment",
		zap.String("attemptId", attemptID), zap.String("orderId", order.OrderID))
	return &models.BookingStartResponse{
		AttemptID:     attemptID,
		OrderID:       order.OrderID,
		ClientSecret:  order.ClientSecret,
		FeeMinorUnits: attempt.FeeMinorUnits,
		Currency:      attempt.Currency,
	}, nil
}

// ConfirmPayment finalizes a booking after the gateway reports success.
// Confirmed is terminal: replaying the same callback returns the existing
// appointment without creating a second record.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, cb models.PaymentSuccessCallback) (*models.Appointment, error) {
	logger := utils.GetLogger()

	attempt, err := s.Attempts.Get(ctx, cb.AttemptID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			// The attempt record may have aged out after a successful
			// confirmation; the unique attemptId index still finds it.
			if appointment, findErr := s.Appointments.FindByAttemptID(cb.AttemptID); findErr == nil {
				return appointment, nil
			}
			logger.Warn("payment callback for unknown attempt",
				zap.String("attemptId", cb.AttemptID), zap.String("orderId", cb.OrderID))
			return nil, newRejection(CodeStaleCallback, "no such booking attempt; the hold may have expired")
		}
		return nil, err
	}

	switch attempt.State {
	case models.AttemptConfirmed:
		return s.confirmedAppointment(attempt)
	case models.AttemptAwaitingPayment, models.AttemptPaid:
		// proceed
	default:
		// Held attempts have no payment order yet; released states gave the
		// slot back. Neither can accept a payment result.
		logger.Warn("payment callback for unconfirmable attempt",
			zap.String("attemptId", attempt.ID), zap.String("state", string(attempt.State)))
		return nil, newRejection(CodeStaleCallback,
			fmt.Sprintf("booking attempt is %s and cannot accept a payment result", attempt.State))
	}

	if cb.OrderID != attempt.OrderID {
		logger.Warn("payment callback order mismatch",
			zap.String("attemptId", attempt.ID),
			zap.String("expectedOrder", attempt.OrderID),
			zap.String("gotOrder", cb.OrderID))
		return nil, newRejection(CodeStaleCallback, "callback does not match the attempt's payment order")
	}

	attempt.State = models.AttemptPaid
	attempt.PaymentID = cb.PaymentID
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record payment on attempt %s: %w", attempt.ID, err)
	}

	appointmentID := uuid.New().String()
	if err := s.Allocator.Schedules.MarkBooked(attempt.ProviderID, attempt.Date, attempt.SlotStart, attempt.ID, appointmentID); err != nil {
		// A concurrent duplicate of this callback may have finished first;
		// the unique attemptId index means at most one appointment exists.
		if appointment, findErr := s.Appointments.FindByAttemptID(attempt.ID); findErr == nil {
			return appointment, nil
		}
		consistency := &ConsistencyError{
			AttemptID: attempt.ID,
			OrderID:   attempt.OrderID,
			PaymentID: cb.PaymentID,
			Reason:    fmt.Sprintf("slot could not be booked: %v", err),
		}
		attempt.FailureReason = consistency.Reason
		if saveErr := s.Attempts.Save(ctx, attempt); saveErr != nil {
			logger.Error("failed to record consistency failure on attempt",
				zap.String("attemptId", attempt.ID), zap.Error(saveErr))
		}
		logger.Error("payment succeeded but booking failed",
			zap.String("attemptId", attempt.ID),
			zap.String("orderId", attempt.OrderID),
			zap.String("paymentId", cb.PaymentID),
			zap.Error(err))
		return nil, consistency
	}

	appointment := &models.Appointment{
		ID:            appointmentID,
		AttemptID:     attempt.ID,
		ProviderID:    attempt.ProviderID,
		ProviderName:  attempt.ProviderName,
		Requester:     attempt.Requester,
		PatientName:   attempt.PatientName,
		PhoneNumber:   attempt.PhoneNumber,
		Address:       attempt.Address,
		Date:          attempt.Date,
		Day:           attempt.Day,
		SlotStart:     attempt.SlotStart,
		SlotEnd:       attempt.SlotEnd,
		FeeMinorUnits: attempt.FeeMinorUnits,
		Currency:      attempt.Currency,
		PaymentID:     cb.PaymentID,
		OrderID:       attempt.OrderID,
		Status:        models.AppointmentScheduled,
		CreatedAt:     time.Now(),
	}
	if err := s.Appointments.Save(appointment); err != nil {
		consistency := &ConsistencyError{
			AttemptID: attempt.ID,
			OrderID:   attempt.OrderID,
			PaymentID: cb.PaymentID,
			Reason:    fmt.Sprintf("appointment persistence failed: %v", err),
		}
		logger.Error("payment succeeded but appointment could not be persisted",
			zap.String("attemptId", attempt.ID), zap.Error(err))
		return nil, consistency
	}

	attempt.State = models.AttemptConfirmed
	attempt.AppointmentID = appointmentID
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		// The appointment is durable; failing to update the cached attempt
		// only costs the fast path on a replayed callback.
		logger.Warn("failed to mark attempt confirmed",
			zap.String("attemptId", attempt.ID), zap.Error(err))
	}

	logger.Info("booking confirmed",
		zap.String("attemptId", attempt.ID),
		zap.String("appointmentId", appointmentID),
		zap.String("paymentId", cb.PaymentID))
	return appointment, nil
}

// FailPayment handles the gateway's failure callback: the attempt is over,
// the slot goes back to available.
func (s *DefaultBookingService) FailPayment(ctx context.Context, cb models.PaymentFailureCallback) error {
	logger := utils.GetLogger()

	attempt, err := s.Attempts.Get(ctx, cb.AttemptID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			logger.Warn("payment failure callback for unknown attempt", zap.String("attemptId", cb.AttemptID))
			return nil
		}
		return err
	}
	if attempt.State == models.AttemptConfirmed {
		logger.Warn("payment failure callback after confirmation ignored",
			zap.String("attemptId", attempt.ID))
		return nil
	}

	s.releaseHold(attempt)
	attempt.State = models.AttemptPaymentFailed
	attempt.FailureReason = cb.Reason
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		logger.Warn("failed to record payment failure",
			zap.String("attemptId", attempt.ID), zap.Error(err))
	}
	logger.Info("payment failed, slot released",
		zap.String("attemptId", attempt.ID), zap.String("reason", cb.Reason))
	return nil
}

// CancelHold abandons an in-flight attempt on the caller's request.
func (s *DefaultBookingService) CancelHold(ctx context.Context, attemptID string) error {
	attempt, err := s.Attempts.Get(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil
		}
		return err
	}
	if attempt.State == models.AttemptConfirmed {
		return newRejection(CodeValidation, "attempt already confirmed; cancel the appointment instead")
	}

	s.releaseHold(attempt)
	if err := s.Attempts.Delete(ctx, attemptID); err != nil {
		utils.GetLogger().Warn("failed to discard cancelled attempt",
			zap.String("attemptId", attemptID), zap.Error(err))
	}
	return nil
}

// ReleaseExpiredHold is invoked by the sweep worker once the hold window has
// elapsed. A no-op for attempts that converted in time.
func (s *DefaultBookingService) ReleaseExpiredHold(ctx context.Context, attemptID string) error {
	logger := utils.GetLogger()

	attempt, err := s.Attempts.Get(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil
		}
		return err
	}

	switch attempt.State {
	case models.AttemptConfirmed, models.AttemptPaymentFailed, models.AttemptExpired:
		return nil
	case models.AttemptPaid:
		// Money has moved but confirmation has not landed; freeing the
		// slot now could hand a paid-for slot to someone else. Leave it
		// for reconciliation.
		logger.Error("hold expiry reached a paid attempt, leaving slot for reconciliation",
			zap.String("attemptId", attempt.ID),
			zap.String("orderId", attempt.OrderID),
			zap.String("paymentId", attempt.PaymentID))
		return nil
	}

	s.releaseHold(attempt)
	attempt.State = models.AttemptExpired
	if err := s.Attempts.Save(ctx, attempt); err != nil {
		logger.Warn("failed to mark attempt expired",
			zap.String("attemptId", attempt.ID), zap.Error(err))
	}
	logger.Info("expired hold released",
		zap.String("attemptId", attempt.ID),
		zap.String("providerId", attempt.ProviderID),
		zap.String("date", attempt.Date),
		zap.Int("slotStart", attempt.SlotStart))
	return nil
}

// releaseHold frees the attempt's slot, logging rather than failing: release
// is idempotent and a miss means the slot is already free.
func (s *DefaultBookingService) releaseHold(attempt *models.BookingAttempt) {
	if err := s.Allocator.Schedules.ReleaseHold(attempt.ProviderID, attempt.Date, attempt.SlotStart, attempt.ID); err != nil {
		utils.GetLogger().Error("failed to release hold",
			zap.String("attemptId", attempt.ID),
			zap.String("providerId", attempt.ProviderID),
			zap.Int("slotStart", attempt.SlotStart),
			zap.Error(err))
	}
}

func (s *DefaultBookingService) confirmedAppointment(attempt *models.BookingAttempt) (*models.Appointment, error) {
	if attempt.AppointmentID != "" {
		if appointment, err := s.Appointments.FindByID(attempt.AppointmentID); err == nil {
			return appointment, nil
		}
	}
	appointment, err := s.Appointments.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("confirmed attempt %s has no appointment record: %w", attempt.ID, err)
	}
	return appointment, nil
}

func validateBookingRequest(req models.BookingRequest, caller models.CallerIdentity) error {
	switch {
	case caller.ID == "":
		return newRejection(CodeValidation, "missing caller identity")
	case req.ProviderID == "":
		return newRejection(CodeValidation, "missing field: providerId")
	case req.Date == "":
		return newRejection(CodeValidation, "missing field: date")
	case req.PatientName == "":
		return newRejection(CodeValidation, "missing field: patientName")
	case req.PhoneNumber == "":
		return newRejection(CodeValidation, "missing field: phoneNumber")
	case req.Address == "":
		return newRejection(CodeValidation, "missing field: address")
	case req.SlotStart < 0 || req.SlotStart >= 24*60:
		return newRejection(CodeValidation, "slotStart out of range")
	}
	return nil
}
