package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	appointmentRepo "medibook/database/repository/appointment"
	providerRepo "medibook/database/repository/provider"
	scheduleRepo "medibook/database/repository/schedule"
	"medibook/models"
)

// memScheduleRepo mirrors the conditional-update semantics of the Mongo
// implementation in process memory, guarded by one mutex.
type memScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*models.Schedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{schedules: make(map[string]*models.Schedule)}
}

func schedKey(providerID, date string) string {
	return providerID + "|" + date
}

func (r *memScheduleRepo) GetSchedule(providerID, date string) (*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[schedKey(providerID, date)]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	clone := *s
	clone.Slots = append([]models.TimeSlot(nil), s.Slots...)
	return &clone, nil
}

func (r *memScheduleRepo) CreateSchedule(schedule *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := schedKey(schedule.ProviderID, schedule.Date)
	if _, ok := r.schedules[key]; ok {
		return nil
	}
	clone := *schedule
	clone.Slots = append([]models.TimeSlot(nil), schedule.Slots...)
	r.schedules[key] = &clone
	return nil
}

func (r *memScheduleRepo) slotAt(providerID, date string, slotStart int) (*models.TimeSlot, error) {
	s, ok := r.schedules[schedKey(providerID, date)]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	slot := s.SlotAt(slotStart)
	if slot == nil {
		return nil, scheduleRepo.ErrSlotNotFound
	}
	return slot, nil
}

func (r *memScheduleRepo) HoldSlot(providerID, date string, slotStart int, attemptID string) (*models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.slotAt(providerID, date, slotStart)
	if err != nil {
		return nil, err
	}
	if slot.Status != models.SlotAvailable {
		return nil, scheduleRepo.ErrSlotAlreadyTaken
	}
	now := time.Now()
	slot.Status = models.SlotHeld
	slot.HoldAttemptID = attemptID
	slot.HeldAt = &now
	clone := *slot
	return &clone, nil
}

func (r *memScheduleRepo) MarkBooked(providerID, date string, slotStart int, attemptID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.slotAt(providerID, date, slotStart)
	if err != nil {
		return err
	}
	if slot.Status == models.SlotBooked {
		return scheduleRepo.ErrSlotStateConflict
	}
	if slot.Status != models.SlotHeld || slot.HoldAttemptID != attemptID {
		return scheduleRepo.ErrSlotUnavailable
	}
	slot.Status = models.SlotBooked
	slot.BookingID = bookingID
	slot.HoldAttemptID = ""
	slot.HeldAt = nil
	return nil
}

func (r *memScheduleRepo) ReleaseHold(providerID, date string, slotStart int, attemptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.slotAt(providerID, date, slotStart)
	if err != nil {
		return err
	}
	if slot.Status != models.SlotHeld {
		return nil
	}
	if attemptID != "" && slot.HoldAttemptID != attemptID {
		return nil
	}
	slot.Status = models.SlotAvailable
	slot.HoldAttemptID = ""
	slot.HeldAt = nil
	return nil
}

func (r *memScheduleRepo) FreeBookedSlot(providerID, date string, slotStart int, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.slotAt(providerID, date, slotStart)
	if err != nil {
		return err
	}
	if slot.Status != models.SlotBooked || slot.BookingID != bookingID {
		return scheduleRepo.ErrSlotUnavailable
	}
	slot.Status = models.SlotAvailable
	slot.BookingID = ""
	return nil
}

// slotStatus reads a slot's current state directly, for assertions.
func (r *memScheduleRepo) slotStatus(providerID, date string, slotStart int) models.SlotStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.slotAt(providerID, date, slotStart)
	if err != nil {
		return ""
	}
	return slot.Status
}

var _ scheduleRepo.ScheduleRepository = (*memScheduleRepo)(nil)

type memProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*models.Provider
}

func newMemProviderRepo(providers ...*models.Provider) *memProviderRepo {
	r := &memProviderRepo{providers: make(map[string]*models.Provider)}
	for _, p := range providers {
		r.providers[p.ID] = p
	}
	return r
}

func (r *memProviderRepo) GetByID(id string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, providerRepo.ErrProviderNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memProviderRepo) UpdateWeeklyHours(id string, availability map[string]bool, hours map[string]models.WeeklyHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return providerRepo.ErrProviderNotFound
	}
	p.Availability = availability
	p.WeeklyHours = hours
	return nil
}

var _ providerRepo.ProviderRepository = (*memProviderRepo)(nil)

type memAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment
	saveErr      error
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{appointments: make(map[string]*models.Appointment)}
}

func (r *memAppointmentRepo) Save(appointment *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	// The unique attemptId index rejects a second record for one attempt.
	for _, a := range r.appointments {
		if a.AttemptID == appointment.AttemptID {
			return fmt.Errorf("duplicate key: attemptId %s", appointment.AttemptID)
		}
	}
	clone := *appointment
	r.appointments[appointment.ID] = &clone
	return nil
}

func (r *memAppointmentRepo) FindByID(id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *memAppointmentRepo) FindByAttemptID(attemptID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.AttemptID == attemptID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, appointmentRepo.ErrAppointmentNotFound
}

func (r *memAppointmentRepo) FindByRequester(requesterID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appointments {
		if a.Requester.ID == requesterID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) UpdateStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r *memAppointmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

var _ appointmentRepo.AppointmentRepository = (*memAppointmentRepo)(nil)

// stubGateway hands out sequential order ids, or fails with err when set.
type stubGateway struct {
	mu     sync.Mutex
	err    error
	orders int
}

func (g *stubGateway) Ready() error {
	if g.err != nil {
		return g.err
	}
	return nil
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, reference string) (*models.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.orders++
	orderID := fmt.Sprintf("order-%d", g.orders)
	return &models.PaymentOrder{
		OrderID:          orderID,
		AmountMinorUnits: amountMinorUnits,
		Currency:         currency,
		Reference:        reference,
		ClientSecret:     orderID + "_secret",
	}, nil
}

var _ PaymentGateway = (*stubGateway)(nil)

// stubExpiry records the sweeps it was asked to schedule.
type stubExpiry struct {
	mu        sync.Mutex
	scheduled []string
}

func (e *stubExpiry) ScheduleHoldExpiry(attemptID string, delay time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = append(e.scheduled, attemptID)
	return nil
}

var _ ExpiryScheduler = (*stubExpiry)(nil)
