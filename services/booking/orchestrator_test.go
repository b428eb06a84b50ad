package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"medibook/config"
	"medibook/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc      *DefaultBookingService
	store    *memScheduleRepo
	appts    *memAppointmentRepo
	gateway  *stubGateway
	expiry   *stubExpiry
	attempts *RedisAttemptStore
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	attempts := NewRedisAttemptStore(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	store := newMemScheduleRepo()
	appts := newMemAppointmentRepo()
	gateway := &stubGateway{}
	expiry := &stubExpiry{}

	svc := &DefaultBookingService{
		Providers:    newMemProviderRepo(testProvider()),
		Appointments: appts,
		Allocator:    newTestAllocator(store),
		Attempts:     attempts,
		Gateway:      gateway,
		Expiry:       expiry,
		HoldTTL:      10 * time.Minute,
	}
	return &testEnv{svc: svc, store: store, appts: appts, gateway: gateway, expiry: expiry, attempts: attempts, mr: mr}
}

func testRequest() models.BookingRequest {
	return models.BookingRequest{
		ProviderID:  "prov-1",
		Date:        "2026-03-02",
		SlotStart:   540,
		PatientName: "Meera Iyer",
		PhoneNumber: "+919876543210",
		Address:     "12 Lake Road, Pune",
	}
}

func testCaller() models.CallerIdentity {
	return models.CallerIdentity{ID: "user-1", DisplayName: "Meera", Contact: "meera@example.com"}
}

func TestStartBookingHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AttemptID)
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "order-1_secret", resp.ClientSecret)
	assert.Equal(t, int64(50000), resp.FeeMinorUnits)
	assert.Equal(t, "inr", resp.Currency)

	assert.Equal(t, models.SlotHeld, env.store.slotStatus("prov-1", "2026-03-02", 540))

	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptAwaitingPayment, attempt.State)
	assert.Equal(t, "order-1", attempt.OrderID)
	assert.Equal(t, 570, attempt.SlotEnd)
	assert.Equal(t, "user-1", attempt.Requester.ID)

	require.Len(t, env.expiry.scheduled, 1)
	assert.Equal(t, resp.AttemptID, env.expiry.scheduled[0])
}

func TestStartBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*models.BookingRequest)
		caller  models.CallerIdentity
	}{
		{"missing provider", func(r *models.BookingRequest) { r.ProviderID = "" }, testCaller()},
		{"missing date", func(r *models.BookingRequest) { r.Date = "" }, testCaller()},
		{"missing patient name", func(r *models.BookingRequest) { r.PatientName = "" }, testCaller()},
		{"missing phone", func(r *models.BookingRequest) { r.PhoneNumber = "" }, testCaller()},
		{"missing address", func(r *models.BookingRequest) { r.Address = "" }, testCaller()},
		{"slot out of range", func(r *models.BookingRequest) { r.SlotStart = 24 * 60 }, testCaller()},
		{"missing caller", func(r *models.BookingRequest) {}, models.CallerIdentity{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			tc.mutate(&req)
			_, err := env.svc.StartBooking(ctx, req, tc.caller)
			var be *BookingError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, CodeValidation, be.Code)
		})
	}

	_, err := env.svc.StartBooking(ctx, models.BookingRequest{
		ProviderID: "prov-unknown", Date: "2026-03-02", SlotStart: 540,
		PatientName: "x", PhoneNumber: "y", Address: "z",
	}, testCaller())
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeValidation, be.Code)
}

func TestStartBookingClosedDayNeverHolds(t *testing.T) {
	env := newTestEnv(t)
	req := testRequest()
	req.Date = "2026-03-08" // Sunday

	_, err := env.svc.StartBooking(context.Background(), req, testCaller())
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeDayClosed, be.Code)

	// The rejection happened before any slot mutation.
	assert.Equal(t, models.SlotStatus(""), env.store.slotStatus("prov-1", "2026-03-08", 540))
	assert.Empty(t, env.expiry.scheduled)
}

func TestStartBookingOrderFailureReleasesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.err = errors.New("stripe 500")

	_, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeOrderFailed, be.Code)
	assert.True(t, be.RetrySameSlot)

	// The slot went back to available and the attempt left no trace.
	assert.Equal(t, models.SlotAvailable, env.store.slotStatus("prov-1", "2026-03-02", 540))
	assert.Empty(t, env.expiry.scheduled)

	// The same slot can be claimed again once the gateway recovers.
	env.gateway.err = nil
	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AttemptID)
}

func TestStartBookingGatewayUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.err = ErrGatewayUnavailable

	_, err := env.svc.StartBooking(context.Background(), testRequest(), testCaller())
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeGatewayUnavailable, be.Code)
	assert.True(t, be.RetrySameSlot)
	assert.Equal(t, models.SlotAvailable, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	appointment, err := env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID,
		OrderID:   resp.OrderID,
		PaymentID: "pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.AttemptID, appointment.AttemptID)
	assert.Equal(t, "prov-1", appointment.ProviderID)
	assert.Equal(t, "Meera Iyer", appointment.PatientName)
	assert.Equal(t, 540, appointment.SlotStart)
	assert.Equal(t, "pay-1", appointment.PaymentID)
	assert.Equal(t, models.AppointmentScheduled, appointment.Status)

	assert.Equal(t, models.SlotBooked, env.store.slotStatus("prov-1", "2026-03-02", 540))

	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptConfirmed, attempt.State)
	assert.Equal(t, appointment.ID, attempt.AppointmentID)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	cb := models.PaymentSuccessCallback{AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1"}
	first, err := env.svc.ConfirmPayment(ctx, cb)
	require.NoError(t, err)
	second, err := env.svc.ConfirmPayment(ctx, cb)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, env.appts.count())
}

func TestConfirmPaymentAfterAttemptAgedOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	cb := models.PaymentSuccessCallback{AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1"}
	first, err := env.svc.ConfirmPayment(ctx, cb)
	require.NoError(t, err)

	// The attempt record expires out of the cache; the appointment's
	// attemptId index still answers the replay.
	env.mr.FastForward(2 * time.Hour)
	second, err := env.svc.ConfirmPayment(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestConfirmPaymentStaleCallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: "ghost", OrderID: "order-x", PaymentID: "pay-x",
	})
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeStaleCallback, be.Code)
}

func TestStartBookingDefaultsProviderCurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	prev := config.AppConfig.Currency
	config.AppConfig.Currency = "inr"
	t.Cleanup(func() { config.AppConfig.Currency = prev })

	bare := testProvider()
	bare.ID = "prov-2"
	bare.Currency = ""
	env.svc.Providers = newMemProviderRepo(testProvider(), bare)

	req := testRequest()
	req.ProviderID = "prov-2"
	resp, err := env.svc.StartBooking(ctx, req, testCaller())
	require.NoError(t, err)
	assert.Equal(t, "inr", resp.Currency)

	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, "inr", attempt.Currency)
}

func TestConfirmPaymentRejectsAttemptWithoutOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	// Rewind the attempt to its pre-order state: held, no payment order.
	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	attempt.State = models.AttemptHeld
	attempt.OrderID = ""
	require.NoError(t, env.attempts.Save(ctx, attempt))

	// A success callback cannot attach itself to an orderless attempt,
	// whatever order id it claims.
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: "order-forged", PaymentID: "pay-x",
	})
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeStaleCallback, be.Code)

	assert.Equal(t, models.SlotHeld, env.store.slotStatus("prov-1", "2026-03-02", 540))
	assert.Equal(t, 0, env.appts.count())
}

func TestConfirmPaymentOrderMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: "order-imposter", PaymentID: "pay-1",
	})
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeStaleCallback, be.Code)

	// The hold is untouched; the real callback can still land.
	assert.Equal(t, models.SlotHeld, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestConfirmPaymentConsistencyViolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	// The hold vanishes out from under the paid attempt.
	require.NoError(t, env.store.ReleaseHold("prov-1", "2026-03-02", 540, resp.AttemptID))

	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1",
	})
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, resp.AttemptID, ce.AttemptID)
	assert.Equal(t, resp.OrderID, ce.OrderID)
	assert.Equal(t, "pay-1", ce.PaymentID)
	assert.Equal(t, 0, env.appts.count())
}

func TestConfirmPaymentAppointmentSaveFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	env.appts.saveErr = errors.New("mongo down")
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1",
	})
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "pay-1", ce.PaymentID)
}

func TestFailPaymentReleasesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	err = env.svc.FailPayment(ctx, models.PaymentFailureCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, Reason: "card declined",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SlotAvailable, env.store.slotStatus("prov-1", "2026-03-02", 540))
	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptPaymentFailed, attempt.State)
	assert.Equal(t, "card declined", attempt.FailureReason)

	// Unknown attempts are ignored, not errors.
	assert.NoError(t, env.svc.FailPayment(ctx, models.PaymentFailureCallback{AttemptID: "ghost"}))
}

func TestFailPaymentAfterConfirmationIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.FailPayment(ctx, models.PaymentFailureCallback{
		AttemptID: resp.AttemptID, Reason: "late failure",
	}))
	assert.Equal(t, models.SlotBooked, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestCancelHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelHold(ctx, resp.AttemptID))
	assert.Equal(t, models.SlotAvailable, env.store.slotStatus("prov-1", "2026-03-02", 540))
	_, err = env.attempts.Get(ctx, resp.AttemptID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	// Cancelling an unknown attempt is a no-op.
	assert.NoError(t, env.svc.CancelHold(ctx, "ghost"))
}

func TestCancelHoldRefusesConfirmedAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1",
	})
	require.NoError(t, err)

	err = env.svc.CancelHold(ctx, resp.AttemptID)
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeValidation, be.Code)
	assert.Equal(t, models.SlotBooked, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestReleaseExpiredHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, resp.AttemptID))
	assert.Equal(t, models.SlotAvailable, env.store.slotStatus("prov-1", "2026-03-02", 540))

	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptExpired, attempt.State)

	// Running the sweep again is a no-op.
	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, resp.AttemptID))
	// So is sweeping an attempt that never existed.
	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, "ghost"))
}

func TestReleaseExpiredHoldSkipsConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: resp.AttemptID, OrderID: resp.OrderID, PaymentID: "pay-1",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, resp.AttemptID))
	assert.Equal(t, models.SlotBooked, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestReleaseExpiredHoldLeavesPaidAttemptAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)

	attempt, err := env.attempts.Get(ctx, resp.AttemptID)
	require.NoError(t, err)
	attempt.State = models.AttemptPaid
	require.NoError(t, env.attempts.Save(ctx, attempt))

	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, resp.AttemptID))
	assert.Equal(t, models.SlotHeld, env.store.slotStatus("prov-1", "2026-03-02", 540))
}

func TestExpiredThenRebookedSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.StartBooking(ctx, testRequest(), testCaller())
	require.NoError(t, err)
	require.NoError(t, env.svc.ReleaseExpiredHold(ctx, first.AttemptID))

	// Someone else takes the freed slot.
	second, err := env.svc.StartBooking(ctx, testRequest(), models.CallerIdentity{ID: "user-2"})
	require.NoError(t, err)

	// The first attempt's late success callback must not steal it back.
	_, err = env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: first.AttemptID, OrderID: first.OrderID, PaymentID: "pay-late",
	})
	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, CodeStaleCallback, be.Code)

	// The second attempt confirms normally.
	appointment, err := env.svc.ConfirmPayment(ctx, models.PaymentSuccessCallback{
		AttemptID: second.AttemptID, OrderID: second.OrderID, PaymentID: "pay-2",
	})
	require.NoError(t, err)
	assert.Equal(t, second.AttemptID, appointment.AttemptID)
	assert.Equal(t, 1, env.appts.count())
}
