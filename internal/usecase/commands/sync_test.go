//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/domain/payment"
	"staysync/internal/domain/synclog"
	"staysync/internal/infra/pms"
	"staysync/internal/pkg/clock"
	"staysync/internal/usecase/commands"
	"staysync/tests/common/builder"
	"staysync/tests/common/fakes"
	commandsmock "staysync/tests/mock/commands"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var retrySchedule = []time.Duration{
	time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second,
}

const watchdogWindow = 10 * time.Minute

type sagaFixture struct {
	bookings *fakes.BookingRepository
	payments *fakes.PaymentRepository
	syncLog  *fakes.SyncLogRepository
	gateway  *fakes.PMSGateway
	refunds  *fakes.RefundGateway
	notifier *commandsmock.MockNotifier
	sleeper  *fakes.RecordingSleeper
	clk      *clock.MockClock

	orchestrator commands.SyncOrchestrator
}

func newSagaFixture(t *testing.T, script ...fakes.CreateOutcome) *sagaFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &sagaFixture{
		bookings: fakes.NewBookingRepository(),
		payments: fakes.NewPaymentRepository(),
		syncLog:  fakes.NewSyncLogRepository(),
		gateway:  fakes.NewPMSGateway(script...),
		refunds:  fakes.NewRefundGateway(),
		notifier: commandsmock.NewMockNotifier(ctrl),
		sleeper:  fakes.NewRecordingSleeper(),
		clk:      clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	compensator := commands.NewCompensator(f.bookings, f.payments, f.refunds, f.notifier)
	f.orchestrator = commands.NewSyncOrchestrator(
		f.bookings, f.payments, f.syncLog, f.gateway, compensator, f.notifier,
		f.clk, f.sleeper, retrySchedule, watchdogWindow,
	)
	return f
}

// seedCapturedBooking stores a PAYMENT_COMPLETED booking with its captured
// payment and returns the booking id.
func (f *sagaFixture) seedCapturedBooking(t *testing.T) uuid.UUID {
	t.Helper()

	bookingID := uuid.New()
	pay, err := payment.NewPayment(bookingID, "pi_"+bookingID.String()[:8], nil, 15000, "JPY", f.clk.Now())
	require.NoError(t, err)
	require.NoError(t, pay.MarkSucceeded(15000, "JPY", f.clk.Now()))
	f.payments.Seed(pay)

	b := builder.NewBookingBuilder().
		With(func(bb *builder.BookingBuilder) { bb.ID = bookingID }).
		AsPaymentCompleted(pay.ID()).
		BuildReconstructed()
	f.bookings.Seed(b)
	return bookingID
}

func succeedWith(reservationID string) fakes.CreateOutcome {
	return fakes.CreateOutcome{Created: &pms.ReservationCreated{
		ReservationID: reservationID,
		Raw:           []byte(`{"reservation_id":"` + reservationID + `"}`),
	}}
}

func failWithStatus(status int) fakes.CreateOutcome {
	return fakes.CreateOutcome{Err: pms.NewError(status, "", "", nil)}
}

func TestSyncOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds and confirms the booking", func(t *testing.T) {
		f := newSagaFixture(t, succeedWith("HTL-2026-00042"))

		id := uuid.New()
		pay, err := payment.NewPayment(id, "pi_confirm01", nil, 15000, "JPY", f.clk.Now())
		require.NoError(t, err)
		require.NoError(t, pay.MarkSucceeded(15000, "JPY", f.clk.Now()))
		f.payments.Seed(pay)

		bb := builder.NewBookingBuilder().
			With(func(b *builder.BookingBuilder) { b.ID = id }).
			AsPaymentCompleted(pay.ID())
		f.bookings.Seed(bb.BuildReconstructed())

		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.orchestrator.Run(ctx, id))

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		require.NotNil(t, b.ExternalReservationID())
		assert.Equal(t, "HTL-2026-00042", *b.ExternalReservationID())
		assert.Equal(t, 1, b.SyncAttempts())
		assert.Nil(t, b.NextRetryAt())

		calls := f.gateway.Calls()
		require.Len(t, calls, 1)
		want := pms.CreateReservationRequest{
			RoomID:     bb.RoomID,
			PropertyID: bb.PropertyID,
			Arrival:    time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
			Departure:  time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
			GuestName:  bb.GuestName,
			GuestEmail: bb.GuestEmail,
			Adults:     bb.Adults,
			Children:   bb.Children,
			Total:      bb.TotalAmount,
			Currency:   bb.Currency,
			BookingRef: id.String(),
			PaymentRef: pay.IntentID(),
		}
		if diff := cmp.Diff(want, calls[0]); diff != "" {
			t.Errorf("reservation request mismatch (-want +got):\n%s", diff)
		}

		trail := f.syncLog.Attempts(id)
		require.Len(t, trail, 1)
		assert.Equal(t, synclog.OutcomeSuccess, trail[0].Outcome)
		assert.Equal(t, 1, trail[0].Ordinal)
		assert.Empty(t, f.refunds.Calls())
		assert.Empty(t, f.sleeper.Delays())
	})

	t.Run("transient failures back off then succeed", func(t *testing.T) {
		f := newSagaFixture(t,
			failWithStatus(500),
			failWithStatus(503),
			succeedWith("HTL-2026-00043"),
		)
		id := f.seedCapturedBooking(t)

		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.orchestrator.Run(ctx, id))

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Equal(t, 3, b.SyncAttempts())

		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeper.Delays())

		trail := f.syncLog.Attempts(id)
		require.Len(t, trail, 3)
		assert.Equal(t, synclog.OutcomeRetrying, trail[0].Outcome)
		assert.Equal(t, synclog.OutcomeRetrying, trail[1].Outcome)
		assert.Equal(t, synclog.OutcomeSuccess, trail[2].Outcome)
	})

	t.Run("exhausted retry budget refunds the guest", func(t *testing.T) {
		f := newSagaFixture(t, failWithStatus(500))
		id := f.seedCapturedBooking(t)

		f.notifier.EXPECT().NotifyGuestRefunded(gomock.Any(), gomock.Any()).Return(nil)
		f.notifier.EXPECT().AlertOperator(gomock.Any(), commands.SeverityHigh, gomock.Any()).Return(nil)

		require.NoError(t, f.orchestrator.Run(ctx, id))

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusRefunded, b.Status())
		assert.Nil(t, b.ExternalReservationID())
		assert.Equal(t, 5, b.SyncAttempts())

		require.Len(t, f.gateway.Calls(), 5)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}, f.sleeper.Delays())

		trail := f.syncLog.Attempts(id)
		require.Len(t, trail, 5)
		assert.Equal(t, synclog.OutcomeFailed, trail[4].Outcome)

		refunds := f.refunds.Calls()
		require.Len(t, refunds, 1)
		assert.Equal(t, "PMS_CONFIRMATION_FAILED", refunds[0].Reason)

		pay := f.payments.Get(*b.PaymentID())
		assert.Equal(t, payment.StatusRefunded, pay.Status())
	})

	t.Run("permanent rejection compensates without retrying", func(t *testing.T) {
		f := newSagaFixture(t, failWithStatus(409))
		id := f.seedCapturedBooking(t)

		f.notifier.EXPECT().NotifyGuestRefunded(gomock.Any(), gomock.Any()).Return(nil)
		f.notifier.EXPECT().AlertOperator(gomock.Any(), commands.SeverityHigh, gomock.Any()).Return(nil)

		require.NoError(t, f.orchestrator.Run(ctx, id))

		assert.Len(t, f.gateway.Calls(), 1)
		assert.Empty(t, f.sleeper.Delays())
		assert.Equal(t, booking.StatusRefunded, f.bookings.Get(id).Status())
		assert.Len(t, f.refunds.Calls(), 1)
	})

	t.Run("refund failure leaves sync_failed with a critical alert", func(t *testing.T) {
		f := newSagaFixture(t, failWithStatus(409))
		id := f.seedCapturedBooking(t)
		f.refunds.Err = assert.AnError

		f.notifier.EXPECT().AlertOperator(gomock.Any(), commands.SeverityCritical, gomock.Any()).Return(nil)

		err := f.orchestrator.Run(ctx, id)
		assert.ErrorIs(t, err, commands.ErrRefundFailed)

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusSyncFailed, b.Status())
		require.NotNil(t, b.FailureReason())

		pay := f.payments.Get(*b.PaymentID())
		assert.Equal(t, payment.StatusSucceeded, pay.Status())
	})

	t.Run("confirmed booking is a no-op", func(t *testing.T) {
		f := newSagaFixture(t)
		id := f.seedCapturedBooking(t)
		_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
		require.NoError(t, err)
		_, err = f.bookings.Confirm(ctx, id, "HTL-1")
		require.NoError(t, err)

		require.NoError(t, f.orchestrator.Run(ctx, id))
		assert.Empty(t, f.gateway.Calls())
	})

	t.Run("booking already syncing reports sync in progress", func(t *testing.T) {
		f := newSagaFixture(t)
		id := f.seedCapturedBooking(t)
		_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
		require.NoError(t, err)

		err = f.orchestrator.Run(ctx, id)
		assert.ErrorIs(t, err, commands.ErrSyncInProgress)
		assert.Empty(t, f.gateway.Calls())
	})

	t.Run("stuck syncing past the watchdog window is reclaimed", func(t *testing.T) {
		f := newSagaFixture(t, succeedWith("HTL-2026-00044"))
		id := f.seedCapturedBooking(t)
		_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
		require.NoError(t, err)

		f.clk.Add(watchdogWindow + time.Minute)
		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.orchestrator.Run(ctx, id))
		assert.Equal(t, booking.StatusConfirmed, f.bookings.Get(id).Status())
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newSagaFixture(t)
		err := f.orchestrator.Run(ctx, uuid.New())
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)
	})

	t.Run("booking without a captured payment", func(t *testing.T) {
		f := newSagaFixture(t)
		b := builder.NewBookingBuilder().
			WithStatus(booking.StatusPaymentCompleted).
			BuildReconstructed()
		f.bookings.Seed(b)

		err := f.orchestrator.Run(ctx, b.ID())
		assert.ErrorIs(t, err, commands.ErrPaymentMissing)
	})

	t.Run("cancelled backoff leaves the booking syncing for the sweep", func(t *testing.T) {
		f := newSagaFixture(t, failWithStatus(500))
		id := f.seedCapturedBooking(t)
		f.sleeper.CancelAfter = 1

		err := f.orchestrator.Run(ctx, id)
		assert.ErrorIs(t, err, context.Canceled)

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusSyncing, b.Status())
		assert.Equal(t, 1, b.SyncAttempts())
		require.NotNil(t, b.NextRetryAt())
	})
}
