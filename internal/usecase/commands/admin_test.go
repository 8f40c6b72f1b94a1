//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/usecase/commands"
	"staysync/tests/common/builder"
	"staysync/tests/common/fakes"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAdminFixture(t *testing.T, script ...fakes.CreateOutcome) (*sagaFixture, commands.AdminCommands) {
	t.Helper()
	f := newSagaFixture(t, script...)
	uc := commands.NewAdminUseCase(f.bookings, f.orchestrator, f.clk, watchdogWindow)
	return f, uc
}

// seedSyncFailed stores a SYNC_FAILED booking with its captured payment.
func seedSyncFailed(t *testing.T, f *sagaFixture) uuid.UUID {
	t.Helper()
	id := f.seedCapturedBooking(t)
	ctx := context.Background()
	_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
	require.NoError(t, err)
	_, err = f.bookings.MarkSyncFailed(ctx, id, "pms down")
	require.NoError(t, err)
	return id
}

func TestRetryBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("sync_failed booking is reset and re-driven to confirmed", func(t *testing.T) {
		f, uc := newAdminFixture(t, succeedWith("HTL-2026-00060"))
		id := seedSyncFailed(t, f)

		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, uc.RetryBooking(ctx, id))

		b := f.bookings.Get(id)
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Nil(t, b.FailureReason())
	})

	t.Run("terminal bookings are not retryable", func(t *testing.T) {
		for _, status := range []booking.Status{
			booking.StatusConfirmed,
			booking.StatusRefunded,
			booking.StatusCancelled,
		} {
			f, uc := newAdminFixture(t)
			b := builder.NewBookingBuilder().WithStatus(status).BuildReconstructed()
			f.bookings.Seed(b)

			err := uc.RetryBooking(ctx, b.ID())
			assert.ErrorIs(t, err, commands.ErrNotRetryable, string(status))
		}
	})

	t.Run("syncing within the watchdog window is not retryable", func(t *testing.T) {
		f, uc := newAdminFixture(t)
		id := f.seedCapturedBooking(t)
		_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
		require.NoError(t, err)

		assert.ErrorIs(t, uc.RetryBooking(ctx, id), commands.ErrNotRetryable)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, uc := newAdminFixture(t)
		assert.ErrorIs(t, uc.RetryBooking(ctx, uuid.New()), commands.ErrBookingNotFound)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers payment_completed leftovers", func(t *testing.T) {
		f, uc := newAdminFixture(t, succeedWith("HTL-2026-00061"))
		id := f.seedCapturedBooking(t)

		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		report, err := uc.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Scanned)
		assert.Equal(t, 1, report.Recovered)
		assert.Zero(t, report.Failed)

		assert.Equal(t, booking.StatusConfirmed, f.bookings.Get(id).Status())
	})

	t.Run("recovers syncing rows abandoned past the watchdog window", func(t *testing.T) {
		f, uc := newAdminFixture(t, succeedWith("HTL-2026-00062"))
		id := f.seedCapturedBooking(t)
		_, err := f.bookings.ClaimForSync(ctx, id, f.clk.Now())
		require.NoError(t, err)
		f.clk.Add(watchdogWindow + time.Minute)

		f.notifier.EXPECT().NotifyGuestConfirmed(gomock.Any(), gomock.Any()).Return(nil)

		report, err := uc.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Recovered)
		assert.Equal(t, booking.StatusConfirmed, f.bookings.Get(id).Status())
	})

	t.Run("ignores settled bookings", func(t *testing.T) {
		f, uc := newAdminFixture(t)
		b := builder.NewBookingBuilder().
			AsConfirmed(uuid.New(), "HTL-1").
			BuildReconstructed()
		f.bookings.Seed(b)

		report, err := uc.Reconcile(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Scanned)
	})
}
