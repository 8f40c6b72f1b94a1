//go:build unit

package booking_test

import (
	"testing"
	"time"

	"staysync/internal/domain/booking"
	"staysync/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, booking.StatusPending, actual.Status())
		assert.False(t, actual.IsFulfilled())
		assert.Zero(t, actual.SyncAttempts())
		assert.Equal(t, 3, actual.Stay().Nights())
	})

	t.Run("check-in in the past is rejected", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		b := builder.NewBookingBuilder().
			WithNow(now).
			WithStay(now.AddDate(0, 0, -1), now.AddDate(0, 0, 2))

		_, err := b.BuildDomain()
		assert.ErrorIs(t, err, booking.ErrStayInPast)
	})

	t.Run("check-in on the current date is allowed", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
		b := builder.NewBookingBuilder().
			WithNow(now).
			WithStay(now, now.AddDate(0, 0, 1))

		_, err := b.BuildDomain()
		assert.NoError(t, err)
	})
}

func TestBookingLifecycle(t *testing.T) {
	paymentID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("happy path to confirmed", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)

		require.NoError(t, b.StartPayment())
		require.NoError(t, b.CompletePayment(paymentID))
		require.NoError(t, b.ClaimForSync(now))
		require.NotNil(t, b.SyncStartedAt())
		require.NoError(t, b.Confirm("HTL-2026-00042"))

		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.True(t, b.IsFulfilled())
		assert.Equal(t, "HTL-2026-00042", *b.ExternalReservationID())
	})

	t.Run("payment completed directly from pending", func(t *testing.T) {
		b, err := builder.NewBookingBuilder().BuildDomain()
		require.NoError(t, err)

		assert.NoError(t, b.CompletePayment(paymentID))
		assert.Equal(t, booking.StatusPaymentCompleted, b.Status())
	})

	t.Run("invalid transitions", func(t *testing.T) {
		cases := []struct {
			name  string
			from  booking.Status
			apply func(*booking.Booking) error
			errIs error
		}{
			{
				name:  "sync cannot start before payment",
				from:  booking.StatusPending,
				apply: func(b *booking.Booking) error { return b.ClaimForSync(now) },
				errIs: booking.ErrInvalidTransition,
			},
			{
				name:  "confirm requires syncing",
				from:  booking.StatusPaymentCompleted,
				apply: func(b *booking.Booking) error { return b.Confirm("HTL-1") },
				errIs: booking.ErrInvalidTransition,
			},
			{
				name:  "cancel after capture is not allowed",
				from:  booking.StatusPaymentCompleted,
				apply: func(b *booking.Booking) error { return b.Cancel("late") },
				errIs: booking.ErrInvalidTransition,
			},
			{
				name:  "terminal state rejects further transitions",
				from:  booking.StatusRefunded,
				apply: func(b *booking.Booking) error { return b.MarkSyncFailed("x") },
				errIs: booking.ErrAlreadyTerminal,
			},
			{
				name:  "cancelled booking cannot complete payment",
				from:  booking.StatusCancelled,
				apply: func(b *booking.Booking) error { return b.CompletePayment(paymentID) },
				errIs: booking.ErrAlreadyTerminal,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewBookingBuilder().WithStatus(tc.from).BuildReconstructed()
				assert.ErrorIs(t, tc.apply(b), tc.errIs)
			})
		}
	})

	t.Run("confirm is idempotent for the same reservation id", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsConfirmed(paymentID, "HTL-7").
			BuildReconstructed()

		assert.NoError(t, b.Confirm("HTL-7"))
		assert.ErrorIs(t, b.Confirm("HTL-8"), booking.ErrExternalIDAlreadySet)
	})

	t.Run("confirm requires a reservation id", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsSyncing(paymentID, now).
			BuildReconstructed()

		assert.ErrorIs(t, b.Confirm(""), booking.ErrExternalIDMissing)
	})

	t.Run("fulfilled booking cannot re-enter sync", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			WithStatus(booking.StatusPaymentCompleted).
			WithPaymentID(paymentID).
			WithExternalReservationID("HTL-9").
			BuildReconstructed()

		assert.ErrorIs(t, b.ClaimForSync(now), booking.ErrAlreadyFulfilled)
	})
}

func TestResetForRetry(t *testing.T) {
	paymentID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	watchdog := 10 * time.Minute

	t.Run("sync_failed resets to payment_completed", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsSyncFailed(paymentID, "pms down").
			WithSyncAttempts(5).
			BuildReconstructed()

		require.NoError(t, b.ResetForRetry(now, watchdog))
		assert.Equal(t, booking.StatusPaymentCompleted, b.Status())
		assert.Zero(t, b.SyncAttempts())
		assert.Nil(t, b.FailureReason())
		assert.Nil(t, b.NextRetryAt())
	})

	t.Run("syncing within the watchdog window is protected", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsSyncing(paymentID, now.Add(-time.Minute)).
			BuildReconstructed()

		assert.ErrorIs(t, b.ResetForRetry(now, watchdog), booking.ErrNotEligibleForRetry)
	})

	t.Run("syncing past the watchdog window resets", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsSyncing(paymentID, now.Add(-11*time.Minute)).
			BuildReconstructed()

		require.NoError(t, b.ResetForRetry(now, watchdog))
		assert.Equal(t, booking.StatusPaymentCompleted, b.Status())
		assert.Nil(t, b.SyncStartedAt())
	})

	t.Run("fulfilled booking is never retryable", func(t *testing.T) {
		b := builder.NewBookingBuilder().
			AsConfirmed(paymentID, "HTL-1").
			BuildReconstructed()

		assert.ErrorIs(t, b.ResetForRetry(now, watchdog), booking.ErrAlreadyFulfilled)
	})

	t.Run("states outside the failure paths are not retryable", func(t *testing.T) {
		for _, status := range []booking.Status{
			booking.StatusPending,
			booking.StatusPaymentProcessing,
			booking.StatusPaymentCompleted,
			booking.StatusCancelled,
			booking.StatusRefunded,
		} {
			b := builder.NewBookingBuilder().WithStatus(status).BuildReconstructed()
			assert.ErrorIs(t, b.ResetForRetry(now, watchdog), booking.ErrNotEligibleForRetry, string(status))
		}
	})
}

func TestIsStuckSyncing(t *testing.T) {
	paymentID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	watchdog := 10 * time.Minute

	cases := []struct {
		name     string
		build    func() *booking.Booking
		expected bool
	}{
		{
			name: "fresh syncing is not stuck",
			build: func() *booking.Booking {
				return builder.NewBookingBuilder().AsSyncing(paymentID, now.Add(-time.Minute)).BuildReconstructed()
			},
			expected: false,
		},
		{
			name: "syncing exactly at the window boundary is stuck",
			build: func() *booking.Booking {
				return builder.NewBookingBuilder().AsSyncing(paymentID, now.Add(-watchdog)).BuildReconstructed()
			},
			expected: true,
		},
		{
			name: "non-syncing status is never stuck",
			build: func() *booking.Booking {
				return builder.NewBookingBuilder().WithStatus(booking.StatusPaymentCompleted).BuildReconstructed()
			},
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.build().IsStuckSyncing(now, watchdog))
		})
	}
}
