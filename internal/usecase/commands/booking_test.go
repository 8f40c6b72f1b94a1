//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/infra/pms"
	"staysync/internal/pkg/clock"
	"staysync/internal/usecase/commands"
	"staysync/tests/common/builder"
	"staysync/tests/common/fakes"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createFixture struct {
	bookings    *fakes.BookingRepository
	idempotency *fakes.IdempotencyRepository
	gateway     *fakes.PMSGateway
	uc          commands.BookingCommands
}

func newCreateFixture(nightlyRates ...int64) *createFixture {
	f := &createFixture{
		bookings:    fakes.NewBookingRepository(),
		idempotency: fakes.NewIdempotencyRepository(),
		gateway:     fakes.NewPMSGateway(),
	}

	base := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	cal := &pms.RateCalendar{Currency: "JPY"}
	for i, amount := range nightlyRates {
		cal.Nights = append(cal.Nights, pms.NightRate{Date: base.AddDate(0, 0, i), Amount: amount})
	}
	f.gateway.Calendar = cal

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	verifier := commands.NewPriceVerifier(f.gateway)
	f.uc = commands.NewBookingUseCase(f.bookings, f.idempotency, verifier, clk)
	return f
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending booking when the total matches", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		params := builder.NewBookingBuilder().WithTotal(15000, "JPY").BuildParams()

		result, err := f.uc.CreateBooking(ctx, params, uuid.New())
		require.NoError(t, err)
		assert.False(t, result.IsReplayed)

		stored := f.bookings.Get(result.BookingID)
		require.NotNil(t, stored)
		assert.Equal(t, booking.StatusPending, stored.Status())
		assert.Equal(t, int64(15000), stored.Total().Amount())
	})

	t.Run("tampered total is rejected", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		params := builder.NewBookingBuilder().WithTotal(9000, "JPY").BuildParams()

		_, err := f.uc.CreateBooking(ctx, params, uuid.New())
		assert.ErrorIs(t, err, commands.ErrPriceMismatch)
	})

	t.Run("currency mismatch is a price mismatch", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		params := builder.NewBookingBuilder().WithTotal(15000, "USD").BuildParams()

		_, err := f.uc.CreateBooking(ctx, params, uuid.New())
		assert.ErrorIs(t, err, commands.ErrPriceMismatch)
	})

	t.Run("rate calendar shorter than the stay is unavailable", func(t *testing.T) {
		f := newCreateFixture(5000, 5000)
		params := builder.NewBookingBuilder().WithTotal(10000, "JPY").BuildParams()

		_, err := f.uc.CreateBooking(ctx, params, uuid.New())
		assert.ErrorIs(t, err, commands.ErrRateUnavailable)
	})

	t.Run("rate calendar error propagates as unavailable", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		f.gateway.RatesErr = pms.NewError(503, "", "", nil)
		params := builder.NewBookingBuilder().BuildParams()

		_, err := f.uc.CreateBooking(ctx, params, uuid.New())
		assert.ErrorIs(t, err, commands.ErrRateUnavailable)
	})

	t.Run("identical request replays the original result", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		params := builder.NewBookingBuilder().WithTotal(15000, "JPY").BuildParams()
		key := uuid.New()

		first, err := f.uc.CreateBooking(ctx, params, key)
		require.NoError(t, err)

		second, err := f.uc.CreateBooking(ctx, params, key)
		require.NoError(t, err)
		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.BookingID, second.BookingID)
	})

	t.Run("key reuse with different parameters is rejected", func(t *testing.T) {
		f := newCreateFixture(5000, 5000, 5000)
		key := uuid.New()

		_, err := f.uc.CreateBooking(ctx, builder.NewBookingBuilder().WithTotal(15000, "JPY").BuildParams(), key)
		require.NoError(t, err)

		other := builder.NewBookingBuilder().WithTotal(15000, "JPY").BuildParams()
		other.GuestName = "Somebody Else"
		_, err = f.uc.CreateBooking(ctx, other, key)
		assert.ErrorIs(t, err, commands.ErrDuplicateRequest)
	})

	t.Run("invalid stay is rejected before any gateway call", func(t *testing.T) {
		f := newCreateFixture(5000)
		params := builder.NewBookingBuilder().BuildParams()
		params.CheckOut = params.CheckIn

		_, err := f.uc.CreateBooking(ctx, params, uuid.New())
		assert.ErrorIs(t, err, commands.ErrInvalidStay)
		assert.Zero(t, f.gateway.RateCalls())
	})
}
