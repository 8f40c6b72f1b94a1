package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/domain/payment"
	"staysync/internal/domain/synclog"
	"staysync/internal/infra/pms"
	"staysync/internal/pkg/clock"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	// ErrSyncInProgress means another invocation holds the SYNCING soft lock
	// within the watchdog window; the caller should back off, not race.
	ErrSyncInProgress = errs.New("sync already in progress")
	ErrPaymentMissing = errs.New("booking has no captured payment")
)

type SyncOrchestrator interface {
	// Run drives the booking from PAYMENT_COMPLETED to CONFIRMED or to a
	// compensated failure. Safe to call repeatedly for the same booking at
	// any time.
	Run(ctx context.Context, bookingID uuid.UUID) error
}

type syncOrchestratorImpl struct {
	bookings    BookingRepository
	payments    PaymentRepository
	syncLog     SyncLogRepository
	gateway     PMSGateway
	compensator Compensator
	notifier    Notifier
	clock       clock.Clock
	sleeper     clock.Sleeper
	retryDelays []time.Duration
	watchdog    time.Duration
}

func NewSyncOrchestrator(
	bookings BookingRepository,
	payments PaymentRepository,
	syncLog SyncLogRepository,
	gateway PMSGateway,
	compensator Compensator,
	notifier Notifier,
	clk clock.Clock,
	sleeper clock.Sleeper,
	retryDelays []time.Duration,
	watchdog time.Duration,
) SyncOrchestrator {
	return &syncOrchestratorImpl{
		bookings:    bookings,
		payments:    payments,
		syncLog:     syncLog,
		gateway:     gateway,
		compensator: compensator,
		notifier:    notifier,
		clock:       clk,
		sleeper:     sleeper,
		retryDelays: retryDelays,
		watchdog:    watchdog,
	}
}

func (o *syncOrchestratorImpl) Run(ctx context.Context, bookingID uuid.UUID) error {
	b, err := o.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return errs.Mark(err, ErrBookingNotFound)
	}

	// Idempotency barrier: a fulfilled or terminal booking is a logged no-op.
	if b.IsFulfilled() || b.Status().IsTerminal() {
		slog.Info("sync skipped: booking already fulfilled or terminal",
			"booking_id", bookingID, "status", b.Status().String())
		return nil
	}

	if b.Status() == booking.StatusSyncing {
		if !b.IsStuckSyncing(o.clock.Now(), o.watchdog) {
			return ErrSyncInProgress
		}
		// Stale soft lock: a previous run died mid-flow. Reset and re-claim.
		reset, resetErr := o.bookings.ResetForRetry(ctx, bookingID, o.clock.Now(), o.watchdog)
		if resetErr != nil {
			return resetErr
		}
		if !reset {
			return ErrSyncInProgress
		}
		slog.Warn("reclaimed booking stuck in syncing past watchdog window", "booking_id", bookingID)
	}

	claimed, err := o.bookings.ClaimForSync(ctx, bookingID, o.clock.Now())
	if err != nil {
		return err
	}
	if !claimed {
		// Lost the race or the state moved under us; re-read to tell which.
		current, findErr := o.bookings.FindByID(ctx, bookingID)
		if findErr != nil {
			return findErr
		}
		if current.IsFulfilled() || current.Status().IsTerminal() {
			slog.Info("sync skipped: booking reached terminal state concurrently",
				"booking_id", bookingID, "status", current.Status().String())
			return nil
		}
		return ErrSyncInProgress
	}

	pay, err := o.capturedPayment(ctx, b)
	if err != nil {
		return err
	}

	return o.attemptLoop(ctx, b, pay)
}

func (o *syncOrchestratorImpl) capturedPayment(ctx context.Context, b *booking.Booking) (*payment.Payment, error) {
	if b.PaymentID() == nil {
		return nil, ErrPaymentMissing
	}
	pay, err := o.payments.FindByID(ctx, *b.PaymentID())
	if err != nil {
		return nil, errs.Mark(err, ErrPaymentMissing)
	}
	return pay, nil
}

// attemptLoop runs the bounded retry schedule. Each attempt is recorded
// before the call and finalized after, so a crash can never leave SYNCING
// without an audit trail entry. The ordinal and next-eligible time are
// persisted on the booking row so a sweep can resume after a restart.
func (o *syncOrchestratorImpl) attemptLoop(ctx context.Context, b *booking.Booking, pay *payment.Payment) error {
	maxAttempts := len(o.retryDelays)
	ordinal := b.SyncAttempts()

	for {
		ordinal++
		attempt := synclog.NewAttempt(b.ID(), ordinal, o.clock.Now())
		if err := o.syncLog.Append(ctx, attempt); err != nil {
			return err
		}

		created, callErr := o.gateway.CreateReservation(ctx, o.buildRequest(b, pay))
		if callErr == nil {
			return o.finishConfirmed(ctx, b, attempt, ordinal, created)
		}

		transient := pms.IsTransient(callErr)
		willRetry := transient && ordinal < maxAttempts

		detail := callErr.Error()
		if finErr := o.syncLog.Finalize(ctx, attempt.ID, failureOutcome(willRetry), &detail, rawResponseOf(callErr)); finErr != nil {
			return finErr
		}

		if !willRetry {
			if recErr := o.bookings.RecordRetryState(ctx, b.ID(), ordinal, nil); recErr != nil {
				return recErr
			}
			if !transient {
				slog.Warn("pms rejected reservation permanently, compensating without burning retry budget",
					"booking_id", b.ID(), "attempt", ordinal, "error", detail)
			} else {
				slog.Warn("pms retry budget exhausted, compensating",
					"booking_id", b.ID(), "attempts", ordinal, "error", detail)
			}
			return o.compensator.Compensate(ctx, b.ID(), detail)
		}

		delay := o.retryDelays[ordinal-1]
		nextAt := o.clock.Now().Add(delay)
		if recErr := o.bookings.RecordRetryState(ctx, b.ID(), ordinal, &nextAt); recErr != nil {
			return recErr
		}

		slog.Info("pms call failed, backing off before retry",
			"booking_id", b.ID(), "attempt", ordinal, "delay", delay, "error", detail)

		if sleepErr := o.sleeper.Sleep(ctx, delay); sleepErr != nil {
			// Cancelled mid-backoff. The booking stays SYNCING with its retry
			// state persisted; the sweep picks it up past the watchdog window.
			return sleepErr
		}
	}
}

func (o *syncOrchestratorImpl) finishConfirmed(ctx context.Context, b *booking.Booking, attempt *synclog.Attempt, ordinal int, created *pms.ReservationCreated) error {
	if err := o.syncLog.Finalize(ctx, attempt.ID, synclog.OutcomeSuccess, nil, created.Raw); err != nil {
		return err
	}
	if err := o.bookings.RecordRetryState(ctx, b.ID(), ordinal, nil); err != nil {
		return err
	}

	confirmed, err := o.bookings.Confirm(ctx, b.ID(), created.ReservationID)
	if err != nil {
		return err
	}
	if !confirmed {
		// Another invocation confirmed first; the correlation fields let an
		// operator spot the duplicate external create in the PMS.
		slog.Warn("booking was confirmed concurrently, duplicate pms reservation possible",
			"booking_id", b.ID(), "reservation_id", created.ReservationID)
		return nil
	}

	note := GuestConfirmation{
		BookingID:             b.ID(),
		GuestEmail:            b.Guest().Email(),
		ExternalReservationID: created.ReservationID,
	}
	if notifyErr := o.notifier.NotifyGuestConfirmed(ctx, note); notifyErr != nil {
		slog.Error("failed to send guest confirmation", "booking_id", b.ID(), "error", notifyErr.Error())
	}

	slog.Info("booking confirmed in pms",
		"booking_id", b.ID(), "reservation_id", created.ReservationID, "attempts", ordinal)
	return nil
}

func (o *syncOrchestratorImpl) buildRequest(b *booking.Booking, pay *payment.Payment) pms.CreateReservationRequest {
	return pms.CreateReservationRequest{
		RoomID:     b.RoomID(),
		PropertyID: b.PropertyID(),
		Arrival:    b.Stay().CheckIn(),
		Departure:  b.Stay().CheckOut(),
		GuestName:  b.Guest().Name(),
		GuestEmail: b.Guest().Email(),
		Adults:     b.Occupancy().Adults(),
		Children:   b.Occupancy().Children(),
		Total:      b.Total().Amount(),
		Currency:   b.Total().Currency(),
		BookingRef: b.ID().String(),
		PaymentRef: pay.IntentID(),
	}
}

func failureOutcome(willRetry bool) synclog.Outcome {
	if willRetry {
		return synclog.OutcomeRetrying
	}
	return synclog.OutcomeFailed
}

func rawResponseOf(err error) []byte {
	var pmsErr *pms.Error
	if errors.As(err, &pmsErr) {
		return pmsErr.Raw
	}
	return nil
}
