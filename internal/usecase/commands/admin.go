package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysync/internal/pkg/clock"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrNotRetryable = errs.New("booking cannot be retried")

// reconcileBatchLimit bounds one sweep so a backlog cannot flood the PMS.
const reconcileBatchLimit = 100

type ReconcileReport struct {
	Scanned   int
	Recovered int
	Deferred  int
	Failed    int
}

type AdminCommands interface {
	// RetryBooking resets a SYNC_FAILED or stuck-SYNCING booking to
	// PAYMENT_COMPLETED and re-runs the saga. Refuses bookings that are
	// already CONFIRMED, REFUNDED, or CANCELLED.
	RetryBooking(ctx context.Context, bookingID uuid.UUID) error
	// Reconcile finds bookings whose payment was captured but which never
	// reached a terminal state and re-invokes the orchestrator for each,
	// sequentially.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

type adminUseCaseImpl struct {
	bookings     BookingRepository
	orchestrator SyncOrchestrator
	clock        clock.Clock
	watchdog     time.Duration
}

func NewAdminUseCase(
	bookings BookingRepository,
	orchestrator SyncOrchestrator,
	clk clock.Clock,
	watchdog time.Duration,
) AdminCommands {
	return &adminUseCaseImpl{
		bookings:     bookings,
		orchestrator: orchestrator,
		clock:        clk,
		watchdog:     watchdog,
	}
}

func (a *adminUseCaseImpl) RetryBooking(ctx context.Context, bookingID uuid.UUID) error {
	b, err := a.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return errs.Mark(err, ErrBookingNotFound)
	}
	if b.Status().IsTerminal() || b.IsFulfilled() {
		return ErrNotRetryable
	}

	reset, err := a.bookings.ResetForRetry(ctx, bookingID, a.clock.Now(), a.watchdog)
	if err != nil {
		return err
	}
	if !reset {
		return ErrNotRetryable
	}

	slog.Info("manual retry triggered", "booking_id", bookingID)
	return a.orchestrator.Run(ctx, bookingID)
}

func (a *adminUseCaseImpl) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	ids, err := a.bookings.FindNeedingSync(ctx, a.clock.Now(), a.watchdog, reconcileBatchLimit)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		runErr := a.orchestrator.Run(ctx, id)
		switch {
		case runErr == nil:
			report.Recovered++
		case errors.Is(runErr, ErrSyncInProgress):
			report.Deferred++
		default:
			report.Failed++
			slog.Error("reconciliation run failed", "booking_id", id, "error", runErr.Error())
		}
	}

	if report.Scanned > 0 {
		slog.Info("reconciliation sweep finished",
			"scanned", report.Scanned,
			"recovered", report.Recovered,
			"deferred", report.Deferred,
			"failed", report.Failed)
	}
	return report, nil
}
