package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/domain/payment"
	"staysync/internal/infra"
	"staysync/internal/pkg/clock"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrUnknownEventType = errs.New("unknown payment event type")
	ErrEventInvalid     = errs.New("payment event payload invalid")
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is the verified, decoded webhook payload. Amount and currency
// are what the gateway says it captured, not what the client claimed.
type PaymentEvent struct {
	Type              string
	PaymentIntentID   string
	CheckoutSessionID *string
	Amount            int64
	Currency          string
	BookingID         uuid.UUID
	FailureReason     string
	OccurredAt        time.Time
}

//go:generate mockgen -source=webhook.go -destination=../../../tests/mock/commands/webhook_mock.go -package=commandsmock WebhookCommands
type WebhookCommands interface {
	// HandleEvent ingests one payment event. Deliveries are at-least-once;
	// duplicates are absorbed as no-ops. For a capture, the orchestrator is
	// invoked synchronously because the hosting runtime may terminate once
	// the HTTP response is sent.
	HandleEvent(ctx context.Context, ev PaymentEvent) error
}

type webhookUseCaseImpl struct {
	bookings     BookingRepository
	payments     PaymentRepository
	orchestrator SyncOrchestrator
	clock        clock.Clock
}

func NewWebhookUseCase(
	bookings BookingRepository,
	payments PaymentRepository,
	orchestrator SyncOrchestrator,
	clk clock.Clock,
) WebhookCommands {
	return &webhookUseCaseImpl{
		bookings:     bookings,
		payments:     payments,
		orchestrator: orchestrator,
		clock:        clk,
	}
}

func (w *webhookUseCaseImpl) HandleEvent(ctx context.Context, ev PaymentEvent) error {
	if ev.PaymentIntentID == "" || ev.BookingID == uuid.Nil {
		return ErrEventInvalid
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		return w.handleSucceeded(ctx, ev)
	case EventPaymentFailed:
		return w.handleFailed(ctx, ev)
	default:
		return ErrUnknownEventType
	}
}

func (w *webhookUseCaseImpl) handleSucceeded(ctx context.Context, ev PaymentEvent) error {
	pay, err := w.recordCapture(ctx, ev)
	if err != nil {
		return err
	}
	if pay == nil {
		// Duplicate delivery of an already-settled capture.
		return nil
	}

	b, err := w.bookings.FindByID(ctx, ev.BookingID)
	if err != nil {
		return errs.Mark(err, ErrBookingNotFound)
	}

	switch b.Status() {
	case booking.StatusConfirmed, booking.StatusRefunded, booking.StatusSyncFailed:
		// Saga already ran for this payment; no re-entrant compensation.
		slog.Info("webhook skipped: booking already settled",
			"booking_id", ev.BookingID, "status", b.Status().String())
		return nil
	case booking.StatusPending, booking.StatusPaymentProcessing:
		moved, trErr := w.bookings.CompletePayment(ctx, ev.BookingID, pay.ID())
		if trErr != nil {
			return trErr
		}
		if !moved {
			slog.Info("webhook lost payment-completed race, continuing to sync", "booking_id", ev.BookingID)
		}
	case booking.StatusPaymentCompleted, booking.StatusSyncing:
		// A previous run died before finishing; fall through and re-drive.
	default:
		slog.Info("webhook skipped: booking not in a payable state",
			"booking_id", ev.BookingID, "status", b.Status().String())
		return nil
	}

	if runErr := w.orchestrator.Run(ctx, ev.BookingID); runErr != nil {
		if errors.Is(runErr, ErrSyncInProgress) {
			slog.Info("webhook sync deferred: another invocation holds the lock", "booking_id", ev.BookingID)
			return nil
		}
		return runErr
	}
	return nil
}

// recordCapture creates or settles the Payment row for the event. Returns nil
// when the intent id was already recorded as SUCCEEDED (at-least-once dedup).
func (w *webhookUseCaseImpl) recordCapture(ctx context.Context, ev PaymentEvent) (*payment.Payment, error) {
	existing, err := w.payments.FindByIntentID(ctx, ev.PaymentIntentID)
	if err == nil {
		if existing.Status() == payment.StatusSucceeded {
			slog.Info("duplicate payment webhook absorbed",
				"payment_intent_id", ev.PaymentIntentID, "booking_id", ev.BookingID)
			return nil, nil
		}
		if markErr := w.payments.MarkSucceeded(ctx, existing.ID(), ev.Amount, ev.Currency, ev.OccurredAt); markErr != nil {
			return nil, markErr
		}
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	pay, err := payment.NewPayment(ev.BookingID, ev.PaymentIntentID, ev.CheckoutSessionID, ev.Amount, ev.Currency, w.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrEventInvalid)
	}
	if err := pay.MarkSucceeded(ev.Amount, ev.Currency, ev.OccurredAt); err != nil {
		return nil, err
	}
	if err := w.payments.Create(ctx, pay); err != nil {
		return nil, err
	}
	return pay, nil
}

func (w *webhookUseCaseImpl) handleFailed(ctx context.Context, ev PaymentEvent) error {
	existing, err := w.payments.FindByIntentID(ctx, ev.PaymentIntentID)
	if err == nil && existing.Status() != payment.StatusPending {
		slog.Info("duplicate payment-failed webhook absorbed", "payment_intent_id", ev.PaymentIntentID)
		return nil
	}
	if err != nil && !isNotFound(err) {
		return err
	}

	if existing == nil {
		pay, newErr := payment.NewPayment(ev.BookingID, ev.PaymentIntentID, ev.CheckoutSessionID, ev.Amount, ev.Currency, w.clock.Now())
		if newErr != nil {
			return errs.Mark(newErr, ErrEventInvalid)
		}
		if failErr := pay.MarkFailed(); failErr != nil {
			return failErr
		}
		if createErr := w.payments.Create(ctx, pay); createErr != nil {
			return createErr
		}
	}

	reason := ev.FailureReason
	if reason == "" {
		reason = "payment capture failed"
	}

	// Nothing was captured, so cancellation needs no compensation.
	cancelled, err := w.bookings.Cancel(ctx, ev.BookingID, reason)
	if err != nil {
		return err
	}
	if !cancelled {
		slog.Info("payment-failed webhook: booking not cancellable",
			"booking_id", ev.BookingID)
	}
	return nil
}

func isNotFound(err error) bool {
	return infra.IsKind(err, infra.KindNotFound)
}
