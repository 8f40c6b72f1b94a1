package commands

import (
	"context"
	"log/slog"

	"staysync/internal/infra/paygate"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrRefundFailed = errs.New("refund failed")

type Compensator interface {
	// Compensate undoes a captured payment whose reservation could not be
	// confirmed: full refund, REFUNDED statuses, guest apology, operator
	// alert. If the refund itself fails the booking stays SYNC_FAILED and the
	// alert escalates to CRITICAL, since neither the room nor the money can
	// self-heal from here.
	Compensate(ctx context.Context, bookingID uuid.UUID, failureDetail string) error
}

type compensatorImpl struct {
	bookings BookingRepository
	payments PaymentRepository
	refunds  RefundGateway
	notifier Notifier
}

func NewCompensator(
	bookings BookingRepository,
	payments PaymentRepository,
	refunds RefundGateway,
	notifier Notifier,
) Compensator {
	return &compensatorImpl{
		bookings: bookings,
		payments: payments,
		refunds:  refunds,
		notifier: notifier,
	}
}

func (c *compensatorImpl) Compensate(ctx context.Context, bookingID uuid.UUID, failureDetail string) error {
	b, err := c.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return errs.Mark(err, ErrBookingNotFound)
	}
	if b.Status().IsTerminal() {
		slog.Info("compensation skipped: booking already terminal",
			"booking_id", bookingID, "status", b.Status().String())
		return nil
	}
	if b.PaymentID() == nil {
		return ErrPaymentMissing
	}

	pay, err := c.payments.FindByID(ctx, *b.PaymentID())
	if err != nil {
		return errs.Mark(err, ErrPaymentMissing)
	}

	note := "booking " + bookingID.String() + ": " + failureDetail
	if refundErr := c.refunds.Refund(ctx, pay.IntentID(), paygate.RefundReasonPMSFailed, note); refundErr != nil {
		return c.escalateRefundFailure(ctx, bookingID, failureDetail, refundErr)
	}

	if err := c.payments.MarkRefunded(ctx, pay.ID(), paygate.RefundReasonPMSFailed); err != nil {
		return err
	}
	if _, err := c.bookings.MarkRefunded(ctx, bookingID); err != nil {
		return err
	}

	refundNote := GuestRefund{
		BookingID:  bookingID,
		GuestEmail: b.Guest().Email(),
		Amount:     pay.Amount(),
		Currency:   pay.Currency(),
	}
	if notifyErr := c.notifier.NotifyGuestRefunded(ctx, refundNote); notifyErr != nil {
		slog.Error("failed to send guest refund notification", "booking_id", bookingID, "error", notifyErr.Error())
	}

	alert := OperatorAlert{
		BookingID: bookingID,
		Reason:    "pms confirmation failed, guest refunded",
		Detail:    failureDetail,
	}
	if alertErr := c.notifier.AlertOperator(ctx, SeverityHigh, alert); alertErr != nil {
		slog.Error("failed to alert operators", "booking_id", bookingID, "error", alertErr.Error())
	}

	slog.Info("booking compensated with full refund",
		"booking_id", bookingID, "payment_intent_id", pay.IntentID())
	return nil
}

// escalateRefundFailure handles the one failure mode that cannot self-heal:
// money captured, no reservation, and no refund. The booking stays
// SYNC_FAILED (not REFUNDED, since money was not actually returned) and a
// CRITICAL alert surfaces it for human intervention.
func (c *compensatorImpl) escalateRefundFailure(ctx context.Context, bookingID uuid.UUID, failureDetail string, refundErr error) error {
	if _, err := c.bookings.MarkSyncFailed(ctx, bookingID, failureDetail); err != nil {
		slog.Error("failed to mark booking sync_failed after refund failure",
			"booking_id", bookingID, "error", err.Error())
	}

	alert := OperatorAlert{
		BookingID: bookingID,
		Reason:    "refund failed after pms confirmation failure, manual intervention required",
		Detail:    failureDetail + "; refund error: " + refundErr.Error(),
	}
	if alertErr := c.notifier.AlertOperator(ctx, SeverityCritical, alert); alertErr != nil {
		slog.Error("failed to send critical operator alert", "booking_id", bookingID, "error", alertErr.Error())
	}

	return errs.Mark(refundErr, ErrRefundFailed)
}
