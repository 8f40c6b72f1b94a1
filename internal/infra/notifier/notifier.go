package notifier

import (
	"context"
	"log/slog"

	"staysync/internal/usecase/commands"
)

// SlogNotifier fulfills the Notifier port by writing structured log entries.
// Real delivery channels (email, ops paging) hang off these records downstream;
// the saga itself never formats guest-facing copy.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) NotifyGuestConfirmed(_ context.Context, note commands.GuestConfirmation) error {
	n.logger.Info("guest confirmation notification",
		"booking_id", note.BookingID,
		"guest_email", note.GuestEmail,
		"reservation_ref", note.ExternalReservationID,
	)
	return nil
}

func (n *SlogNotifier) NotifyGuestRefunded(_ context.Context, note commands.GuestRefund) error {
	n.logger.Info("guest refund notification",
		"booking_id", note.BookingID,
		"guest_email", note.GuestEmail,
		"amount", note.Amount,
		"currency", note.Currency,
	)
	return nil
}

func (n *SlogNotifier) AlertOperator(_ context.Context, severity commands.AlertSeverity, details commands.OperatorAlert) error {
	level := slog.LevelWarn
	if severity == commands.SeverityCritical {
		level = slog.LevelError
	}
	n.logger.Log(context.Background(), level, "operator alert",
		"severity", string(severity),
		"booking_id", details.BookingID,
		"reason", details.Reason,
		"detail", details.Detail,
	)
	return nil
}
