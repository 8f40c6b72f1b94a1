package commands

import (
	"context"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/domain/payment"
	"staysync/internal/domain/synclog"
	"staysync/internal/infra/pms"

	"github.com/google/uuid"
)

// BookingRepository is the single source of truth for saga progress. Every
// state transition is a single-row conditional update ("only transition if
// current status is X"); the boolean result reports whether this caller won
// the transition, which is what makes concurrent webhook and admin
// invocations safe without a cross-process lock.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)

	StartPayment(ctx context.Context, id uuid.UUID) (bool, error)
	CompletePayment(ctx context.Context, id, paymentID uuid.UUID) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// ClaimForSync succeeds only from PAYMENT_COMPLETED with no external
	// reservation id; it is the saga's soft lock.
	ClaimForSync(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// Confirm sets the external reservation id exactly once.
	Confirm(ctx context.Context, id uuid.UUID, externalReservationID string) (bool, error)
	MarkSyncFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)

	// RecordRetryState persists the current ordinal and next-eligible time so
	// the schedule survives process restarts.
	RecordRetryState(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time) error
	// ResetForRetry is the administrative backward edge to PAYMENT_COMPLETED.
	ResetForRetry(ctx context.Context, id uuid.UUID, now time.Time, watchdogWindow time.Duration) (bool, error)

	// FindNeedingSync returns bookings with captured payments that never
	// reached a terminal state: PAYMENT_COMPLETED leftovers and SYNCING rows
	// older than the watchdog window.
	FindNeedingSync(ctx context.Context, now time.Time, watchdogWindow time.Duration, limit int) ([]uuid.UUID, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	// FindByIntentID looks up by the gateway payment-intent id, the natural
	// idempotency key for webhook deliveries.
	FindByIntentID(ctx context.Context, intentID string) (*payment.Payment, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, amount int64, currency string, capturedAt time.Time) error
	MarkRefunded(ctx context.Context, id uuid.UUID, reason string) error
}

type SyncLogRepository interface {
	Append(ctx context.Context, attempt *synclog.Attempt) error
	Finalize(ctx context.Context, attemptID uuid.UUID, outcome synclog.Outcome, errDetail *string, rawResponse []byte) error
}

type PMSGateway interface {
	CreateReservation(ctx context.Context, req pms.CreateReservationRequest) (*pms.ReservationCreated, error)
	GetRateCalendar(ctx context.Context, propertyID, roomID uuid.UUID, from, to time.Time) (*pms.RateCalendar, error)
}

type RefundGateway interface {
	Refund(ctx context.Context, paymentIntentID, reason, note string) error
}

type AlertSeverity string

const (
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

type GuestConfirmation struct {
	BookingID             uuid.UUID
	GuestEmail            string
	ExternalReservationID string
}

type GuestRefund struct {
	BookingID  uuid.UUID
	GuestEmail string
	Amount     int64
	Currency   string
}

type OperatorAlert struct {
	BookingID uuid.UUID
	Reason    string
	Detail    string
}

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/notifier_mock.go -package=commandsmock -mock_names=Notifier=MockNotifier Notifier

// Notifier is the abstract messaging port; the saga depends only on this so
// tests can run silent.
type Notifier interface {
	NotifyGuestConfirmed(ctx context.Context, note GuestConfirmation) error
	NotifyGuestRefunded(ctx context.Context, note GuestRefund) error
	AlertOperator(ctx context.Context, severity AlertSeverity, details OperatorAlert) error
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	Endpoint        string
	RequestHash     string
	Status          string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

type IdempotencyRepository interface {
	// TryInsert claims the key; false means another request holds or held it.
	TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key, resultBookingID uuid.UUID) error
}
