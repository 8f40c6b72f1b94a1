package booking

import (
	"errors"
	"time"

	"staysync/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrAlreadyTerminal       = errors.New("booking is in a terminal state")
	ErrAlreadyFulfilled      = errors.New("booking already has an external reservation")
	ErrExternalIDAlreadySet  = errors.New("external reservation id is already set")
	ErrStayInPast            = errors.New("check-in date cannot be in the past")
	ErrNotEligibleForRetry   = errors.New("booking is not eligible for retry")
	ErrExternalIDMissing     = errors.New("external reservation id is required to confirm")
)

type Booking struct {
	id            uuid.UUID
	roomID        uuid.UUID
	propertyID    uuid.UUID
	stay          StayPeriod
	occupancy     Occupancy
	guest         Guest
	total         Money
	status        Status
	externalResID *string
	failureReason *string
	paymentID     *uuid.UUID
	syncAttempts  int
	nextRetryAt   *time.Time
	syncStartedAt *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

type Services struct {
	Clock clock.Clock
}

func NewBooking(
	services *Services,
	roomID, propertyID uuid.UUID,
	stay StayPeriod,
	occupancy Occupancy,
	guest Guest,
	total Money,
) (*Booking, error) {
	today := truncateToDate(services.Clock.Now())
	if stay.CheckIn().Before(today) {
		return nil, ErrStayInPast
	}

	now := services.Clock.Now()
	return &Booking{
		id:         uuid.New(),
		roomID:     roomID,
		propertyID: propertyID,
		stay:       stay,
		occupancy:  occupancy,
		guest:      guest,
		total:      total,
		status:     StatusPending,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructBooking(
	id, roomID, propertyID uuid.UUID,
	stay StayPeriod,
	occupancy Occupancy,
	guest Guest,
	total Money,
	status Status,
	externalResID *string,
	failureReason *string,
	paymentID *uuid.UUID,
	syncAttempts int,
	nextRetryAt, syncStartedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		roomID:        roomID,
		propertyID:    propertyID,
		stay:          stay,
		occupancy:     occupancy,
		guest:         guest,
		total:         total,
		status:        status,
		externalResID: externalResID,
		failureReason: failureReason,
		paymentID:     paymentID,
		syncAttempts:  syncAttempts,
		nextRetryAt:   nextRetryAt,
		syncStartedAt: syncStartedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (b *Booking) transition(next Status) error {
	if b.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !b.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.status = next
	return nil
}

// IsFulfilled is the idempotency barrier: once the external reservation id is
// set the saga must take no further PMS action for this booking.
func (b *Booking) IsFulfilled() bool {
	return b.externalResID != nil
}

func (b *Booking) StartPayment() error {
	return b.transition(StatusPaymentProcessing)
}

func (b *Booking) CompletePayment(paymentID uuid.UUID) error {
	if err := b.transition(StatusPaymentCompleted); err != nil {
		return err
	}
	b.paymentID = &paymentID
	b.failureReason = nil
	return nil
}

// ClaimForSync moves the booking into SYNCING so a crash mid-flow leaves a
// visible, resumable marker.
func (b *Booking) ClaimForSync(now time.Time) error {
	if b.IsFulfilled() {
		return ErrAlreadyFulfilled
	}
	if err := b.transition(StatusSyncing); err != nil {
		return err
	}
	b.syncStartedAt = &now
	return nil
}

func (b *Booking) Confirm(externalReservationID string) error {
	if externalReservationID == "" {
		return ErrExternalIDMissing
	}
	if b.externalResID != nil {
		if *b.externalResID == externalReservationID {
			return nil
		}
		return ErrExternalIDAlreadySet
	}
	if err := b.transition(StatusConfirmed); err != nil {
		return err
	}
	b.externalResID = &externalReservationID
	b.nextRetryAt = nil
	return nil
}

func (b *Booking) MarkSyncFailed(reason string) error {
	if err := b.transition(StatusSyncFailed); err != nil {
		return err
	}
	b.failureReason = &reason
	b.nextRetryAt = nil
	return nil
}

func (b *Booking) MarkRefunded() error {
	return b.transition(StatusRefunded)
}

// Cancel is only reachable before payment capture; nothing was charged so no
// compensation is involved.
func (b *Booking) Cancel(reason string) error {
	if b.status != StatusPending && b.status != StatusPaymentProcessing {
		return ErrInvalidTransition
	}
	if err := b.transition(StatusCancelled); err != nil {
		return err
	}
	b.failureReason = &reason
	return nil
}

// ResetForRetry is the administrative escape hatch: SYNC_FAILED or a
// stuck-SYNCING booking goes back to PAYMENT_COMPLETED for a fresh saga run.
// It is the only backward edge in the lifecycle.
func (b *Booking) ResetForRetry(now time.Time, watchdogWindow time.Duration) error {
	if b.IsFulfilled() {
		return ErrAlreadyFulfilled
	}
	switch b.status {
	case StatusSyncFailed:
	case StatusSyncing:
		if b.syncStartedAt != nil && now.Sub(*b.syncStartedAt) < watchdogWindow {
			return ErrNotEligibleForRetry
		}
	default:
		return ErrNotEligibleForRetry
	}
	b.status = StatusPaymentCompleted
	b.failureReason = nil
	b.syncAttempts = 0
	b.nextRetryAt = nil
	b.syncStartedAt = nil
	return nil
}

// RecordSyncAttempt advances the persisted retry bookkeeping so a sweep can
// resume the schedule after a process restart.
func (b *Booking) RecordSyncAttempt(nextRetryAt *time.Time) {
	b.syncAttempts++
	b.nextRetryAt = nextRetryAt
}

// IsStuckSyncing reports whether the booking sat in SYNCING past the watchdog
// window without reaching a terminal state.
func (b *Booking) IsStuckSyncing(now time.Time, watchdogWindow time.Duration) bool {
	if b.status != StatusSyncing || b.syncStartedAt == nil {
		return false
	}
	return now.Sub(*b.syncStartedAt) >= watchdogWindow
}

func (b *Booking) ID() uuid.UUID                  { return b.id }
func (b *Booking) RoomID() uuid.UUID              { return b.roomID }
func (b *Booking) PropertyID() uuid.UUID          { return b.propertyID }
func (b *Booking) Stay() StayPeriod               { return b.stay }
func (b *Booking) Occupancy() Occupancy           { return b.occupancy }
func (b *Booking) Guest() Guest                   { return b.guest }
func (b *Booking) Total() Money                   { return b.total }
func (b *Booking) Status() Status                 { return b.status }
func (b *Booking) ExternalReservationID() *string { return b.externalResID }
func (b *Booking) FailureReason() *string         { return b.failureReason }
func (b *Booking) PaymentID() *uuid.UUID          { return b.paymentID }
func (b *Booking) SyncAttempts() int              { return b.syncAttempts }
func (b *Booking) NextRetryAt() *time.Time        { return b.nextRetryAt }
func (b *Booking) SyncStartedAt() *time.Time      { return b.syncStartedAt }
func (b *Booking) CreatedAt() time.Time           { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time           { return b.updatedAt }
