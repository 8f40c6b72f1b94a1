//go:build unit

package fakes

import (
	"context"
	"sync"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/infra"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

// BookingRepository is an in-memory stand-in that mirrors the conditional
// single-row update semantics of the real store: transitions apply through the
// domain entity and a rejected transition reports false, not an error.
type BookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[uuid.UUID]*booking.Booking)}
}

var _ commands.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) Seed(b *booking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = cloneBooking(b)
}

func (r *BookingRepository) Get(id uuid.UUID) *booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		return cloneBooking(b)
	}
	return nil
}

func (r *BookingRepository) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[b.ID()]; exists {
		return infra.WrapRepoErr("booking already exists", nil, infra.KindDuplicateKey)
	}
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) StartPayment(_ context.Context, id uuid.UUID) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.StartPayment()
	})
}

func (r *BookingRepository) CompletePayment(_ context.Context, id, paymentID uuid.UUID) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.CompletePayment(paymentID)
	})
}

func (r *BookingRepository) Cancel(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.Cancel(reason)
	})
}

func (r *BookingRepository) ClaimForSync(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.ClaimForSync(now)
	})
}

func (r *BookingRepository) Confirm(_ context.Context, id uuid.UUID, externalReservationID string) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		if b.IsFulfilled() {
			return booking.ErrExternalIDAlreadySet
		}
		return b.Confirm(externalReservationID)
	})
}

func (r *BookingRepository) MarkSyncFailed(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.MarkSyncFailed(reason)
	})
}

func (r *BookingRepository) MarkRefunded(_ context.Context, id uuid.UUID) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.MarkRefunded()
	})
}

func (r *BookingRepository) RecordRetryState(_ context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	r.bookings[id] = booking.ReconstructBooking(
		b.ID(), b.RoomID(), b.PropertyID(),
		b.Stay(), b.Occupancy(), b.Guest(), b.Total(),
		b.Status(),
		b.ExternalReservationID(), b.FailureReason(), b.PaymentID(),
		attempts, nextRetryAt, b.SyncStartedAt(),
		b.CreatedAt(), b.UpdatedAt(),
	)
	return nil
}

func (r *BookingRepository) ResetForRetry(_ context.Context, id uuid.UUID, now time.Time, watchdogWindow time.Duration) (bool, error) {
	return r.mutate(id, func(b *booking.Booking) error {
		return b.ResetForRetry(now, watchdogWindow)
	})
}

func (r *BookingRepository) FindNeedingSync(_ context.Context, now time.Time, watchdogWindow time.Duration, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, b := range r.bookings {
		if len(ids) >= limit {
			break
		}
		switch {
		case b.Status() == booking.StatusPaymentCompleted && !b.IsFulfilled():
			ids = append(ids, id)
		case b.IsStuckSyncing(now, watchdogWindow):
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// mutate applies a domain transition in place; a domain rejection means this
// caller lost the conditional update.
func (r *BookingRepository) mutate(id uuid.UUID, apply func(*booking.Booking) error) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	next := cloneBooking(b)
	if err := apply(next); err != nil {
		return false, nil
	}
	r.bookings[id] = next
	return true, nil
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(
		b.ID(), b.RoomID(), b.PropertyID(),
		b.Stay(), b.Occupancy(), b.Guest(), b.Total(),
		b.Status(),
		clonePtr(b.ExternalReservationID()), clonePtr(b.FailureReason()), clonePtr(b.PaymentID()),
		b.SyncAttempts(), clonePtr(b.NextRetryAt()), clonePtr(b.SyncStartedAt()),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
