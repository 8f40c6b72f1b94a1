//go:build unit || e2e

package builder

import (
	"time"

	dombooking "staysync/internal/domain/booking"
	reqdto "staysync/internal/handler/dto/request"
	"staysync/internal/pkg/clock"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	PropertyID    uuid.UUID
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	GuestName     string
	GuestEmail    string
	TotalAmount   int64
	Currency      string
	Status        dombooking.Status
	ExternalResID *string
	FailureReason *string
	PaymentID     *uuid.UUID
	SyncAttempts  int
	NextRetryAt   *time.Time
	SyncStartedAt *time.Time
	Now           time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		ID:          uuid.New(),
		RoomID:      uuid.New(),
		PropertyID:  uuid.New(),
		CheckIn:     now.AddDate(0, 0, 7),
		CheckOut:    now.AddDate(0, 0, 10),
		Adults:      2,
		Children:    0,
		GuestName:   "Hanako Yamada",
		GuestEmail:  "hanako@example.com",
		TotalAmount: 15000,
		Currency:    "JPY",
		Status:      dombooking.StatusPending,
		Now:         now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// BuildDomain runs the real constructor, so validation applies.
func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	stay, err := dombooking.NewStayPeriod(b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, err
	}
	occupancy, err := dombooking.NewOccupancy(b.Adults, b.Children)
	if err != nil {
		return nil, err
	}
	guest, err := dombooking.NewGuest(b.GuestName, b.GuestEmail)
	if err != nil {
		return nil, err
	}
	total, err := dombooking.NewMoney(b.TotalAmount, b.Currency)
	if err != nil {
		return nil, err
	}

	services := &dombooking.Services{Clock: clock.NewMockClock(b.Now)}
	return dombooking.NewBooking(services, b.RoomID, b.PropertyID, stay, occupancy, guest, total)
}

// BuildReconstructed bypasses creation validation to place a booking directly
// into any lifecycle state.
func (b *BookingBuilder) BuildReconstructed() *dombooking.Booking {
	stay, _ := dombooking.NewStayPeriod(b.CheckIn, b.CheckOut)
	occupancy, _ := dombooking.NewOccupancy(b.Adults, b.Children)
	guest, _ := dombooking.NewGuest(b.GuestName, b.GuestEmail)
	total, _ := dombooking.NewMoney(b.TotalAmount, b.Currency)

	return dombooking.ReconstructBooking(
		b.ID, b.RoomID, b.PropertyID,
		stay, occupancy, guest, total,
		b.Status,
		b.ExternalResID, b.FailureReason, b.PaymentID,
		b.SyncAttempts, b.NextRetryAt, b.SyncStartedAt,
		b.Now, b.Now,
	)
}

func (b *BookingBuilder) BuildParams() commands.CreateBookingParams {
	return commands.CreateBookingParams{
		RoomID:      b.RoomID,
		PropertyID:  b.PropertyID,
		CheckIn:     b.CheckIn,
		CheckOut:    b.CheckOut,
		Adults:      b.Adults,
		Children:    b.Children,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
	}
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		RoomID:      b.RoomID,
		PropertyID:  b.PropertyID,
		CheckIn:     b.CheckIn.Format("2006-01-02"),
		CheckOut:    b.CheckOut.Format("2006-01-02"),
		Adults:      b.Adults,
		Children:    b.Children,
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
	}
}

// Fluent builder methods
func (b *BookingBuilder) WithStatus(status dombooking.Status) *BookingBuilder {
	b.Status = status
	return b
}

func (b *BookingBuilder) WithStay(checkIn, checkOut time.Time) *BookingBuilder {
	b.CheckIn = checkIn
	b.CheckOut = checkOut
	return b
}

func (b *BookingBuilder) WithTotal(amount int64, currency string) *BookingBuilder {
	b.TotalAmount = amount
	b.Currency = currency
	return b
}

func (b *BookingBuilder) WithPaymentID(paymentID uuid.UUID) *BookingBuilder {
	b.PaymentID = &paymentID
	return b
}

func (b *BookingBuilder) WithExternalReservationID(id string) *BookingBuilder {
	b.ExternalResID = &id
	return b
}

func (b *BookingBuilder) WithSyncAttempts(n int) *BookingBuilder {
	b.SyncAttempts = n
	return b
}

func (b *BookingBuilder) WithSyncStartedAt(t time.Time) *BookingBuilder {
	b.SyncStartedAt = &t
	return b
}

func (b *BookingBuilder) WithNow(now time.Time) *BookingBuilder {
	b.Now = now
	return b
}

func (b *BookingBuilder) AsPaymentCompleted(paymentID uuid.UUID) *BookingBuilder {
	b.Status = dombooking.StatusPaymentCompleted
	b.PaymentID = &paymentID
	return b
}

func (b *BookingBuilder) AsSyncing(paymentID uuid.UUID, startedAt time.Time) *BookingBuilder {
	b.Status = dombooking.StatusSyncing
	b.PaymentID = &paymentID
	b.SyncStartedAt = &startedAt
	return b
}

func (b *BookingBuilder) AsSyncFailed(paymentID uuid.UUID, reason string) *BookingBuilder {
	b.Status = dombooking.StatusSyncFailed
	b.PaymentID = &paymentID
	b.FailureReason = &reason
	return b
}

func (b *BookingBuilder) AsConfirmed(paymentID uuid.UUID, externalResID string) *BookingBuilder {
	b.Status = dombooking.StatusConfirmed
	b.PaymentID = &paymentID
	b.ExternalResID = &externalResID
	return b
}
