package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/pkg/clock"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidStay           = errs.New("invalid stay period")
	ErrDomainValidation      = errs.New("domain validation error")
	ErrIdempotencyInProgress = errs.New("request with this idempotency key is in progress")
	ErrDuplicateRequest      = errs.New("idempotency key reused with different parameters")
	ErrIdempotencyFailed     = errs.New("idempotency check failed")
)

const createBookingEndpoint = "POST /bookings"

type CreateBookingParams struct {
	RoomID      uuid.UUID `json:"room_id"`
	PropertyID  uuid.UUID `json:"property_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
}

type CreateBookingResult struct {
	BookingID  uuid.UUID
	IsReplayed bool
}

type BookingCommands interface {
	// CreateBooking validates the stay, re-verifies the submitted total
	// against current PMS rates, and persists the booking in PENDING. Price
	// verification happens before any payment is initiated.
	CreateBooking(ctx context.Context, params CreateBookingParams, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
}

type bookingUseCaseImpl struct {
	bookings    BookingRepository
	idempotency IdempotencyRepository
	verifier    *PriceVerifier
	clock       clock.Clock
}

func NewBookingUseCase(
	bookings BookingRepository,
	idempotency IdempotencyRepository,
	verifier *PriceVerifier,
	clk clock.Clock,
) BookingCommands {
	return &bookingUseCaseImpl{
		bookings:    bookings,
		idempotency: idempotency,
		verifier:    verifier,
		clock:       clk,
	}
}

func (u *bookingUseCaseImpl) CreateBooking(ctx context.Context, params CreateBookingParams, idempotencyKey uuid.UUID) (*CreateBookingResult, error) {
	requestHash := calculateRequestHash(params)
	expiresAt := u.clock.Now().Add(24 * time.Hour)

	inserted, err := u.idempotency.TryInsert(ctx, idempotencyKey, createBookingEndpoint, requestHash, expiresAt)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyFailed)
	}
	if !inserted {
		return u.replayExisting(ctx, idempotencyKey, requestHash)
	}

	b, err := u.buildBooking(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := u.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	if err := u.idempotency.MarkCompleted(ctx, idempotencyKey, b.ID()); err != nil {
		return nil, errs.Mark(err, ErrIdempotencyFailed)
	}

	return &CreateBookingResult{BookingID: b.ID(), IsReplayed: false}, nil
}

func (u *bookingUseCaseImpl) replayExisting(ctx context.Context, key uuid.UUID, requestHash string) (*CreateBookingResult, error) {
	existing, err := u.idempotency.Get(ctx, key)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyFailed)
	}
	if existing.RequestHash != requestHash {
		return nil, ErrDuplicateRequest
	}

	switch existing.Status {
	case "completed":
		if existing.ResultBookingID == nil {
			return nil, errs.New("completed idempotency record missing booking id")
		}
		return &CreateBookingResult{BookingID: *existing.ResultBookingID, IsReplayed: true}, nil
	case "processing":
		return nil, ErrIdempotencyInProgress
	default:
		return nil, errs.New("invalid idempotency record status")
	}
}

func (u *bookingUseCaseImpl) buildBooking(ctx context.Context, params CreateBookingParams) (*booking.Booking, error) {
	stay, err := booking.NewStayPeriod(params.CheckIn, params.CheckOut)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidStay)
	}
	occupancy, err := booking.NewOccupancy(params.Adults, params.Children)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	guest, err := booking.NewGuest(params.GuestName, params.GuestEmail)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	total, err := booking.NewMoney(params.TotalAmount, params.Currency)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	// Re-verify against the live rate calendar, not an earlier quote.
	if err := u.verifier.Verify(ctx, params.PropertyID, params.RoomID, stay, total); err != nil {
		return nil, err
	}

	services := &booking.Services{Clock: u.clock}
	b, err := booking.NewBooking(services, params.RoomID, params.PropertyID, stay, occupancy, guest, total)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	return b, nil
}

func calculateRequestHash(params CreateBookingParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
