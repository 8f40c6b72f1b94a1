package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIntentIDRequired  = errors.New("payment intent id is required")
	ErrNotCaptured       = errors.New("payment has not been captured")
	ErrAlreadyFinalized  = errors.New("payment is already finalized")
	ErrNegativeAmount    = errors.New("payment amount cannot be negative")
	ErrAlreadyRefunded   = errors.New("payment is already refunded")
	ErrRefundNeedsReason = errors.New("refund reason is required")
)

// Payment records what the gateway actually captured. Amount and currency come
// from the gateway event, never from the client's claimed total.
type Payment struct {
	id                uuid.UUID
	bookingID         uuid.UUID
	intentID          string
	checkoutSessionID *string
	status            Status
	amount            int64
	currency          string
	capturedAt        *time.Time
	refundReason      *string
	createdAt         time.Time
	updatedAt         time.Time
}

func NewPayment(bookingID uuid.UUID, intentID string, checkoutSessionID *string, amount int64, currency string, now time.Time) (*Payment, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, ErrIntentIDRequired
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	return &Payment{
		id:                uuid.New(),
		bookingID:         bookingID,
		intentID:          intentID,
		checkoutSessionID: checkoutSessionID,
		status:            StatusPending,
		amount:            amount,
		currency:          strings.ToUpper(currency),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

func ReconstructPayment(
	id, bookingID uuid.UUID,
	intentID string,
	checkoutSessionID *string,
	status Status,
	amount int64,
	currency string,
	capturedAt *time.Time,
	refundReason *string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:                id,
		bookingID:         bookingID,
		intentID:          intentID,
		checkoutSessionID: checkoutSessionID,
		status:            status,
		amount:            amount,
		currency:          currency,
		capturedAt:        capturedAt,
		refundReason:      refundReason,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// MarkSucceeded is idempotent for repeated webhook deliveries of the same
// capture. The gateway amount overwrites whatever was recorded at intent time.
func (p *Payment) MarkSucceeded(amount int64, currency string, capturedAt time.Time) error {
	if p.status == StatusSucceeded {
		return nil
	}
	if p.status != StatusPending {
		return ErrAlreadyFinalized
	}
	p.status = StatusSucceeded
	p.amount = amount
	p.currency = strings.ToUpper(currency)
	p.capturedAt = &capturedAt
	return nil
}

func (p *Payment) MarkFailed() error {
	if p.status != StatusPending {
		return ErrAlreadyFinalized
	}
	p.status = StatusFailed
	return nil
}

func (p *Payment) MarkRefunded(reason string) error {
	if p.status == StatusRefunded {
		return ErrAlreadyRefunded
	}
	if p.status != StatusSucceeded {
		return ErrNotCaptured
	}
	if strings.TrimSpace(reason) == "" {
		return ErrRefundNeedsReason
	}
	p.status = StatusRefunded
	p.refundReason = &reason
	return nil
}

func (p *Payment) ID() uuid.UUID               { return p.id }
func (p *Payment) BookingID() uuid.UUID        { return p.bookingID }
func (p *Payment) IntentID() string            { return p.intentID }
func (p *Payment) CheckoutSessionID() *string  { return p.checkoutSessionID }
func (p *Payment) Status() Status              { return p.status }
func (p *Payment) Amount() int64               { return p.amount }
func (p *Payment) Currency() string            { return p.currency }
func (p *Payment) CapturedAt() *time.Time      { return p.capturedAt }
func (p *Payment) RefundReason() *string       { return p.refundReason }
func (p *Payment) CreatedAt() time.Time        { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time        { return p.updatedAt }
