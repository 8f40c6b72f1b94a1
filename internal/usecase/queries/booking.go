package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingView is the read model admin tooling consumes to observe saga
// progress.
type BookingView struct {
	ID                    uuid.UUID  `json:"id"`
	RoomID                uuid.UUID  `json:"room_id"`
	PropertyID            uuid.UUID  `json:"property_id"`
	CheckIn               time.Time  `json:"check_in"`
	CheckOut              time.Time  `json:"check_out"`
	Adults                int        `json:"adults"`
	Children              int        `json:"children"`
	GuestName             string     `json:"guest_name"`
	GuestEmail            string     `json:"guest_email"`
	TotalAmount           int64      `json:"total_amount"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"`
	ExternalReservationID *string    `json:"external_reservation_id"`
	FailureReason         *string    `json:"failure_reason"`
	PaymentIntentID       *string    `json:"payment_intent_id"`
	PaymentStatus         *string    `json:"payment_status"`
	SyncAttempts          int        `json:"sync_attempts"`
	NextRetryAt           *time.Time `json:"next_retry_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type SyncAttemptView struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	Outcome     string    `json:"outcome"`
	Ordinal     int       `json:"ordinal"`
	ErrorDetail *string   `json:"error_detail"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	// ListSyncAttempts returns the strictly ordered audit trail of PMS calls
	// for a booking, oldest first.
	ListSyncAttempts(ctx context.Context, bookingID uuid.UUID) ([]*SyncAttemptView, error)
}
