package synclog

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreateReservation Action = "create_reservation"
)

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeRetrying Outcome = "retrying"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePending, OutcomeSuccess, OutcomeFailed, OutcomeRetrying:
		return true
	default:
		return false
	}
}

// Attempt is one entry in the append-only audit trail of PMS calls for a
// booking. Entries are never mutated except to finalize the latest one's
// outcome. RawResponse stays opaque for provider-specific detail the typed
// fields don't model.
type Attempt struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	Action      Action
	Outcome     Outcome
	Ordinal     int
	ErrorDetail *string
	RawResponse []byte
	CreatedAt   time.Time
}

func NewAttempt(bookingID uuid.UUID, ordinal int, now time.Time) *Attempt {
	return &Attempt{
		ID:        uuid.New(),
		BookingID: bookingID,
		Action:    ActionCreateReservation,
		Outcome:   OutcomePending,
		Ordinal:   ordinal,
		CreatedAt: now,
	}
}

func (a *Attempt) Succeed(rawResponse []byte) {
	a.Outcome = OutcomeSuccess
	a.RawResponse = rawResponse
}

// Fail finalizes the attempt; willRetry selects RETRYING over FAILED so the
// audit trail shows whether the schedule continued afterwards.
func (a *Attempt) Fail(errDetail string, rawResponse []byte, willRetry bool) {
	if willRetry {
		a.Outcome = OutcomeRetrying
	} else {
		a.Outcome = OutcomeFailed
	}
	a.ErrorDetail = &errDetail
	a.RawResponse = rawResponse
}
