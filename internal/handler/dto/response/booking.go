package response

import (
	"log/slog"
	"time"

	"staysync/internal/usecase/commands"
	"staysync/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID                    uuid.UUID  `json:"id"`
	RoomID                uuid.UUID  `json:"room_id"`
	PropertyID            uuid.UUID  `json:"property_id"`
	CheckIn               string     `json:"check_in"`
	CheckOut              string     `json:"check_out"`
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

func FromBookingView(view *queries.BookingView) BookingResponse {
	var resp BookingResponse
	if err := copier.Copy(&resp, view); err != nil {
		slog.Error("failed to copy booking view", "error", err.Error())
	}
	resp.CheckIn = view.CheckIn.Format("2006-01-02")
	resp.CheckOut = view.CheckOut.Format("2006-01-02")
	return resp
}

type SyncAttemptResponse struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	Outcome     string    `json:"outcome"`
	Ordinal     int       `json:"ordinal"`
	ErrorDetail *string   `json:"error_detail"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromSyncAttemptViews(views []*queries.SyncAttemptView) []SyncAttemptResponse {
	resps := make([]SyncAttemptResponse, 0, len(views))
	for _, view := range views {
		var resp SyncAttemptResponse
		if err := copier.Copy(&resp, view); err != nil {
			slog.Error("failed to copy sync attempt view", "error", err.Error())
		}
		resps = append(resps, resp)
	}
	return resps
}

type CreateBookingResponse struct {
	BookingID uuid.UUID `json:"booking_id"`
	Status    string    `json:"status"`
}

type ReconcileResponse struct {
	Scanned   int `json:"scanned"`
	Recovered int `json:"recovered"`
	Deferred  int `json:"deferred"`
	Failed    int `json:"failed"`
}

func FromReconcileReport(report *commands.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{
		Scanned:   report.Scanned,
		Recovered: report.Recovered,
		Deferred:  report.Deferred,
		Failed:    report.Failed,
	}
}
