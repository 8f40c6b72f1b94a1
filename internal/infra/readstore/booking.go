package readstore

import (
	"context"

	"staysync/internal/infra"
	"staysync/internal/pkg/pgconv"
	"staysync/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingReadStore struct {
	pool *pgxpool.Pool
}

func NewBookingReadStore(pool *pgxpool.Pool) queries.BookingQueries {
	return &BookingReadStore{pool: pool}
}

func (r *BookingReadStore) GetByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT b.id, b.room_id, b.property_id, b.check_in, b.check_out,
			b.adults, b.children, b.guest_name, b.guest_email,
			b.total_amount, b.currency, b.status, b.external_reservation_id,
			b.failure_reason, p.intent_id, p.status,
			b.sync_attempts, b.next_retry_at, b.created_at, b.updated_at
		FROM bookings b
		LEFT JOIN payments p ON p.id = b.payment_id
		WHERE b.id = $1`, id)

	var (
		view                      queries.BookingView
		checkIn, checkOut         pgtype.Date
		externalResID, failReason pgtype.Text
		intentID, payStatus       pgtype.Text
		nextRetryAt               pgtype.Timestamptz
		createdAt, updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&view.ID, &view.RoomID, &view.PropertyID, &checkIn, &checkOut,
		&view.Adults, &view.Children, &view.GuestName, &view.GuestEmail,
		&view.TotalAmount, &view.Currency, &view.Status, &externalResID,
		&failReason, &intentID, &payStatus,
		&view.SyncAttempts, &nextRetryAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read booking view", err)
	}

	view.CheckIn = pgconv.DateFromPgtype(checkIn)
	view.CheckOut = pgconv.DateFromPgtype(checkOut)
	view.ExternalReservationID = pgconv.StringPtrFromPgtype(externalResID)
	view.FailureReason = pgconv.StringPtrFromPgtype(failReason)
	view.PaymentIntentID = pgconv.StringPtrFromPgtype(intentID)
	view.PaymentStatus = pgconv.StringPtrFromPgtype(payStatus)
	view.NextRetryAt = pgconv.TimePtrFromPgtype(nextRetryAt)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)

	return &view, nil
}

func (r *BookingReadStore) ListSyncAttempts(ctx context.Context, bookingID uuid.UUID) ([]*queries.SyncAttemptView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, outcome, ordinal, error_detail, created_at
		FROM sync_attempts
		WHERE booking_id = $1
		ORDER BY created_at, ordinal`, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list sync attempts", err)
	}
	defer rows.Close()

	var views []*queries.SyncAttemptView
	for rows.Next() {
		var (
			view      queries.SyncAttemptView
			errDetail pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&view.ID, &view.Action, &view.Outcome, &view.Ordinal, &errDetail, &createdAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan sync attempt", err)
		}
		view.ErrorDetail = pgconv.StringPtrFromPgtype(errDetail)
		view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate sync attempts", err)
	}
	return views, nil
}
