package repository

import (
	"context"
	"time"

	"staysync/internal/domain/booking"
	"staysync/internal/infra"
	"staysync/internal/pkg/pgconv"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) commands.BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, room_id, property_id, check_in, check_out, adults, children,
	guest_name, guest_email, total_amount, currency, status, external_reservation_id,
	failure_reason, payment_id, sync_attempts, next_retry_at, sync_started_at,
	created_at, updated_at`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (
			id, room_id, property_id, check_in, check_out, adults, children,
			guest_name, guest_email, total_amount, currency, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		b.ID(), b.RoomID(), b.PropertyID(),
		pgconv.DateToPgtype(b.Stay().CheckIn()), pgconv.DateToPgtype(b.Stay().CheckOut()),
		b.Occupancy().Adults(), b.Occupancy().Children(),
		b.Guest().Name(), b.Guest().Email(),
		b.Total().Amount(), b.Total().Currency(),
		b.Status().String(),
		pgconv.TimeToPgtype(b.CreatedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		id, roomID, propertyID     uuid.UUID
		checkIn, checkOut          pgtype.Date
		adults, children           int
		guestName, guestEmail      string
		totalAmount                int64
		currency, status           string
		externalResID, failReason  pgtype.Text
		paymentID                  pgtype.UUID
		syncAttempts               int
		nextRetryAt, syncStartedAt pgtype.Timestamptz
		createdAt, updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &roomID, &propertyID, &checkIn, &checkOut, &adults, &children,
		&guestName, &guestEmail, &totalAmount, &currency, &status,
		&externalResID, &failReason, &paymentID, &syncAttempts,
		&nextRetryAt, &syncStartedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan booking", err)
	}

	stay, err := booking.NewStayPeriod(pgconv.DateFromPgtype(checkIn), pgconv.DateFromPgtype(checkOut))
	if err != nil {
		return nil, infra.WrapRepoErr("stored stay period invalid", err)
	}
	occupancy, err := booking.NewOccupancy(adults, children)
	if err != nil {
		return nil, infra.WrapRepoErr("stored occupancy invalid", err)
	}
	guest, err := booking.NewGuest(guestName, guestEmail)
	if err != nil {
		return nil, infra.WrapRepoErr("stored guest invalid", err)
	}
	total, err := booking.NewMoney(totalAmount, currency)
	if err != nil {
		return nil, infra.WrapRepoErr("stored total invalid", err)
	}

	return booking.ReconstructBooking(
		id, roomID, propertyID,
		stay, occupancy, guest, total,
		booking.Status(status),
		pgconv.StringPtrFromPgtype(externalResID),
		pgconv.StringPtrFromPgtype(failReason),
		pgconv.UUIDPtrFromPgtype(paymentID),
		syncAttempts,
		pgconv.TimePtrFromPgtype(nextRetryAt),
		pgconv.TimePtrFromPgtype(syncStartedAt),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

// Conditional transitions below return whether this caller won the update;
// the status predicate in each WHERE clause is the concurrency guard.

func (r *BookingRepository) StartPayment(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'payment_processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, infra.WrapRepoErr("failed to start payment", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) CompletePayment(ctx context.Context, id, paymentID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'payment_completed', payment_id = $2,
			failure_reason = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'payment_processing')`, id, paymentID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to complete payment", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'cancelled', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'payment_processing')`, id, reason)
	if err != nil {
		return false, infra.WrapRepoErr("failed to cancel booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) ClaimForSync(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'syncing', sync_started_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'payment_completed' AND external_reservation_id IS NULL`,
		id, pgconv.TimeToPgtype(now))
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim booking for sync", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) Confirm(ctx context.Context, id uuid.UUID, externalReservationID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'confirmed', external_reservation_id = $2,
			next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'syncing' AND external_reservation_id IS NULL`,
		id, externalReservationID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to confirm booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) MarkSyncFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'sync_failed', failure_reason = $2,
			next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'syncing'`, id, reason)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark booking sync_failed", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'refunded', next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('syncing', 'sync_failed')`, id)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark booking refunded", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) RecordRetryState(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings SET sync_attempts = $2, next_retry_at = $3, updated_at = now()
		WHERE id = $1`, id, attempts, pgconv.TimePtrToPgtype(nextRetryAt))
	if err != nil {
		return infra.WrapRepoErr("failed to record retry state", err)
	}
	return nil
}

func (r *BookingRepository) ResetForRetry(ctx context.Context, id uuid.UUID, now time.Time, watchdogWindow time.Duration) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'payment_completed', failure_reason = NULL,
			sync_attempts = 0, next_retry_at = NULL, sync_started_at = NULL, updated_at = now()
		WHERE id = $1 AND external_reservation_id IS NULL AND (
			status = 'sync_failed'
			OR (status = 'syncing' AND sync_started_at <= $2)
		)`, id, pgconv.TimeToPgtype(now.Add(-watchdogWindow)))
	if err != nil {
		return false, infra.WrapRepoErr("failed to reset booking for retry", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) FindNeedingSync(ctx context.Context, now time.Time, watchdogWindow time.Duration, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM bookings
		WHERE external_reservation_id IS NULL AND (
			status = 'payment_completed'
			OR (status = 'syncing' AND sync_started_at <= $1)
		)
		ORDER BY updated_at
		LIMIT $2`, pgconv.TimeToPgtype(now.Add(-watchdogWindow)), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan for unfulfilled bookings", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate unfulfilled bookings", err)
	}
	return ids, nil
}
