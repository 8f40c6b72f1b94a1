package repository

import (
	"context"
	"time"

	"staysync/internal/infra"
	"staysync/internal/pkg/pgconv"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) commands.IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, endpoint, request_hash, status, expires_at)
		VALUES ($1, $2, $3, 'processing', $4)
		ON CONFLICT (key) DO NOTHING`,
		key, endpoint, requestHash, pgconv.TimeToPgtype(expiresAt))
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID) (*commands.IdempotencyRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT key, endpoint, request_hash, status, result_booking_id, expires_at
		FROM idempotency_keys WHERE key = $1`, key)

	var (
		record          commands.IdempotencyRecord
		resultBookingID pgtype.UUID
		expiresAt       pgtype.Timestamptz
	)
	err := row.Scan(&record.Key, &record.Endpoint, &record.RequestHash,
		&record.Status, &resultBookingID, &expiresAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	record.ResultBookingID = pgconv.UUIDPtrFromPgtype(resultBookingID)
	record.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)

	if time.Now().After(record.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency key expired", nil, infra.KindNotFound)
	}

	return &record, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, resultBookingID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE idempotency_keys SET status = 'completed', result_booking_id = $2, updated_at = now()
		WHERE key = $1`, key, resultBookingID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	return nil
}
