package repository

import (
	"context"

	"staysync/internal/domain/synclog"
	"staysync/internal/infra"
	"staysync/internal/pkg/pgconv"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncLogRepository appends to the audit trail of PMS attempts. Rows are
// inserted as PENDING before the external call and finalized after it; they
// are never updated beyond that single finalize.
type SyncLogRepository struct {
	pool *pgxpool.Pool
}

func NewSyncLogRepository(pool *pgxpool.Pool) commands.SyncLogRepository {
	return &SyncLogRepository{pool: pool}
}

func (r *SyncLogRepository) Append(ctx context.Context, attempt *synclog.Attempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sync_attempts (id, booking_id, action, outcome, ordinal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.BookingID, string(attempt.Action),
		string(attempt.Outcome), attempt.Ordinal,
		pgconv.TimeToPgtype(attempt.CreatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append sync attempt", err)
	}
	return nil
}

func (r *SyncLogRepository) Finalize(ctx context.Context, attemptID uuid.UUID, outcome synclog.Outcome, errDetail *string, rawResponse []byte) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sync_attempts SET outcome = $2, error_detail = $3, raw_response = $4
		WHERE id = $1 AND outcome = 'pending'`,
		attemptID, string(outcome), pgconv.StringPtrToPgtype(errDetail), rawResponse)
	if err != nil {
		return infra.WrapRepoErr("failed to finalize sync attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("sync attempt already finalized or missing", nil, infra.KindConflict)
	}
	return nil
}
