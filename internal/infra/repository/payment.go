package repository

import (
	"context"
	"time"

	"staysync/internal/domain/payment"
	"staysync/internal/infra"
	"staysync/internal/pkg/pgconv"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"errors"
)

const pgErrCodeUniqueViolation = "23505"

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) commands.PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, booking_id, intent_id, checkout_session_id, status,
	amount, currency, captured_at, refund_reason, created_at, updated_at`

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (
			id, booking_id, intent_id, checkout_session_id, status,
			amount, currency, captured_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		p.ID(), p.BookingID(), p.IntentID(),
		pgconv.StringPtrToPgtype(p.CheckoutSessionID()),
		p.Status().String(), p.Amount(), p.Currency(),
		pgconv.TimePtrToPgtype(p.CapturedAt()),
		pgconv.TimeToPgtype(p.CreatedAt()),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("payment intent already recorded", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert payment", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*payment.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE intent_id = $1`, intentID)
	return scanPayment(row)
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var (
		id, bookingID           uuid.UUID
		intentID                string
		checkoutSessionID       pgtype.Text
		status, currency        string
		amount                  int64
		capturedAt              pgtype.Timestamptz
		refundReason            pgtype.Text
		createdAt, updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &bookingID, &intentID, &checkoutSessionID, &status,
		&amount, &currency, &capturedAt, &refundReason, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("payment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan payment", err)
	}

	return payment.ReconstructPayment(
		id, bookingID, intentID,
		pgconv.StringPtrFromPgtype(checkoutSessionID),
		payment.Status(status), amount, currency,
		pgconv.TimePtrFromPgtype(capturedAt),
		pgconv.StringPtrFromPgtype(refundReason),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, amount int64, currency string, capturedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'succeeded', amount = $2, currency = $3,
			captured_at = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, amount, currency, pgconv.TimeToPgtype(capturedAt))
	if err != nil {
		return infra.WrapRepoErr("failed to mark payment succeeded", err)
	}
	return nil
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'refunded', refund_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'succeeded'`, id, reason)
	if err != nil {
		return infra.WrapRepoErr("failed to mark payment refunded", err)
	}
	return nil
}
