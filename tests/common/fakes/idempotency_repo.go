//go:build unit

package fakes

import (
	"context"
	"sync"
	"time"

	"staysync/internal/infra"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*commands.IdempotencyRecord
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{records: make(map[uuid.UUID]*commands.IdempotencyRecord)}
}

var _ commands.IdempotencyRepository = (*IdempotencyRepository)(nil)

func (r *IdempotencyRepository) TryInsert(_ context.Context, key uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[key]; exists {
		return false, nil
	}
	r.records[key] = &commands.IdempotencyRecord{
		Key:         key,
		Endpoint:    endpoint,
		RequestHash: requestHash,
		Status:      "processing",
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r *IdempotencyRepository) Get(_ context.Context, key uuid.UUID) (*commands.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	copied := *record
	return &copied, nil
}

func (r *IdempotencyRepository) MarkCompleted(_ context.Context, key, resultBookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	record.Status = "completed"
	record.ResultBookingID = &resultBookingID
	return nil
}
