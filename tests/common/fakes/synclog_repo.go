//go:build unit

package fakes

import (
	"context"
	"sync"

	"staysync/internal/domain/synclog"
	"staysync/internal/infra"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

type SyncLogRepository struct {
	mu       sync.Mutex
	attempts []*synclog.Attempt
}

func NewSyncLogRepository() *SyncLogRepository {
	return &SyncLogRepository{}
}

var _ commands.SyncLogRepository = (*SyncLogRepository)(nil)

func (r *SyncLogRepository) Append(_ context.Context, attempt *synclog.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *attempt
	r.attempts = append(r.attempts, &stored)
	return nil
}

func (r *SyncLogRepository) Finalize(_ context.Context, attemptID uuid.UUID, outcome synclog.Outcome, errDetail *string, rawResponse []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == attemptID {
			if a.Outcome != synclog.OutcomePending {
				return infra.WrapRepoErr("attempt already finalized", nil, infra.KindConflict)
			}
			a.Outcome = outcome
			a.ErrorDetail = errDetail
			a.RawResponse = rawResponse
			return nil
		}
	}
	return infra.WrapRepoErr("attempt not found", nil, infra.KindNotFound)
}

// Attempts returns the trail for one booking in append order.
func (r *SyncLogRepository) Attempts(bookingID uuid.UUID) []*synclog.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*synclog.Attempt
	for _, a := range r.attempts {
		if a.BookingID == bookingID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out
}
