//go:build unit

package fakes

import (
	"context"
	"sync"
	"time"

	"staysync/internal/domain/payment"
	"staysync/internal/infra"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

type PaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[uuid.UUID]*payment.Payment)}
}

var _ commands.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Seed(p *payment.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID()] = p
}

func (r *PaymentRepository) Get(id uuid.UUID) *payment.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments[id]
}

func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.IntentID() == p.IntentID() {
			return infra.WrapRepoErr("payment intent already recorded", nil, infra.KindDuplicateKey)
		}
	}
	r.payments[p.ID()] = p
	return nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) FindByIntentID(_ context.Context, intentID string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.IntentID() == intentID {
			return p, nil
		}
	}
	return nil, infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
}

func (r *PaymentRepository) MarkSucceeded(_ context.Context, id uuid.UUID, amount int64, currency string, capturedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return p.MarkSucceeded(amount, currency, capturedAt)
}

func (r *PaymentRepository) MarkRefunded(_ context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return p.MarkRefunded(reason)
}
