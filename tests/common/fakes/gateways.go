//go:build unit

package fakes

import (
	"context"
	"sync"
	"time"

	"staysync/internal/infra/pms"
	"staysync/internal/usecase/commands"

	"github.com/google/uuid"
)

// CreateOutcome scripts one CreateReservation call of the PMS stub.
type CreateOutcome struct {
	Created *pms.ReservationCreated
	Err     error
}

// PMSGateway replays a scripted sequence of reservation-create outcomes and
// records every request it saw. Once the script runs out, the last outcome
// repeats.
type PMSGateway struct {
	mu        sync.Mutex
	script    []CreateOutcome
	calls     []pms.CreateReservationRequest
	rateCalls int
	Calendar  *pms.RateCalendar
	RatesErr  error
}

func NewPMSGateway(script ...CreateOutcome) *PMSGateway {
	return &PMSGateway{script: script}
}

var _ commands.PMSGateway = (*PMSGateway)(nil)

func (g *PMSGateway) CreateReservation(_ context.Context, req pms.CreateReservationRequest) (*pms.ReservationCreated, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)

	if len(g.script) == 0 {
		return nil, pms.NewError(500, "", "pms stub has no scripted outcome", nil)
	}
	idx := len(g.calls) - 1
	if idx >= len(g.script) {
		idx = len(g.script) - 1
	}
	outcome := g.script[idx]
	return outcome.Created, outcome.Err
}

func (g *PMSGateway) GetRateCalendar(_ context.Context, _, _ uuid.UUID, _, _ time.Time) (*pms.RateCalendar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rateCalls++
	if g.RatesErr != nil {
		return nil, g.RatesErr
	}
	return g.Calendar, nil
}

func (g *PMSGateway) RateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rateCalls
}

func (g *PMSGateway) Calls() []pms.CreateReservationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]pms.CreateReservationRequest(nil), g.calls...)
}

// RefundGateway records refund requests; set Err to simulate refund failure.
type RefundGateway struct {
	mu    sync.Mutex
	Err   error
	calls []RefundCall
}

type RefundCall struct {
	PaymentIntentID string
	Reason          string
	Note            string
}

func NewRefundGateway() *RefundGateway {
	return &RefundGateway{}
}

var _ commands.RefundGateway = (*RefundGateway)(nil)

func (g *RefundGateway) Refund(_ context.Context, paymentIntentID, reason, note string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, RefundCall{PaymentIntentID: paymentIntentID, Reason: reason, Note: note})
	return g.Err
}

func (g *RefundGateway) Calls() []RefundCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RefundCall(nil), g.calls...)
}

// RecordingSleeper captures requested backoff delays without waiting.
type RecordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	// Cancel aborts the sleep after this many recorded delays (0 = never).
	CancelAfter int
}

func NewRecordingSleeper() *RecordingSleeper {
	return &RecordingSleeper{}
}

func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	if s.CancelAfter > 0 && len(s.delays) >= s.CancelAfter {
		return context.Canceled
	}
	return ctx.Err()
}

func (s *RecordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
