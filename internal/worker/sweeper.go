package worker

import (
	"context"
	"log/slog"
	"time"

	"staysync/internal/usecase/commands"
)

// Sweeper periodically re-drives bookings whose saga stalled: captured
// payments never synced, or SYNCING rows abandoned past the watchdog window.
// It is the safety net behind webhook-driven orchestration; a booking missed
// by a crashed webhook invocation is picked up on the next sweep.
type Sweeper struct {
	admin    commands.AdminCommands
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(admin commands.AdminCommands, interval time.Duration) *Sweeper {
	return &Sweeper{admin: admin, interval: interval}
}

func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx)
	slog.Info("reconciliation sweeper started", "interval", s.interval)
}

func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("reconciliation sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.admin.Reconcile(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("reconciliation sweep failed", "error", err.Error())
			}
		}
	}
}
