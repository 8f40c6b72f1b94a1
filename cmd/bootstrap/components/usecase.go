package components

import (
	"staysync/internal/pkg/clock"
	"staysync/internal/pkg/config"
	"staysync/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		clock.NewRealSleeper,
		commands.NewPriceVerifier,
		commands.NewCompensator,
		newSyncOrchestrator,
		newAdminUseCase,
		commands.NewWebhookUseCase,
		commands.NewBookingUseCase,
	),
)

func newSyncOrchestrator(
	bookings commands.BookingRepository,
	payments commands.PaymentRepository,
	syncLog commands.SyncLogRepository,
	gateway commands.PMSGateway,
	compensator commands.Compensator,
	notifier commands.Notifier,
	clk clock.Clock,
	sleeper clock.Sleeper,
	cfg config.Config,
) commands.SyncOrchestrator {
	return commands.NewSyncOrchestrator(
		bookings, payments, syncLog, gateway, compensator, notifier,
		clk, sleeper, cfg.Saga.RetryDelays, cfg.Saga.WatchdogWindow,
	)
}

func newAdminUseCase(
	bookings commands.BookingRepository,
	orchestrator commands.SyncOrchestrator,
	clk clock.Clock,
	cfg config.Config,
) commands.AdminCommands {
	return commands.NewAdminUseCase(bookings, orchestrator, clk, cfg.Saga.WatchdogWindow)
}
