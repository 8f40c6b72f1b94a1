package components

import (
	"context"

	"staysync/internal/pkg/config"
	"staysync/internal/usecase/commands"
	"staysync/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(admin commands.AdminCommands, cfg config.Config) *worker.Sweeper {
			return worker.NewSweeper(admin, cfg.Saga.SweepInterval)
		},
	),
	fx.Invoke(startSweeper),
)

func startSweeper(lc fx.Lifecycle, sweeper *worker.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}
