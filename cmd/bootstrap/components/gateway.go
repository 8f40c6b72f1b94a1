package components

import (
	"log/slog"

	"staysync/internal/infra/notifier"
	"staysync/internal/infra/paygate"
	"staysync/internal/infra/pms"
	"staysync/internal/pkg/config"
	"staysync/internal/usecase/commands"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			func(cfg config.Config) *pms.Client { return pms.NewClient(cfg.PMS) },
			fx.As(new(commands.PMSGateway)),
		),
		fx.Annotate(
			func(cfg config.Config) *paygate.Client { return paygate.NewClient(cfg.PayGate) },
			fx.As(new(commands.RefundGateway)),
		),
		fx.Annotate(
			func(logger *slog.Logger) *notifier.SlogNotifier { return notifier.NewSlogNotifier(logger) },
			fx.As(new(commands.Notifier)),
		),
	),
)
