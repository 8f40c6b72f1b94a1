package bootstrap

import (
	"staysync/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.WebhookConfig { return cfg.Webhook },
	),
)
