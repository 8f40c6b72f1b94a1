package components

import (
	"staysync/internal/handler"
	"staysync/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewWebhookHandler,
		api.NewAdminHandler,
	),
	fx.Invoke(handler.NewRouter),
)
