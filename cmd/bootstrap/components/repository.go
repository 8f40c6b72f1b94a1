package components

import (
	"staysync/internal/infra/readstore"
	"staysync/internal/infra/repository"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		repository.NewBookingRepository,
		repository.NewPaymentRepository,
		repository.NewSyncLogRepository,
		repository.NewIdempotencyRepository,
		// Read-side store for queries
		readstore.NewBookingReadStore,
	),
)
