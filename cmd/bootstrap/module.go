package bootstrap

import (
	"approval-engine/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	components.NotifyModule,
	components.UseCaseModule,
	components.HandlerModule,
	SeedModule,
)
