package components

import (
	"approval-engine/internal/domain/approval"
	"approval-engine/internal/domain/target"
	"approval-engine/internal/infra/targetstore"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/pkg/config"
	"approval-engine/internal/usecase"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseTargetModule,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) commands.Options {
		return commands.Options{CommentMaximum: cfg.Approval.CommentMaximum}
	},
	func() *approval.DuplicateGuard {
		return approval.NewDuplicateGuard(approval.DefaultCreationExemptions())
	},
)

// Every target type requests may touch is registered here.
var usecaseTargetModule = fx.Module("usecase/targets",
	fx.Provide(
		targetstore.NewUserAdapter,
		func(users *targetstore.UserAdapter) (*target.Registry, error) {
			return target.NewRegistry(users)
		},
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewExecutionEngine,
		commands.NewAuthorizationResolver,
		commands.NewEventPublisher,
		commands.NewRequestUseCase,
		commands.NewRespondUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		func(r *commands.AuthorizationResolver) queries.EligibilityResolver { return r },
		queries.NewRequestQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
