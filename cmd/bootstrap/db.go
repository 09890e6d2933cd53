package bootstrap

import (
	"context"
	"time"

	"approval-engine/internal/infra/audit"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/infra/memstore"
	"approval-engine/internal/infra/readstore"
	"approval-engine/internal/infra/repository"
	"approval-engine/internal/infra/seed"
	"approval-engine/internal/infra/targetstore"
	"approval-engine/internal/infra/uow"
	"approval-engine/internal/pkg/config"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"
	"approval-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewStorage,
	),
)

// Storage is every port backed by the configured storage.
type Storage struct {
	fx.Out

	UnitOfWork shared.UnitOfWork
	ReadStore  queries.RequestReadStore
	History    queries.HistoryReader
	Identity   commands.IdentityProvider
	AuditSink  audit.Sink
	Users      targetstore.UserStore
	Seeder     Seeder
}

// Seeder writes a matrix seed file to the configured storage.
type Seeder func(ctx context.Context, f *seed.File) error

func NewStorage(lc fx.Lifecycle, cfg config.Config) (Storage, error) {
	if cfg.Approval.Storage == config.StorageMemory {
		return newMemoryStorage(), nil
	}

	pool, err := NewDB(lc, cfg)
	if err != nil {
		return Storage{}, err
	}
	identity := repository.NewIdentityStore(pool)
	history := repository.NewAuditRepository(pool)
	return Storage{
		UnitOfWork: uow.NewPostgresUoW(pool),
		ReadStore:  readstore.NewRequestReadStore(pool),
		History:    history,
		Identity:   identity,
		AuditSink:  history,
		Users:      targetstore.NewPostgresUserStore(pool),
		Seeder: func(ctx context.Context, f *seed.File) error {
			return seed.ApplyPostgres(ctx, pool, f)
		},
	}, nil
}

func newMemoryStorage() Storage {
	store := memstore.New()
	return Storage{
		UnitOfWork: store,
		ReadStore:  memstore.NewReadStore(store),
		History:    store,
		Identity:   store,
		AuditSink:  store,
		Users:      targetstore.NewMemoryUserStore(),
		Seeder: func(ctx context.Context, f *seed.File) error {
			return seed.Apply(ctx, store, f)
		},
	}
}

func NewDB(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := db.Migrate(ctx, pool); err != nil {
			cleanup()
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}
