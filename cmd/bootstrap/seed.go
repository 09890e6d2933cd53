package bootstrap

import (
	"context"
	"log/slog"

	"approval-engine/internal/infra/seed"
	"approval-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var SeedModule = fx.Module("seed",
	fx.Invoke(LoadMatrix),
)

// LoadMatrix applies APPROVAL_MATRIX_FILE, when set, before the server starts.
func LoadMatrix(lc fx.Lifecycle, cfg config.Config, seeder Seeder, logger *slog.Logger) {
	path := cfg.Approval.MatrixFile
	if path == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			f, err := seed.FromFile(path)
			if err != nil {
				return err
			}
			if err := seeder(ctx, f); err != nil {
				return err
			}
			logger.Info("アクセス制御マトリクスを読み込みました",
				"file", path,
				"roles", len(f.Roles),
				"access_controls", len(f.AccessControls))
			return nil
		},
	})
}
