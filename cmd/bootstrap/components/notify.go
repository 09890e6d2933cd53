package components

import (
	"log/slog"

	"approval-engine/internal/infra/audit"
	"approval-engine/internal/infra/notify"
	"approval-engine/internal/usecase/commands"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewMetricsRegistry,
		func(reg *prometheus.Registry) *notify.Metrics {
			return notify.NewMetrics(reg)
		},
		fx.Annotate(
			func(logger *slog.Logger, metrics *notify.Metrics) *notify.Fanout {
				return notify.NewFanout(notify.NewLogNotifier(logger), metrics)
			},
			fx.As(new(commands.Notifier)),
		),
		fx.Annotate(
			audit.NewLog,
			fx.As(new(commands.AuditHook)),
		),
	),
)

func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
