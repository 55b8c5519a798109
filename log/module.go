package log

import (
	"github.com/bronystylecrazy/testbridge/cfg"
	"go.uber.org/fx"
)

// EnvPrefix prefixes environment overrides, e.g. TESTBRIDGE_LOG_LEVEL.
const EnvPrefix = "TESTBRIDGE"

// Module provides a *zap.Logger configured from the log section and routes
// fx events through it.
func Module(opts ...cfg.Option) fx.Option {
	opts = append([]cfg.Option{cfg.WithEnvPrefix(EnvPrefix), cfg.WithDefault("log.level", DefaultLevel())}, opts...)
	return fx.Module("log",
		cfg.Provide[Config]("log", opts...),
		fx.Provide(NewZapLogger),
		fx.WithLogger(NewEventLogger),
	)
}
