package ditest

import (
	"github.com/bronystylecrazy/testbridge/cfg"
	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Option configures a test App.
type Option interface {
	apply(*settings)
}

type optionFunc func(*settings)

func (f optionFunc) apply(s *settings) { f(s) }

type settings struct {
	strict           *bool
	verbose          *bool
	scopes           []di.Scope
	markers          *di.Markers
	logger           *zap.Logger
	configuredLogger bool
	configFile       string
	provides         []func(*di.Container) error
	fx               []fx.Option
}

func (s settings) configOptions() []cfg.Option {
	opts := []cfg.Option{cfg.WithEnvPrefix(log.EnvPrefix)}
	if s.configFile != "" {
		opts = append(opts, cfg.WithSourceFile(s.configFile))
	}
	return opts
}

// Strict fails discovery on ambiguous scope or disposal metadata.
func Strict() Option {
	return optionFunc(func(s *settings) {
		v := true
		s.strict = &v
	})
}

// Permissive overrides a strict setting from configuration.
func Permissive() Option {
	return optionFunc(func(s *settings) {
		v := false
		s.strict = &v
	})
}

// Verbose logs discovery and fx events.
func Verbose() Option {
	return optionFunc(func(s *settings) {
		v := true
		s.verbose = &v
	})
}

// ActivateScopes keeps custom scopes active while the app runs.
func ActivateScopes(scopes ...di.Scope) Option {
	return optionFunc(func(s *settings) {
		s.scopes = append(s.scopes, scopes...)
	})
}

// Provide registers a constructor with the container before discovery.
func Provide(constructor any, opts ...di.Option) Option {
	return optionFunc(func(s *settings) {
		s.provides = append(s.provides, func(c *di.Container) error {
			_, err := c.Provide(constructor, opts...)
			return err
		})
	})
}

// Supply registers a value with the container before discovery.
func Supply(value any, opts ...di.Option) Option {
	return optionFunc(func(s *settings) {
		s.provides = append(s.provides, func(c *di.Container) error {
			_, err := c.Supply(value, opts...)
			return err
		})
	})
}

// Markers sets the qualifier, scope and stereotype registry of the container.
func Markers(m *di.Markers) Option {
	return optionFunc(func(s *settings) { s.markers = m })
}

func Logger(l *zap.Logger) Option {
	return optionFunc(func(s *settings) { s.logger = l })
}

// ConfiguredLogger builds the app logger with log.Module, reading the log
// section from the environment and the ConfigFile.
func ConfiguredLogger() Option {
	return optionFunc(func(s *settings) { s.configuredLogger = true })
}

// ConfigFile reads the bridge section from a config file.
func ConfigFile(path string) Option {
	return optionFunc(func(s *settings) { s.configFile = path })
}

// Fx appends raw fx options, e.g. fx.Populate or di.Export constructors.
func Fx(opts ...fx.Option) Option {
	return optionFunc(func(s *settings) { s.fx = append(s.fx, opts...) })
}
