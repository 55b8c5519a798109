package bridge

import "go.uber.org/zap"

// Config switches between the permissive and strict metadata policies.
type Config struct {
	// Strict turns multiple scope tags on a member and several matching
	// disposal methods into discovery errors.
	Strict bool `mapstructure:"strict"`
	// Verbose logs every extracted member and registration at debug level.
	Verbose bool `mapstructure:"verbose"`
}

type Option func(*Bridge)

func WithConfig(cfg Config) Option {
	return func(b *Bridge) {
		b.cfg = cfg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.log = logger
		}
	}
}
