package ditest

import (
	"context"
	"slices"
	"testing"

	"github.com/bronystylecrazy/testbridge/bridge"
	"github.com/bronystylecrazy/testbridge/cfg"
	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/lifecycle"
	"github.com/bronystylecrazy/testbridge/log"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// ConfigKey is the configuration section of the bridge settings.
const ConfigKey = "bridge"

// App wraps fxtest.App with a container populated from a chain of test
// instances.
type App struct {
	app       *fxtest.App
	settings  settings
	chain     []any
	container *di.Container
	pass      *bridge.Pass
	ends      []func(context.Context) error
}

// New builds a test app. Items are either Options or chain instances
// (pointers to structs), outermost first. Discovery runs while the app is
// built; start activates the requested scopes and materializes every chain
// instance; stop shuts the container down.
func New(t testing.TB, items ...any) *App {
	t.Helper()
	a := &App{}
	for _, item := range items {
		if opt, ok := item.(Option); ok {
			opt.apply(&a.settings)
			continue
		}
		a.chain = append(a.chain, item)
	}
	var opts []fx.Option
	switch {
	case a.settings.logger != nil:
		opts = append(opts, fx.Supply(a.settings.logger))
	case a.settings.configuredLogger:
		opts = append(opts, log.Module(a.settings.configOptions()...))
	default:
		opts = append(opts, fx.Supply(zaptest.NewLogger(t)))
	}
	opts = append(opts,
		cfg.Provide[bridge.Config](ConfigKey, a.settings.configOptions()...),
		fx.Provide(a.newBridge, a.discover),
		fx.Invoke(a.register),
		fx.Populate(&a.container, &a.pass),
	)
	if a.settings.verbose != nil && *a.settings.verbose {
		opts = append(opts, fx.WithLogger(log.NewEventLogger))
	} else {
		opts = append(opts, fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }))
	}
	opts = append(opts, a.settings.fx...)
	a.app = fxtest.New(t, opts...)
	return a
}

func (a *App) newBridge(conf bridge.Config, logger *zap.Logger) *bridge.Bridge {
	if a.settings.strict != nil {
		conf.Strict = *a.settings.strict
	}
	if a.settings.verbose != nil {
		conf.Verbose = *a.settings.verbose
	}
	return bridge.New(bridge.WithConfig(conf), bridge.WithLogger(logger))
}

func (a *App) discover(b *bridge.Bridge, logger *zap.Logger) (*di.Container, *bridge.Pass, error) {
	c := di.New(di.WithLogger(logger), di.WithMarkers(a.settings.markers))
	for _, provide := range a.settings.provides {
		if err := provide(c); err != nil {
			return nil, nil, err
		}
	}
	p, err := b.Discover(c, a.chain...)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Finalize(); err != nil {
		return nil, nil, err
	}
	if err := p.Close(); err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func (a *App) register(lc fx.Lifecycle, c *di.Container, p *bridge.Pass) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, s := range activeScopes(a.settings.scopes, p.ActivateScopes()) {
				end, err := c.ActivateScope(s)
				if err != nil {
					return err
				}
				a.ends = append(a.ends, end)
			}
			for _, root := range p.Roots() {
				if _, err := c.ResolveComponent(root.ID); err != nil {
					return err
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var err error
			for i := len(a.ends) - 1; i >= 0; i-- {
				err = multierr.Append(err, a.ends[i](ctx))
			}
			a.ends = nil
			return multierr.Append(err, c.Shutdown(ctx))
		},
	})
	lifecycle.AppendHooks(lc, a.chain...)
}

func activeScopes(requested, declared []di.Scope) []di.Scope {
	out := slices.Clone(requested)
	for _, s := range declared {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// RequireStart starts the app and fails the test on error.
func (a *App) RequireStart() *App {
	a.app.RequireStart()
	return a
}

// RequireStop stops the app and fails the test on error.
func (a *App) RequireStop() *App {
	a.app.RequireStop()
	return a
}

// Fx exposes the underlying fxtest.App.
func (a *App) Fx() *fxtest.App {
	return a.app
}

func (a *App) Container() *di.Container {
	return a.container
}

func (a *App) Pass() *bridge.Pass {
	return a.pass
}

// Fire delivers event to synchronous subscribers.
func (a *App) Fire(ctx context.Context, event any, qualifiers ...string) error {
	return a.container.Fire(ctx, event, qualifiers...)
}

// FireAsync delivers event to asynchronous subscribers and waits for them.
func (a *App) FireAsync(ctx context.Context, event any, qualifiers ...string) error {
	return a.container.FireAsync(ctx, event, qualifiers...)
}

// Resolve returns the component of type T and fails the test on error.
func Resolve[T any](t testing.TB, a *App, qualifiers ...string) T {
	t.Helper()
	v, err := di.Resolve[T](a.container, qualifiers...)
	if err != nil {
		t.Fatalf("ditest: %v", err)
	}
	return v
}
