package di

import (
	"context"

	"go.uber.org/fx"
)

// Module exposes the container to an fx graph. The container is finalized on
// start if it is still open and shut down on stop.
func (c *Container) Module() fx.Option {
	return fx.Module("di",
		fx.Supply(c),
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					c.mu.RLock()
					open := c.state == stateOpen
					c.mu.RUnlock()
					if open {
						return c.Finalize()
					}
					return nil
				},
				OnStop: c.Shutdown,
			})
		}),
	)
}

// Export adapts a container component into an fx constructor. The container
// must be finalized when the constructor runs.
func Export[T any](qualifiers ...string) func(*Container) (T, error) {
	return func(c *Container) (T, error) {
		return Resolve[T](c, qualifiers...)
	}
}
