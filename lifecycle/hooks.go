package lifecycle

import (
	"go.uber.org/fx"
)

// AppendHooks registers fx hooks for every value implementing Starter or
// Stopper, ordered by priority.
func AppendHooks(lc fx.Lifecycle, values ...any) {
	var starters []Starter
	var stoppers []Stopper
	for _, v := range values {
		if s, ok := v.(Starter); ok {
			starters = append(starters, s)
		}
		if s, ok := v.(Stopper); ok {
			stoppers = append(stoppers, s)
		}
	}
	AppendStarters(lc, starters...)
	AppendStoppers(lc, stoppers...)
}

func AppendStarters(lc fx.Lifecycle, starters ...Starter) {
	for _, starter := range sortByPriority(starters) {
		lc.Append(fx.Hook{
			OnStart: starter.Start,
		})
	}
}

// AppendStoppers registers stop hooks. Fx runs OnStop hooks in reverse
// registration order.
func AppendStoppers(lc fx.Lifecycle, stoppers ...Stopper) {
	for _, stopper := range sortByPriority(stoppers) {
		lc.Append(fx.Hook{
			OnStop: stopper.Stop,
		})
	}
}
