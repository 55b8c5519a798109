package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errNilEvent = errors.New("di: event must not be nil")

func (c *Container) observers(event any, qualifiers []string, async bool) ([]Subscriber, error) {
	if event == nil {
		return nil, errNilEvent
	}
	if err := c.ready(); err != nil {
		return nil, err
	}
	et := reflect.TypeOf(event)
	fired := NewQualifiers(qualifiers...)

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Subscriber
	for _, s := range c.subscribers {
		if s.Async != async {
			continue
		}
		if !et.AssignableTo(s.ObservedType) {
			continue
		}
		if !fired.ContainsAll(s.Qualifiers) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Fire notifies synchronous subscribers in registration order. The first
// error stops delivery.
func (c *Container) Fire(ctx context.Context, event any, qualifiers ...string) error {
	subs, err := c.observers(event, qualifiers, false)
	if err != nil {
		return err
	}
	c.log.Debug("firing event", zap.String("type", fmt.Sprintf("%T", event)), zap.Int("subscribers", len(subs)))
	for _, s := range subs {
		if err := s.Notify(ctx, event); err != nil {
			return fmt.Errorf("di: notify %s: %w", s, err)
		}
	}
	return nil
}

// FireAsync notifies asynchronous subscribers concurrently and waits for all
// of them.
func (c *Container) FireAsync(ctx context.Context, event any, qualifiers ...string) error {
	subs, err := c.observers(event, qualifiers, true)
	if err != nil {
		return err
	}
	c.log.Debug("firing async event", zap.String("type", fmt.Sprintf("%T", event)), zap.Int("subscribers", len(subs)))
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range subs {
		g.Go(func() error {
			if err := s.Notify(gctx, event); err != nil {
				return fmt.Errorf("di: notify %s: %w", s, err)
			}
			return nil
		})
	}
	return g.Wait()
}
