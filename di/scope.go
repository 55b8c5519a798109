package di

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// scopeContext caches one instance per component for the lifetime of a scope.
type scopeContext struct {
	scope   Scope
	mu      sync.Mutex
	entries map[*component]*scopeEntry
	order   []*scopeEntry
	ended   bool
}

type scopeEntry struct {
	once  sync.Once
	comp  *component
	value any
	err   error
	rc    *ResolutionContext
}

func newScopeContext(s Scope) *scopeContext {
	return &scopeContext{scope: s, entries: make(map[*component]*scopeEntry)}
}

func (sc *scopeContext) get(parent *ResolutionContext, comp *component, ip InjectionPoint) (any, error) {
	sc.mu.Lock()
	if sc.ended {
		sc.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrScopeNotActive, sc.scope)
	}
	e, ok := sc.entries[comp]
	if !ok {
		e = &scopeEntry{comp: comp}
		sc.entries[comp] = e
	}
	sc.mu.Unlock()

	e.once.Do(func() {
		e.rc = newResolutionContext(parent.c, parent, comp, &ip)
		e.value, e.err = comp.create(e.rc)
		if e.err != nil {
			e.err = multierr.Append(e.err, e.rc.Release())
			return
		}
		sc.mu.Lock()
		sc.order = append(sc.order, e)
		sc.mu.Unlock()
	})
	return e.value, e.err
}

// end destroys cached instances in reverse creation order. Instances created
// by disposers while the scope ends are destroyed as well.
func (sc *scopeContext) end(ctx context.Context) error {
	var err error
	for {
		sc.mu.Lock()
		if sc.ended {
			sc.mu.Unlock()
			return err
		}
		n := len(sc.order)
		if n == 0 {
			sc.ended = true
			sc.entries = make(map[*component]*scopeEntry)
			sc.mu.Unlock()
			return err
		}
		e := sc.order[n-1]
		sc.order = sc.order[:n-1]
		delete(sc.entries, e.comp)
		sc.mu.Unlock()

		err = multierr.Append(err, e.comp.destroy(ctx, e.value, e.rc))
	}
}
