package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ResolutionContext tracks the dependent instances created while a component
// is being created. Releasing it destroys them in reverse creation order.
type ResolutionContext struct {
	id     uuid.UUID
	c      *Container
	parent *ResolutionContext
	comp   *component
	ip     *InjectionPoint

	mu         sync.Mutex
	dependents []dependent
	released   bool
}

type dependent struct {
	comp  *component
	value any
	rc    *ResolutionContext
}

func newResolutionContext(c *Container, parent *ResolutionContext, comp *component, ip *InjectionPoint) *ResolutionContext {
	return &ResolutionContext{id: uuid.New(), c: c, parent: parent, comp: comp, ip: ip}
}

func (rc *ResolutionContext) ID() uuid.UUID { return rc.id }

func (rc *ResolutionContext) Container() *Container { return rc.c }

func (rc *ResolutionContext) Context() context.Context { return rc.c.ctx }

// InjectionPoint returns the site the current component is created for.
// Programmatic lookups and root contexts report false.
func (rc *ResolutionContext) InjectionPoint() (InjectionPoint, bool) {
	if rc.ip == nil {
		return InjectionPoint{}, false
	}
	return *rc.ip, true
}

// Resolve looks up a component by type and required qualifiers.
func (rc *ResolutionContext) Resolve(t reflect.Type, qualifiers Qualifiers) (any, error) {
	return rc.ResolvePoint(InjectionPoint{Type: t, Qualifiers: qualifiers})
}

func (rc *ResolutionContext) ResolvePoint(ip InjectionPoint) (any, error) {
	if ip.Type == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsatisfied)
	}
	if err := rc.c.ready(); err != nil {
		return nil, err
	}
	if ip.Type == containerType {
		return rc.c, nil
	}
	comp, err := rc.c.lookup(ip)
	if err != nil {
		return nil, err
	}
	return rc.instance(comp, ip)
}

func (rc *ResolutionContext) resolveComponent(comp *component) (any, error) {
	if err := rc.c.ready(); err != nil {
		return nil, err
	}
	return rc.instance(comp, InjectionPoint{Type: comp.binding.Types[0], Qualifiers: comp.binding.Qualifiers})
}

func (rc *ResolutionContext) instance(comp *component, ip InjectionPoint) (any, error) {
	for p := rc; p != nil; p = p.parent {
		if p.comp == comp {
			return nil, fmt.Errorf("%w: %s", ErrCircular, rc.path(comp))
		}
	}
	if comp.binding.Scope != Dependent {
		sc, err := rc.c.scopeContext(comp.binding.Scope)
		if err != nil {
			return nil, err
		}
		return sc.get(rc, comp, ip)
	}

	rc.mu.Lock()
	released := rc.released
	rc.mu.Unlock()
	if released {
		return nil, ErrReleased
	}
	child := newResolutionContext(rc.c, rc, comp, &ip)
	v, err := comp.create(child)
	if err != nil {
		return nil, multierr.Append(err, child.Release())
	}
	rc.mu.Lock()
	rc.dependents = append(rc.dependents, dependent{comp: comp, value: v, rc: child})
	rc.mu.Unlock()
	return v, nil
}

func (rc *ResolutionContext) path(next *component) string {
	var chain []*component
	for p := rc; p != nil; p = p.parent {
		if p.comp != nil {
			chain = append([]*component{p.comp}, chain...)
		}
	}
	chain = append(chain, next)
	return fmt.Sprint(chain)
}

// Inject populates the tagged fields of target.
func (rc *ResolutionContext) Inject(target any) error {
	return inject(rc, target)
}

// Release destroys the dependent instances created in this context. It is
// safe to call more than once.
func (rc *ResolutionContext) Release() error {
	rc.mu.Lock()
	if rc.released {
		rc.mu.Unlock()
		return nil
	}
	rc.released = true
	deps := rc.dependents
	rc.dependents = nil
	rc.mu.Unlock()

	var err error
	for i := len(deps) - 1; i >= 0; i-- {
		d := deps[i]
		err = multierr.Append(err, d.comp.destroy(rc.c.ctx, d.value, d.rc))
	}
	return err
}

func (c *component) create(rc *ResolutionContext) (any, error) {
	v, err := c.binding.Create(rc)
	if err != nil {
		return nil, fmt.Errorf("di: create %s: %w", c, err)
	}
	return v, nil
}

func (c *component) destroy(ctx context.Context, v any, rc *ResolutionContext) error {
	var err error
	if c.binding.Destroy != nil {
		if derr := c.binding.Destroy(ctx, v, rc); derr != nil {
			err = fmt.Errorf("di: destroy %s: %w", c, derr)
		}
	}
	if rc != nil {
		err = multierr.Append(err, rc.Release())
	}
	return err
}
