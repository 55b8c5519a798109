package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

// Resolve returns the component of type T matching qualifiers.
func Resolve[T any](c *Container, qualifiers ...string) (T, error) {
	var zero T
	v, err := c.ResolveType(reflectx.TypeOf[T](), qualifiers...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("di: resolved %T is not %s", v, reflectx.TypeOf[T]())
	}
	return out, nil
}

// ResolveType resolves a component by type. The qualifier word "any" matches
// every candidate.
func (c *Container) ResolveType(t reflect.Type, qualifiers ...string) (any, error) {
	return c.top.ResolvePoint(Require(t, qualifiers...))
}

// ResolveComponent returns the instance of a specific component.
func (c *Container) ResolveComponent(id ComponentID) (any, error) {
	comp, err := c.component(id)
	if err != nil {
		return nil, err
	}
	return c.top.resolveComponent(comp)
}

// Inject populates the di-tagged fields of target. Dependent instances are
// kept until the container shuts down.
func (c *Container) Inject(target any) error {
	return c.top.Inject(target)
}

// Context returns the context handed to constructors and callbacks.
func (c *Container) Context() context.Context { return c.ctx }

func isUnsatisfied(err error) bool {
	return errors.Is(err, ErrUnsatisfied)
}
