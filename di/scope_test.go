package di

import (
	"context"
	"errors"
	"testing"
)

const requestScope Scope = "request"

func TestCustomScopeLifecycle(t *testing.T) {
	rec := &counter{}
	c := New(WithMarkers(NewMarkers().Scope(requestScope)))
	_, err := c.Provide(func() *tracked { return &tracked{id: "req", rec: rec} }, InScope(requestScope))
	mustNoErr(t, err)
	mustFinalize(t, c)

	if _, err := Resolve[*tracked](c); !errors.Is(err, ErrScopeNotActive) {
		t.Fatalf("expected ErrScopeNotActive, got %v", err)
	}

	end, err := c.ActivateScope(requestScope)
	mustNoErr(t, err)
	first, err := Resolve[*tracked](c)
	mustNoErr(t, err)
	second, err := Resolve[*tracked](c)
	mustNoErr(t, err)
	if first != second {
		t.Fatalf("scoped component must be cached within the scope")
	}
	if _, err := c.ActivateScope(requestScope); !errors.Is(err, ErrScopeActive) {
		t.Fatalf("expected ErrScopeActive, got %v", err)
	}

	mustNoErr(t, end(context.Background()))
	if rec.destroyed.Load() != 1 {
		t.Fatalf("expected one destroy on scope end, got %d", rec.destroyed.Load())
	}
	mustNoErr(t, end(context.Background()))
	if rec.destroyed.Load() != 1 {
		t.Fatalf("ending twice must not destroy again")
	}

	end, err = c.ActivateScope(requestScope)
	mustNoErr(t, err)
	third, err := Resolve[*tracked](c)
	mustNoErr(t, err)
	if third == first {
		t.Fatalf("a new scope must create a new instance")
	}
	mustNoErr(t, c.Shutdown(context.Background()))
	if rec.destroyed.Load() != 2 {
		t.Fatalf("shutdown must end active custom scopes, destroyed=%d", rec.destroyed.Load())
	}
	mustNoErr(t, end(context.Background()))
}

func TestActivateBuiltinOrUnknownScope(t *testing.T) {
	c := New()
	mustFinalize(t, c)
	if _, err := c.ActivateScope(Singleton); !errors.Is(err, ErrScopeActive) {
		t.Fatalf("expected ErrScopeActive for singleton, got %v", err)
	}
	if _, err := c.ActivateScope("nope"); !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestDependentIsNewPerInjection(t *testing.T) {
	c := New()
	_, err := c.Provide(func() *englishGreeter { return &englishGreeter{} }, InScope(Dependent))
	mustNoErr(t, err)
	mustFinalize(t, c)
	a, err := Resolve[*englishGreeter](c)
	mustNoErr(t, err)
	b, err := Resolve[*englishGreeter](c)
	mustNoErr(t, err)
	if a == b {
		t.Fatalf("dependent component must not be shared")
	}
}
