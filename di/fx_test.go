package di

import (
	"errors"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModuleExportsComponentsToFx(t *testing.T) {
	c := New()
	g := &englishGreeter{word: "fx"}
	_, err := c.Supply(g, As[greeter]())
	mustNoErr(t, err)
	mustFinalize(t, c)

	var got greeter
	var self *Container
	app := fxtest.New(t,
		c.Module(),
		fx.Provide(Export[greeter]()),
		fx.Populate(&got, &self),
	)
	app.RequireStart()
	if got != g {
		t.Fatalf("expected exported component, got %v", got)
	}
	if self != c {
		t.Fatalf("expected container to be supplied")
	}
	app.RequireStop()
	if _, err := Resolve[greeter](c); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected container shut down on stop, got %v", err)
	}
}

func TestModuleFinalizesOpenContainer(t *testing.T) {
	c := New()
	app := fxtest.New(t, c.Module())
	app.RequireStart()
	if !c.Finalized() {
		t.Fatalf("expected container finalized on start")
	}
	app.RequireStop()
}
