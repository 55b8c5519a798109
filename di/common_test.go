package di

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct{ word string }

func (g *englishGreeter) Greet() string { return g.word }

type counter struct {
	constructed atomic.Int32
	destroyed   atomic.Int32
	order       []string
}

type tracked struct {
	id  string
	rec *counter
}

func (t *tracked) PostConstruct(context.Context) error {
	t.rec.constructed.Add(1)
	return nil
}

func (t *tracked) PreDestroy(context.Context) error {
	t.rec.destroyed.Add(1)
	t.rec.order = append(t.rec.order, t.id)
	return nil
}

type failingDestroy struct{ msg string }

func (f *failingDestroy) PreDestroy(context.Context) error { return errors.New(f.msg) }

func mustFinalize(t *testing.T, c *Container) {
	t.Helper()
	if err := c.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
