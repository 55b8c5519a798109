package lifecycle

import (
	"context"
	"fmt"
)

// PostConstructor is called once after a component has been created and its
// fields injected.
type PostConstructor interface {
	PostConstruct(ctx context.Context) error
}

// PreDestroyer is called once before a component is discarded.
type PreDestroyer interface {
	PreDestroy(ctx context.Context) error
}

type Starter interface {
	Start(ctx context.Context) error
}

type Stopper interface {
	Stop(ctx context.Context) error
}

// PostConstruct runs the PostConstructor callback of v, if any.
func PostConstruct(ctx context.Context, v any) error {
	pc, ok := v.(PostConstructor)
	if !ok {
		return nil
	}
	if err := pc.PostConstruct(ctx); err != nil {
		return fmt.Errorf("lifecycle: post-construct %T: %w", v, err)
	}
	return nil
}

// PreDestroy runs the PreDestroyer callback of v, if any.
func PreDestroy(ctx context.Context, v any) error {
	pd, ok := v.(PreDestroyer)
	if !ok {
		return nil
	}
	if err := pd.PreDestroy(ctx); err != nil {
		return fmt.Errorf("lifecycle: pre-destroy %T: %w", v, err)
	}
	return nil
}
