package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type state int

const (
	stateOpen state = iota
	stateFinalized
	// stateClosing still resolves so disposers can receive their parameters.
	stateClosing
	stateClosed
)

var containerType = reflect.TypeOf((*Container)(nil))

// Container holds registered components and the scope contexts caching their
// instances.
type Container struct {
	mu          sync.RWMutex
	state       state
	markers     *Markers
	log         *zap.Logger
	ctx         context.Context
	components  []*component
	subscribers []Subscriber
	contexts    map[Scope]*scopeContext
	top         *ResolutionContext
}

type component struct {
	id      ComponentID
	binding Binding
}

func (c *component) String() string {
	return fmt.Sprintf("#%d %s", c.id, c.binding.Descriptor)
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

func WithLogger(logger *zap.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.log = logger
		}
	}
}

func WithMarkers(markers *Markers) ContainerOption {
	return func(c *Container) {
		if markers != nil {
			c.markers = markers
		}
	}
}

// WithContext sets the context handed to constructors and lifecycle callbacks.
func WithContext(ctx context.Context) ContainerOption {
	return func(c *Container) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

func New(opts ...ContainerOption) *Container {
	c := &Container{
		markers:  NewMarkers(),
		log:      zap.NewNop(),
		ctx:      context.Background(),
		contexts: make(map[Scope]*scopeContext),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log = c.log.Named("di")
	c.contexts[Singleton] = newScopeContext(Singleton)
	c.contexts[Application] = newScopeContext(Application)
	c.top = newResolutionContext(c, nil, nil, nil)
	return c
}

func (c *Container) Markers() *Markers { return c.markers }

func (c *Container) Logger() *zap.Logger { return c.log }

func (c *Container) checkOpen() error {
	switch c.state {
	case stateFinalized:
		return ErrFinalized
	case stateClosing, stateClosed:
		return ErrClosed
	}
	return nil
}

func (c *Container) ready() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.state {
	case stateOpen:
		return ErrNotFinalized
	case stateClosed:
		return ErrClosed
	}
	return nil
}

// AddComponent registers a binding. The zero scope is Dependent.
func (c *Container) AddComponent(b Binding) (ComponentID, error) {
	if b.Create == nil {
		return 0, fmt.Errorf("%w: nil create for %s", ErrInvalidBinding, b.Descriptor)
	}
	if len(b.Types) == 0 {
		return 0, fmt.Errorf("%w: no bean types", ErrInvalidBinding)
	}
	for _, t := range b.Types {
		if t == nil {
			return 0, fmt.Errorf("%w: nil bean type", ErrInvalidBinding)
		}
	}
	if b.Scope == "" {
		b.Scope = Dependent
	}
	b.Qualifiers = NewQualifiers(b.Qualifiers...)
	if b.Name == "" {
		b.Name = b.Qualifiers.Name()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	comp := &component{id: ComponentID(len(c.components) + 1), binding: b}
	c.components = append(c.components, comp)
	c.log.Debug("component registered",
		zap.Int("id", int(comp.id)),
		zap.Stringer("descriptor", b.Descriptor),
	)
	return comp.id, nil
}

// AddSubscriber registers an event subscriber.
func (c *Container) AddSubscriber(s Subscriber) error {
	if s.ObservedType == nil || s.Notify == nil {
		return fmt.Errorf("%w: subscriber needs an observed type and a notify func", ErrInvalidBinding)
	}
	s.Qualifiers = NewQualifiers(s.Qualifiers...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.subscribers = append(c.subscribers, s)
	c.log.Debug("subscriber registered", zap.Stringer("subscriber", s))
	return nil
}

// Finalize validates the registry and closes registration.
func (c *Container) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	var err error
	for _, comp := range c.components {
		if !c.markers.IsScope(string(comp.binding.Scope)) {
			err = multierr.Append(err, fmt.Errorf("%w %q on %s", ErrUnknownScope, comp.binding.Scope, comp))
		}
	}
	if err != nil {
		return err
	}
	c.state = stateFinalized
	c.log.Debug("container finalized",
		zap.Int("components", len(c.components)),
		zap.Int("subscribers", len(c.subscribers)),
	)
	return nil
}

func (c *Container) Finalized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateFinalized
}

// Components returns the descriptors of every registered component in
// registration order.
func (c *Container) Components() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Descriptor, 0, len(c.components))
	for _, comp := range c.components {
		out = append(out, comp.binding.Descriptor)
	}
	return out
}

func (c *Container) component(id ComponentID) (*component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id < 1 || int(id) > len(c.components) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return c.components[id-1], nil
}

func (c *Container) lookup(ip InjectionPoint) (*component, error) {
	c.mu.RLock()
	var candidates []*component
	for _, comp := range c.components {
		if comp.binding.Provides(ip.Type) && c.markers.Accepts(ip, comp.binding.Qualifiers) {
			candidates = append(candidates, comp)
		}
	}
	c.mu.RUnlock()
	return selectCandidate(ip, candidates)
}

func selectCandidate(ip InjectionPoint, candidates []*component) (*component, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsatisfied, ip)
	}
	var alternatives []*component
	for _, comp := range candidates {
		if comp.binding.Alternative {
			alternatives = append(alternatives, comp)
		}
	}
	if len(alternatives) > 0 {
		candidates = alternatives
	}
	best := candidates[0].binding.Rank
	for _, comp := range candidates[1:] {
		if comp.binding.Rank > best {
			best = comp.binding.Rank
		}
	}
	var top []*component
	for _, comp := range candidates {
		if comp.binding.Rank == best {
			top = append(top, comp)
		}
	}
	if len(top) > 1 {
		return nil, fmt.Errorf("%w: %s matches %v", ErrAmbiguous, ip, top)
	}
	return top[0], nil
}

func (c *Container) scopeContext(s Scope) (*scopeContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sc, ok := c.contexts[s]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScopeNotActive, s)
	}
	return sc, nil
}

// ActivateScope starts a custom scope. The returned func ends it and destroys
// the instances it cached.
func (c *Container) ActivateScope(s Scope) (func(context.Context) error, error) {
	if !c.markers.IsScope(string(s)) {
		return nil, fmt.Errorf("%w %q", ErrUnknownScope, s)
	}
	if !c.markers.NeedsActivation(s) {
		return nil, fmt.Errorf("%w: %s", ErrScopeActive, s)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state >= stateClosing {
		return nil, ErrClosed
	}
	if _, ok := c.contexts[s]; ok {
		return nil, fmt.Errorf("%w: %s", ErrScopeActive, s)
	}
	sc := newScopeContext(s)
	c.contexts[s] = sc
	c.log.Debug("scope activated", zap.String("scope", string(s)))

	return func(ctx context.Context) error {
		c.mu.Lock()
		if c.contexts[s] != sc {
			c.mu.Unlock()
			return nil
		}
		delete(c.contexts, s)
		c.mu.Unlock()
		c.log.Debug("scope ended", zap.String("scope", string(s)))
		return sc.end(ctx)
	}, nil
}

// Shutdown ends active custom scopes, then the application and singleton
// contexts, and releases the top-level resolution context. Components can
// still be resolved while this runs.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.state >= stateClosing {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosing
	var custom []*scopeContext
	for s, sc := range c.contexts {
		if s != Singleton && s != Application {
			custom = append(custom, sc)
		}
	}
	builtin := []*scopeContext{c.contexts[Application], c.contexts[Singleton]}
	c.mu.Unlock()

	var err error
	for _, sc := range append(custom, builtin...) {
		err = multierr.Append(err, sc.end(ctx))
	}
	err = multierr.Append(err, c.top.Release())

	c.mu.Lock()
	c.state = stateClosed
	c.contexts = map[Scope]*scopeContext{}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("container shutdown finished with errors", zap.Error(err))
	} else {
		c.log.Debug("container shut down")
	}
	return err
}
