package bridge

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registrar is the discovery-time registration surface of a container.
type Registrar interface {
	Markers() *di.Markers
	AddComponent(b di.Binding) (di.ComponentID, error)
	AddSubscriber(s di.Subscriber) error
}

var _ Registrar = (*di.Container)(nil)

type Phase int

const (
	PhaseUnregistered Phase = iota
	PhaseExclusionComputed
	PhaseMembersExtracted
	PhaseBindingsRegistered
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnregistered:
		return "unregistered"
	case PhaseExclusionComputed:
		return "exclusion-computed"
	case PhaseMembersExtracted:
		return "members-extracted"
	case PhaseBindingsRegistered:
		return "bindings-registered"
	case PhaseClosed:
		return "closed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Bridge registers externally-owned instances into a container. An instance
// can be discovered once per Bridge.
type Bridge struct {
	cfg        Config
	log        *zap.Logger
	mu         sync.Mutex
	discovered map[any]struct{}
}

func New(opts ...Option) *Bridge {
	b := &Bridge{log: zap.NewNop(), discovered: map[any]struct{}{}}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.log = b.log.Named("bridge")
	return b
}

func (b *Bridge) Config() Config { return b.cfg }

// Pass is one discovery over an instance chain.
type Pass struct {
	id         uuid.UUID
	bridge     *Bridge
	reg        Registrar
	resolver   Resolver
	log        *zap.Logger
	plans      []*instancePlan
	exclusions ExclusionSet
	scopes     []di.Scope
	roots      []Root
	components []di.ComponentID
	observers  int
	phase      Phase
}

type instancePlan struct {
	instance  any
	root      reflect.Value
	class     *ClassMembers
	rank      int
	fields    []FieldMember
	producers []MethodMember
}

// Discover registers the chain, outermost instance first. Inner instances
// rank higher, so their providers shadow those of outer instances.
//
// On error the instances may be discovered again, but components registered
// before the failure stay in reg; discard the registrar.
func (b *Bridge) Discover(reg Registrar, chain ...any) (*Pass, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}
	seen := map[any]struct{}{}
	for i, inst := range chain {
		v := reflect.ValueOf(inst)
		if inst == nil || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: chain[%d] is %T", ErrInvalidInstance, i, inst)
		}
		if _, dup := seen[inst]; dup {
			return nil, fmt.Errorf("%w: chain[%d] %T", ErrDuplicateInstance, i, inst)
		}
		seen[inst] = struct{}{}
	}
	if err := b.claim(chain); err != nil {
		return nil, err
	}
	p, err := b.discover(reg, chain)
	if err != nil {
		b.release(chain)
		return nil, err
	}
	return p, nil
}

func (b *Bridge) discover(reg Registrar, chain []any) (*Pass, error) {
	p := &Pass{
		id:     uuid.New(),
		bridge: b,
		reg:    reg,
	}
	p.log = b.log.With(zap.String("pass", p.id.String()))
	p.resolver = Resolver{Markers: reg.Markers(), Strict: b.cfg.Strict, Logger: p.log}

	var classes []*ClassMembers
	for i, inst := range chain {
		cm, err := Extract(reflect.TypeOf(inst))
		if err != nil {
			return nil, err
		}
		classes = append(classes, cm)
		p.plans = append(p.plans, &instancePlan{
			instance: inst,
			root:     reflect.ValueOf(inst).Elem(),
			class:    cm,
			rank:     i + 1,
		})
	}
	p.exclusions = ComputeExclusions(classes)
	for _, cm := range classes {
		for _, sc := range cm.Scopes {
			if !slices.Contains(p.scopes, sc) {
				p.scopes = append(p.scopes, sc)
			}
		}
	}
	if err := p.advance(PhaseExclusionComputed); err != nil {
		return nil, err
	}

	for _, plan := range p.plans {
		for _, f := range plan.class.Fields {
			if p.exclusions.Excludes(f.Key(), f.Type) {
				p.log.Debug("provider field excluded", zap.Stringer("member", f.Key()))
				continue
			}
			plan.fields = append(plan.fields, f)
		}
		for _, m := range plan.class.Producers {
			if p.exclusions.Excludes(m.Key(), m.Result) {
				p.log.Debug("provider method excluded", zap.Stringer("member", m.Key()))
				continue
			}
			plan.producers = append(plan.producers, m)
		}
	}
	if err := p.advance(PhaseMembersExtracted); err != nil {
		return nil, err
	}

	var err error
	for _, plan := range p.plans {
		err = multierr.Append(err, p.register(plan))
	}
	if err != nil {
		return nil, err
	}
	if err := p.advance(PhaseBindingsRegistered); err != nil {
		return nil, err
	}
	p.log.Debug("discovery finished",
		zap.Int("instances", len(p.plans)),
		zap.Int("components", len(p.components)),
		zap.Int("subscribers", p.observers),
	)
	return p, nil
}

func (b *Bridge) claim(chain []any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, inst := range chain {
		if _, ok := b.discovered[inst]; ok {
			return fmt.Errorf("%w: %T", ErrAlreadyDiscovered, inst)
		}
	}
	for _, inst := range chain {
		b.discovered[inst] = struct{}{}
	}
	return nil
}

func (b *Bridge) release(chain []any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, inst := range chain {
		delete(b.discovered, inst)
	}
}

func (p *Pass) advance(to Phase) error {
	if p.phase != to-1 {
		return fmt.Errorf("%w: %s to %s", ErrPhase, p.phase, to)
	}
	p.phase = to
	return nil
}

func (p *Pass) register(plan *instancePlan) error {
	var err error
	for _, f := range plan.fields {
		member := f.Key().String()
		res, rerr := p.resolver.Resolve(member, f.Tags)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		joined, jerr := p.join(plan.class, member, f.DeclaringType, f.Type, res.Qualifiers)
		if jerr != nil {
			err = multierr.Append(err, jerr)
			continue
		}
		err = multierr.Append(err, p.add(member, di.Binding{
			Descriptor: res.Descriptor(f.Type, f.DeclaringType, plan.rank),
			Create:     p.readField(plan, f),
			Destroy:    p.dispose(plan, joined),
		}))
	}
	for _, m := range plan.producers {
		member := m.Key().String()
		res, rerr := p.resolver.Resolve(member, m.Tags)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		joined, jerr := p.join(plan.class, member, m.DeclaringType, m.Result, res.Qualifiers)
		if jerr != nil {
			err = multierr.Append(err, jerr)
			continue
		}
		err = multierr.Append(err, p.add(member, di.Binding{
			Descriptor: res.Descriptor(m.Result, m.DeclaringType, plan.rank),
			Create:     p.invokeProducer(plan, m),
			Destroy:    p.dispose(plan, joined),
		}))
	}
	for _, m := range plan.class.Observers {
		for _, s := range p.subscribers(plan, m) {
			if serr := p.reg.AddSubscriber(s); serr != nil {
				err = multierr.Append(err, memberErr(m.Key().String(), "register", serr))
				continue
			}
			p.observers++
			p.trace("subscriber registered", m.Key().String())
		}
	}

	root, rerr := p.rootBinding(plan)
	if rerr != nil {
		return multierr.Append(err, rerr)
	}
	id, aerr := p.reg.AddComponent(root)
	if aerr != nil {
		return multierr.Append(err, memberErr(plan.class.Struct.String(), "register", aerr))
	}
	p.roots = append(p.roots, Root{Instance: plan.instance, ID: id, Descriptor: root.Descriptor})
	return err
}

func (p *Pass) add(member string, b di.Binding) error {
	id, err := p.reg.AddComponent(b)
	if err != nil {
		return memberErr(member, "register", err)
	}
	p.components = append(p.components, id)
	p.log.Debug("provider registered", zap.String("member", member), zap.Stringer("descriptor", b.Descriptor))
	return nil
}

func (p *Pass) trace(msg, member string) {
	if p.bridge.cfg.Verbose {
		p.log.Debug(msg, zap.String("member", member))
	}
}

// Close ends the pass once the container has been finalized.
func (p *Pass) Close() error {
	return p.advance(PhaseClosed)
}

func (p *Pass) ID() uuid.UUID { return p.id }

func (p *Pass) Phase() Phase { return p.phase }

// Roots returns the registered instances, outermost first.
func (p *Pass) Roots() []Root { return p.roots }

// Components returns the ids of the registered provider components.
func (p *Pass) Components() []di.ComponentID { return p.components }

func (p *Pass) Exclusions() ExclusionSet { return p.exclusions }

// ActivateScopes lists the scopes declared by any instance of the chain,
// outermost first.
func (p *Pass) ActivateScopes() []di.Scope { return p.scopes }
