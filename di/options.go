package di

import (
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

// Option configures a component registered with Provide or Supply.
type Option interface {
	applyBind(*bindConfig)
}

type bindConfig struct {
	exports     []reflect.Type
	includeSelf bool
	qualifiers  []string
	stereotypes []string
	scope       Scope
	alternative bool
	rank        int
	err         error
}

type bindOptionFunc func(*bindConfig)

func (f bindOptionFunc) applyBind(cfg *bindConfig) { f(cfg) }

type bothOption []Option

func (b bothOption) applyBind(cfg *bindConfig) {
	for _, opt := range b {
		if opt != nil {
			opt.applyBind(cfg)
		}
	}
}

// Both groups multiple options together.
func Both(opts ...Option) Option {
	return bothOption(opts)
}

// As exposes the component as type T. The concrete type is no longer exposed
// unless Self is also given.
func As[T any]() Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.exports = append(cfg.exports, reflectx.TypeOf[T]())
	})
}

// Self keeps the concrete type exposed alongside As types.
func Self() Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.includeSelf = true
	})
}

// Qualified adds qualifier words.
func Qualified(words ...string) Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.qualifiers = append(cfg.qualifiers, words...)
	})
}

// Named adds the name qualifier.
func Named(name string) Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		if name == "" {
			cfg.err = fmt.Errorf("%w: empty name", ErrInvalidBinding)
			return
		}
		cfg.qualifiers = append(cfg.qualifiers, NamedQualifier(name))
	})
}

func InScope(s Scope) Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.scope = s
	})
}

// WithStereotype records stereotype words; their defaults apply when no
// explicit scope or alternative flag is given.
func WithStereotype(names ...string) Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.stereotypes = append(cfg.stereotypes, names...)
	})
}

func Alternative() Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.alternative = true
	})
}

// Rank orders otherwise ambiguous candidates; the highest rank wins.
func Rank(n int) Option {
	return bindOptionFunc(func(cfg *bindConfig) {
		cfg.rank = n
	})
}

func buildDescriptor(m *Markers, self reflect.Type, opts []Option) (Descriptor, error) {
	cfg := bindConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyBind(&cfg)
	}
	if cfg.err != nil {
		return Descriptor{}, cfg.err
	}
	d := Descriptor{
		Qualifiers:  NewQualifiers(cfg.qualifiers...),
		Stereotypes: cfg.stereotypes,
		Scope:       cfg.scope,
		Alternative: cfg.alternative,
		Rank:        cfg.rank,
	}
	for _, name := range cfg.stereotypes {
		st, ok := m.StereotypeOf(name)
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: unknown stereotype %q", ErrInvalidBinding, name)
		}
		if d.Scope == "" {
			d.Scope = st.Scope
		}
		d.Alternative = d.Alternative || st.Alternative
	}
	if d.Scope == "" {
		d.Scope = Singleton
	}
	if len(cfg.exports) == 0 || cfg.includeSelf {
		d.Types = append(d.Types, self)
	}
	for _, t := range cfg.exports {
		if t.Kind() == reflect.Interface {
			if !self.Implements(t) {
				return Descriptor{}, fmt.Errorf("%w: %s does not implement %s", ErrInvalidBinding, self, t)
			}
		} else if t != self {
			return Descriptor{}, fmt.Errorf("%w: %s is not %s", ErrInvalidBinding, self, t)
		}
		d.Types = append(d.Types, t)
	}
	d.Name = d.Qualifiers.Name()
	return d, nil
}
