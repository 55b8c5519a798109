package di

import (
	"strings"
	"sync"
)

// TagKey is the struct tag key read by the container and the bridge.
const TagKey = "di"

const (
	TagInject   = "inject"
	TagOptional = "optional"

	// QualifierDefault and QualifierAny are implicit on every component and are
	// never stored in a Qualifiers set.
	QualifierDefault = "default"
	QualifierAny     = "any"

	namedKey = "name"
)

// Scope identifies the lifetime of a component.
type Scope string

const (
	Dependent   Scope = "dependent"
	Singleton   Scope = "singleton"
	Application Scope = "application"
)

// ParseTag splits a comma-separated tag value into trimmed, non-empty words.
func ParseTag(tag string) []string {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// NamedQualifier returns the qualifier word for name.
func NamedQualifier(name string) string {
	return namedKey + "=" + name
}

func wordKey(word string) string {
	if idx := strings.IndexByte(word, '='); idx >= 0 {
		return word[:idx]
	}
	return word
}

// Stereotype bundles defaults applied to members that carry it.
type Stereotype struct {
	Scope       Scope
	Alternative bool
}

// Markers classifies tag words as qualifiers, scopes or stereotypes.
type Markers struct {
	mu          sync.RWMutex
	qualifiers  map[string]struct{}
	nonbinding  map[string]struct{}
	scopes      map[Scope]bool
	stereotypes map[string]Stereotype
}

// NewMarkers returns a registry with the built-in scopes and qualifiers.
func NewMarkers() *Markers {
	return &Markers{
		qualifiers: map[string]struct{}{
			QualifierDefault: {},
			QualifierAny:     {},
			namedKey:         {},
		},
		nonbinding: map[string]struct{}{},
		scopes: map[Scope]bool{
			Dependent:   false,
			Singleton:   false,
			Application: false,
		},
		stereotypes: map[string]Stereotype{},
	}
}

// Qualifier declares qualifier words. A qualifier may carry a value ("region=eu").
func (m *Markers) Qualifier(names ...string) *Markers {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			m.qualifiers[wordKey(name)] = struct{}{}
		}
	}
	return m
}

// Nonbinding declares qualifiers whose value is handed to the injection
// point but ignored when matching: "produced=x" is satisfied by any component
// qualified "produced".
func (m *Markers) Nonbinding(names ...string) *Markers {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			m.qualifiers[wordKey(name)] = struct{}{}
			m.nonbinding[wordKey(name)] = struct{}{}
		}
	}
	return m
}

func (m *Markers) IsNonbinding(word string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nonbinding[wordKey(word)]
	return ok
}

// Accepts reports whether a component qualified with q satisfies ip.
// Nonbinding qualifiers match on their key alone.
func (m *Markers) Accepts(ip InjectionPoint, q Qualifiers) bool {
	if len(ip.Qualifiers) == 0 {
		return ip.Accepts(q)
	}
	for _, w := range ip.Qualifiers {
		if m.IsNonbinding(w) {
			if !q.hasKey(wordKey(w)) {
				return false
			}
			continue
		}
		if !q.Has(w) {
			return false
		}
	}
	return true
}

// Scope declares custom scopes; they must be activated before use.
func (m *Markers) Scope(scopes ...Scope) *Markers {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range scopes {
		if s == "" {
			continue
		}
		if _, builtin := m.scopes[s]; builtin && !m.scopes[s] {
			continue
		}
		m.scopes[s] = true
	}
	return m
}

// Stereotype declares a stereotype word with its defaults.
func (m *Markers) Stereotype(name string, st Stereotype) *Markers {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		m.stereotypes[name] = st
	}
	return m
}

func (m *Markers) IsQualifier(word string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.qualifiers[wordKey(word)]
	return ok
}

func (m *Markers) IsScope(word string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scopes[Scope(word)]
	return ok
}

func (m *Markers) IsStereotype(word string) bool {
	_, ok := m.StereotypeOf(word)
	return ok
}

func (m *Markers) StereotypeOf(word string) (Stereotype, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.stereotypes[word]
	return st, ok
}

// NeedsActivation reports whether s is a custom scope.
func (m *Markers) NeedsActivation(s Scope) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scopes[s]
}
