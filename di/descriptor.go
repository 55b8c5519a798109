package di

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// ComponentID identifies a registered component.
type ComponentID int

// Descriptor is the metadata the container resolves components by.
type Descriptor struct {
	Types         []reflect.Type
	Qualifiers    Qualifiers
	Stereotypes   []string
	Scope         Scope
	Name          string
	DeclaringType reflect.Type
	Alternative   bool
	// Rank orders otherwise ambiguous candidates; the highest rank wins.
	Rank int
}

func (d Descriptor) String() string {
	names := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		names = append(names, t.String())
	}
	var b strings.Builder
	b.WriteString(strings.Join(names, "|"))
	b.WriteString(" ")
	b.WriteString(d.Qualifiers.String())
	fmt.Fprintf(&b, " (%s", d.Scope)
	if d.Alternative {
		b.WriteString(", alternative")
	}
	if d.Rank != 0 {
		fmt.Fprintf(&b, ", rank %d", d.Rank)
	}
	b.WriteString(")")
	return b.String()
}

// Provides reports whether a value of t can be obtained from the component.
func (d Descriptor) Provides(t reflect.Type) bool {
	for _, bt := range d.Types {
		if bt == t {
			return true
		}
		if t.Kind() == reflect.Interface && bt.Implements(t) {
			return true
		}
	}
	return false
}

// Binding couples a descriptor with its create and destroy behavior.
type Binding struct {
	Descriptor
	Create  func(rc *ResolutionContext) (any, error)
	Destroy func(ctx context.Context, value any, rc *ResolutionContext) error
}

// Subscriber receives fired events assignable to ObservedType whose
// qualifiers include the subscriber's.
type Subscriber struct {
	ObservedType  reflect.Type
	Qualifiers    Qualifiers
	Async         bool
	DeclaringType reflect.Type
	Notify        func(ctx context.Context, event any) error
}

func (s Subscriber) String() string {
	mode := "sync"
	if s.Async {
		mode = "async"
	}
	owner := "<nil>"
	if s.DeclaringType != nil {
		owner = s.DeclaringType.String()
	}
	return fmt.Sprintf("%s observer of %s %s on %s", mode, s.ObservedType, s.Qualifiers, owner)
}

// InjectionPoint describes the site a component is requested for.
type InjectionPoint struct {
	Type       reflect.Type
	Qualifiers Qualifiers
	// Any matches every candidate regardless of qualifiers.
	Any      bool
	Optional bool
	// Member is the field or parameter name, empty for programmatic lookups.
	Member        string
	DeclaringType reflect.Type
}

// Accepts reports whether a component qualified with q satisfies ip.
func (ip InjectionPoint) Accepts(q Qualifiers) bool {
	if len(ip.Qualifiers) == 0 {
		return ip.Any || q.IsDefault()
	}
	return q.ContainsAll(ip.Qualifiers)
}

func (ip InjectionPoint) String() string {
	var b strings.Builder
	if ip.Type != nil {
		b.WriteString(ip.Type.String())
	} else {
		b.WriteString("<nil>")
	}
	if ip.Any && len(ip.Qualifiers) == 0 {
		b.WriteString(" @any")
	} else {
		b.WriteString(" ")
		b.WriteString(ip.Qualifiers.String())
	}
	if ip.Member != "" {
		b.WriteString(" at ")
		if ip.DeclaringType != nil {
			b.WriteString(ip.DeclaringType.String())
			b.WriteString(".")
		}
		b.WriteString(ip.Member)
	}
	return b.String()
}

// Require builds a programmatic injection point from qualifier words.
func Require(t reflect.Type, words ...string) InjectionPoint {
	ip := InjectionPoint{Type: t, Qualifiers: NewQualifiers(words...)}
	for _, w := range words {
		if strings.TrimSpace(w) == QualifierAny {
			ip.Any = true
		}
	}
	return ip
}
