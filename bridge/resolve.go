package bridge

import (
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/di"
	"go.uber.org/zap"
)

// Resolved is the qualifier, scope and stereotype metadata of a member.
type Resolved struct {
	Qualifiers  di.Qualifiers
	Stereotypes []string
	Scope       di.Scope
	Name        string
	Alternative bool
}

// Resolver classifies member tags through the container's marker registry.
type Resolver struct {
	Markers *di.Markers
	Strict  bool
	Logger  *zap.Logger
}

func isBridgeWord(word string) bool {
	switch word {
	case TagProduces, TagDisposes, TagObserves, TagObservesAsync, TagExclude, di.TagInject, di.TagOptional:
		return true
	}
	return false
}

// Resolve derives the metadata of a member from its tags. Without a scope tag
// the scope of the first stereotype carrying one applies, then Dependent.
// Several scope tags pick the first one unless the resolver is strict.
func (r Resolver) Resolve(member string, tags []string) (Resolved, error) {
	var out Resolved
	var qualifiers []string
	var scopes []di.Scope
	var stereotypeScope di.Scope
	for _, w := range tags {
		switch {
		case isBridgeWord(w):
		case w == TagAlternative:
			out.Alternative = true
		case r.Markers.IsScope(w):
			scopes = append(scopes, di.Scope(w))
		case r.Markers.IsStereotype(w):
			st, _ := r.Markers.StereotypeOf(w)
			out.Stereotypes = append(out.Stereotypes, w)
			out.Alternative = out.Alternative || st.Alternative
			if stereotypeScope == "" {
				stereotypeScope = st.Scope
			}
		case r.Markers.IsQualifier(w):
			qualifiers = append(qualifiers, w)
		}
	}
	switch {
	case len(scopes) > 1 && r.Strict:
		return Resolved{}, memberErr(member, "resolve", fmt.Errorf("%w: %v", ErrAmbiguousScope, scopes))
	case len(scopes) > 1:
		r.logger().Warn("member declares more than one scope, using the first",
			zap.String("member", member),
			zap.Any("scopes", scopes),
		)
		out.Scope = scopes[0]
	case len(scopes) == 1:
		out.Scope = scopes[0]
	case stereotypeScope != "":
		out.Scope = stereotypeScope
	default:
		out.Scope = di.Dependent
	}
	out.Qualifiers = di.NewQualifiers(qualifiers...)
	out.Name = out.Qualifiers.Name()
	return out, nil
}

// Point builds the injection point of a method parameter.
func (r Resolver) Point(m MethodMember, p ParamMember) di.InjectionPoint {
	ip := di.InjectionPoint{
		Type:          p.Type,
		Member:        fmt.Sprintf("%s#%d", m.Name, p.Index),
		DeclaringType: m.DeclaringType,
	}
	var qualifiers []string
	for _, w := range p.Tags {
		switch {
		case w == di.QualifierAny:
			ip.Any = true
		case r.Markers.IsQualifier(w):
			qualifiers = append(qualifiers, w)
		}
	}
	ip.Qualifiers = di.NewQualifiers(qualifiers...)
	return ip
}

// Descriptor builds a component descriptor from resolved metadata.
func (res Resolved) Descriptor(t reflect.Type, declaring reflect.Type, rank int) di.Descriptor {
	return di.Descriptor{
		Types:         []reflect.Type{t},
		Qualifiers:    res.Qualifiers,
		Stereotypes:   res.Stereotypes,
		Scope:         res.Scope,
		Name:          res.Name,
		DeclaringType: declaring,
		Alternative:   res.Alternative,
		Rank:          rank,
	}
}

func (r Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
