package bridge

import (
	"reflect"
	"slices"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

// Marker words understood by the bridge.
const (
	TagProduces      = "produces"
	TagDisposes      = "disposes"
	TagObserves      = "observes"
	TagObservesAsync = "observesAsync"
	TagExclude       = "exclude"
	TagAlternative   = "alternative"
)

// Declarer is implemented by instance types (or the structs they embed) that
// contribute methods or class-level metadata. DeclareMembers is called on a
// zero value and must only record declarations.
type Declarer interface {
	DeclareMembers(d *Declarations)
}

// Declarations collects the class-level tags, exclusions, scopes to activate
// and method declarations of one hierarchy level.
type Declarations struct {
	tags     []string
	excludes []reflect.Type
	scopes   []di.Scope
	methods  []*MethodDecl
}

// MethodDecl is a declared method expression with its method-level and
// parameter-level tags. Parameter indexes do not count the receiver.
type MethodDecl struct {
	fn     reflect.Value
	tags   []string
	params map[int][]string
}

// TypeOf returns the reflect.Type of T for use with Exclude.
func TypeOf[T any]() reflect.Type {
	return reflectx.TypeOf[T]()
}

func words(tags []string) []string {
	var out []string
	for _, tag := range tags {
		out = append(out, di.ParseTag(tag)...)
	}
	return out
}

// Tag adds class-level tags: qualifiers, a scope or stereotypes of the
// instance itself.
func (d *Declarations) Tag(tags ...string) {
	d.tags = append(d.tags, words(tags)...)
}

// Exclude suppresses providers whose type is assignable to any of types,
// in every instance of the chain.
func (d *Declarations) Exclude(types ...reflect.Type) {
	for _, t := range types {
		if t != nil {
			d.excludes = append(d.excludes, t)
		}
	}
}

// ActivateScopes asks the runner to activate custom scopes for the test,
// in addition to the ones it activates itself.
func (d *Declarations) ActivateScopes(scopes ...di.Scope) {
	for _, s := range scopes {
		if s != "" && !slices.Contains(d.scopes, s) {
			d.scopes = append(d.scopes, s)
		}
	}
}

// Method declares a method expression such as (*Suite).NewClient.
func (d *Declarations) Method(fn any, tags ...string) *MethodDecl {
	m := &MethodDecl{fn: reflect.ValueOf(fn), tags: words(tags), params: map[int][]string{}}
	d.methods = append(d.methods, m)
	return m
}

// Produces declares a provider method.
func (d *Declarations) Produces(fn any, tags ...string) *MethodDecl {
	return d.Method(fn, append([]string{TagProduces}, tags...)...)
}

// Disposes declares a disposal method; param is the disposed parameter.
func (d *Declarations) Disposes(fn any, param int, tags ...string) *MethodDecl {
	return d.Method(fn).Param(param, append([]string{TagDisposes}, tags...)...)
}

// Observes declares a synchronous event subscriber; param is the event slot.
func (d *Declarations) Observes(fn any, param int, tags ...string) *MethodDecl {
	return d.Method(fn).Param(param, append([]string{TagObserves}, tags...)...)
}

func (d *Declarations) ObservesAsync(fn any, param int, tags ...string) *MethodDecl {
	return d.Method(fn).Param(param, append([]string{TagObservesAsync}, tags...)...)
}

// Tag adds method-level tags.
func (m *MethodDecl) Tag(tags ...string) *MethodDecl {
	m.tags = append(m.tags, words(tags)...)
	return m
}

// Param adds tags to the parameter at index.
func (m *MethodDecl) Param(index int, tags ...string) *MethodDecl {
	m.params[index] = append(m.params[index], words(tags)...)
	return m
}
