package bridge

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

var (
	errorType    = reflectx.TypeOf[error]()
	declarerType = reflectx.TypeOf[Declarer]()
)

// MemberKey identifies a member by its declaring struct type and name.
type MemberKey struct {
	Type reflect.Type
	Name string
}

func (k MemberKey) String() string {
	if k.Type == nil {
		return k.Name
	}
	return k.Type.String() + "." + k.Name
}

// FieldMember is a provider field.
type FieldMember struct {
	Name          string
	Type          reflect.Type
	Tags          []string
	DeclaringType reflect.Type
	Level         reflectx.Level
	Index         int
	Exported      bool
}

func (f FieldMember) Key() MemberKey { return MemberKey{Type: f.DeclaringType, Name: f.Name} }

type MethodKind int

const (
	Producer MethodKind = iota + 1
	Disposer
	Observer
)

func (k MethodKind) String() string {
	switch k {
	case Producer:
		return "producer"
	case Disposer:
		return "disposer"
	case Observer:
		return "observer"
	}
	return "unknown"
}

// ParamMember is a method parameter. Index does not count the receiver.
type ParamMember struct {
	Index int
	Type  reflect.Type
	Tags  []string
}

// MethodMember is a declared provider, disposal or subscriber method.
type MethodMember struct {
	Name          string
	Kind          MethodKind
	Func          reflect.Value
	Receiver      reflect.Type
	DeclaringType reflect.Type
	Level         reflectx.Level
	Tags          []string
	Params        []ParamMember
	// Result is the produced type of a provider method.
	Result       reflect.Type
	ReturnsError bool
	// Slots index the disposed or observed parameters.
	Slots []int
}

func (m MethodMember) Key() MemberKey { return MemberKey{Type: m.DeclaringType, Name: m.Name} }

// ClassMembers is everything extracted from one instance type.
type ClassMembers struct {
	Type      reflect.Type
	Struct    reflect.Type
	Levels    []reflectx.Level
	Tags      []string
	Excludes  []reflect.Type
	Scopes    []di.Scope
	Fields    []FieldMember
	Producers []MethodMember
	Disposers []MethodMember
	Observers []MethodMember
}

var classCache sync.Map

// Extract lists the members of a pointer-to-struct type. Hierarchy levels are
// scanned most-derived first and every member keeps its declaring struct type.
// Extract is pure; results are cached per type.
func Extract(t reflect.Type) (*ClassMembers, error) {
	if cached, ok := classCache.Load(t); ok {
		return cached.(*ClassMembers), nil
	}
	if t == nil || t.Kind() != reflect.Pointer || reflectx.StructType(t) == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstance, t)
	}
	st := t.Elem()
	cm := &ClassMembers{
		Type:   t,
		Struct: st,
		Levels: reflectx.Levels(st, di.IsMemberEmbed),
	}
	for _, level := range cm.Levels {
		for i := 0; i < level.Type.NumField(); i++ {
			f := level.Type.Field(i)
			tags := di.ParseTag(f.Tag.Get(di.TagKey))
			if !slices.Contains(tags, TagProduces) {
				continue
			}
			cm.Fields = append(cm.Fields, FieldMember{
				Name:          f.Name,
				Type:          f.Type,
				Tags:          tags,
				DeclaringType: level.Type,
				Level:         level,
				Index:         i,
				Exported:      f.IsExported(),
			})
		}
	}

	seen := map[uintptr]bool{}
	for _, level := range cm.Levels {
		d, err := declare(level.Type)
		if err != nil {
			return nil, err
		}
		for _, tag := range d.tags {
			if !slices.Contains(cm.Tags, tag) {
				cm.Tags = append(cm.Tags, tag)
			}
		}
		for _, ex := range d.excludes {
			if !slices.Contains(cm.Excludes, ex) {
				cm.Excludes = append(cm.Excludes, ex)
			}
		}
		for _, sc := range d.scopes {
			if !slices.Contains(cm.Scopes, sc) {
				cm.Scopes = append(cm.Scopes, sc)
			}
		}
		for _, decl := range d.methods {
			if !decl.fn.IsValid() || decl.fn.Kind() != reflect.Func || decl.fn.IsNil() {
				return nil, memberErr(level.Type.String(), "extract", fmt.Errorf("%w: method must be a non-nil func", ErrInvalidMember))
			}
			if seen[decl.fn.Pointer()] {
				continue
			}
			seen[decl.fn.Pointer()] = true
			m, err := methodMember(cm.Levels, decl)
			if err != nil {
				return nil, err
			}
			switch m.Kind {
			case Producer:
				cm.Producers = append(cm.Producers, m)
			case Disposer:
				cm.Disposers = append(cm.Disposers, m)
			case Observer:
				cm.Observers = append(cm.Observers, m)
			}
		}
	}
	actual, _ := classCache.LoadOrStore(t, cm)
	return actual.(*ClassMembers), nil
}

func declare(level reflect.Type) (d *Declarations, err error) {
	d = &Declarations{}
	pt := reflect.PointerTo(level)
	if !pt.Implements(declarerType) {
		return d, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = memberErr(level.String()+".DeclareMembers", "extract", fmt.Errorf("%w: panic: %v", ErrInvalidMember, r))
		}
	}()
	reflectx.Alloc(level).Interface().(Declarer).DeclareMembers(d)
	return d, nil
}

func methodName(fn reflect.Value) string {
	name := reflectx.FuncName(fn)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func methodMember(levels []reflectx.Level, decl *MethodDecl) (MethodMember, error) {
	ft := decl.fn.Type()
	name := methodName(decl.fn)
	fail := func(format string, args ...any) (MethodMember, error) {
		return MethodMember{}, memberErr(reflectx.FuncName(decl.fn), "extract", fmt.Errorf("%w: "+format, append([]any{ErrInvalidMember}, args...)...))
	}
	if ft.NumIn() == 0 {
		return fail("method expression needs a receiver")
	}
	if ft.IsVariadic() {
		return fail("variadic methods are not supported")
	}
	recv := ft.In(0)
	rs := reflectx.StructType(recv)
	idx := slices.IndexFunc(levels, func(l reflectx.Level) bool { return l.Type == rs })
	if rs == nil || idx < 0 {
		return fail("receiver %s is not part of the instance hierarchy", recv)
	}
	m := MethodMember{
		Name:          name,
		Func:          decl.fn,
		Receiver:      recv,
		DeclaringType: rs,
		Level:         levels[idx],
		Tags:          decl.tags,
	}
	for i := 1; i < ft.NumIn(); i++ {
		m.Params = append(m.Params, ParamMember{Index: i - 1, Type: ft.In(i), Tags: decl.params[i-1]})
	}
	for index := range decl.params {
		if index < 0 || index >= len(m.Params) {
			return fail("parameter %d out of range", index)
		}
	}

	var disposed, observed []int
	for _, p := range m.Params {
		if slices.Contains(p.Tags, TagDisposes) {
			disposed = append(disposed, p.Index)
		}
		if slices.Contains(p.Tags, TagObserves) || slices.Contains(p.Tags, TagObservesAsync) {
			observed = append(observed, p.Index)
		}
	}
	switch {
	case slices.Contains(m.Tags, TagProduces):
		if len(disposed) > 0 || len(observed) > 0 {
			return fail("provider methods cannot dispose or observe")
		}
		if ft.NumOut() < 1 || ft.NumOut() > 2 || (ft.NumOut() == 2 && ft.Out(1) != errorType) {
			return fail("provider methods return T or (T, error)")
		}
		m.Kind = Producer
		m.Result = ft.Out(0)
		m.ReturnsError = ft.NumOut() == 2
		return m, nil
	case len(disposed) > 0 && len(observed) > 0:
		return fail("a method cannot both dispose and observe")
	case len(disposed) > 1:
		return fail("disposal methods have exactly one disposed parameter")
	case len(disposed) == 1:
		m.Kind = Disposer
		m.Slots = disposed
	case len(observed) > 0:
		m.Kind = Observer
		m.Slots = observed
	default:
		return fail("method declares no provider, disposal or observer role")
	}
	if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != errorType) {
		return fail("%s methods return nothing or error", m.Kind)
	}
	m.ReturnsError = ft.NumOut() == 1
	return m, nil
}
