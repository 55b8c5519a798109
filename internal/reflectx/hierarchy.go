package reflectx

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unsafe"
)

var ErrNilEmbedded = errors.New("reflectx: embedded pointer is nil")
var ErrNotAddressable = errors.New("reflectx: value is not addressable")

// Level is one struct of an embedding hierarchy.
type Level struct {
	Type reflect.Type
	// Path is the field index path of the embedded field from the root struct.
	Path []int
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// StructType returns the struct type behind t, or nil.
func StructType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// Levels lists the struct hierarchy of t most-derived first.
// Embedded fields for which member reports true are members, not levels.
func Levels(t reflect.Type, member func(reflect.StructField) bool) []Level {
	root := StructType(t)
	if root == nil {
		return nil
	}
	var out []Level
	seen := map[reflect.Type]bool{}
	var walk func(st reflect.Type, path []int)
	walk = func(st reflect.Type, path []int) {
		if seen[st] {
			return
		}
		seen[st] = true
		out = append(out, Level{Type: st, Path: path})
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.Anonymous {
				continue
			}
			if member != nil && member(f) {
				continue
			}
			ft := StructType(f.Type)
			if ft == nil {
				continue
			}
			next := make([]int, len(path)+1)
			copy(next, path)
			next[len(path)] = i
			walk(ft, next)
		}
	}
	walk(root, nil)
	return out
}

// LevelValue returns the addressable struct value of l inside root.
func LevelValue(root reflect.Value, l Level) (reflect.Value, error) {
	if len(l.Path) == 0 {
		return root, nil
	}
	v, err := root.FieldByIndexErr(l.Path)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilEmbedded, l.Type)
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilEmbedded, l.Type)
		}
		v = v.Elem()
	}
	return v, nil
}

// Alloc returns a new *t whose nil embedded struct pointers are allocated, so
// methods promoted through them can be called on the zero value.
func Alloc(t reflect.Type) reflect.Value {
	v := reflect.New(t)
	alloc(v.Elem(), map[reflect.Type]bool{t: true})
	return v
}

func alloc(v reflect.Value, seen map[reflect.Type]bool) {
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if !f.Anonymous {
			continue
		}
		fv := v.Field(i)
		if !fv.CanSet() {
			fv, _ = Unlock(fv)
		}
		switch {
		case f.Type.Kind() == reflect.Struct:
			alloc(fv, seen)
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct && !seen[f.Type.Elem()]:
			seen[f.Type.Elem()] = true
			fv.Set(reflect.New(f.Type.Elem()))
			alloc(fv.Elem(), seen)
		}
	}
}

// Unlock returns a view of v that may be read and written even when v was
// reached through an unexported field. v must be addressable.
func Unlock(v reflect.Value) (reflect.Value, error) {
	if !v.CanAddr() {
		return reflect.Value{}, ErrNotAddressable
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem(), nil
}

// Assignable reports whether a value of type from can be stored in to.
func Assignable(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	return from == to || from.AssignableTo(to)
}

// FuncName returns a short printable name for a function value.
func FuncName(fn reflect.Value) string {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return fn.Type().String()
	}
	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
