package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/internal/reflectx"
	"github.com/bronystylecrazy/testbridge/lifecycle"
)

var (
	errorType             = reflectx.TypeOf[error]()
	contextType           = reflectx.TypeOf[context.Context]()
	injectionPointType    = reflectx.TypeOf[InjectionPoint]()
	resolutionContextType = reflectx.TypeOf[*ResolutionContext]()
)

func constructorResultType(constructor any) (reflect.Type, error) {
	if constructor == nil {
		return nil, fmt.Errorf(errConstructorNil)
	}
	fn := reflect.TypeOf(constructor)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf(errConstructorNotFunc)
	}
	numOut := fn.NumOut()
	if numOut < 1 || numOut > 2 {
		return nil, fmt.Errorf(errConstructorResults)
	}
	if numOut == 2 && fn.Out(1) != errorType {
		return nil, fmt.Errorf(errConstructorSecondErr)
	}
	return fn.Out(0), nil
}

// Provide registers a constructor. Its parameters are resolved by type;
// context.Context, InjectionPoint and *ResolutionContext parameters receive
// the values of the current resolution. The default scope is Singleton.
func (c *Container) Provide(constructor any, opts ...Option) (ComponentID, error) {
	out, err := constructorResultType(constructor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	d, err := buildDescriptor(c.markers, out, opts)
	if err != nil {
		return 0, err
	}
	fn := reflect.ValueOf(constructor)
	return c.AddComponent(Binding{
		Descriptor: d,
		Create: func(rc *ResolutionContext) (any, error) {
			args, err := Arguments(rc, fn.Type(), nil)
			if err != nil {
				return nil, err
			}
			results := fn.Call(args)
			if len(results) == 2 && !results[1].IsNil() {
				return nil, results[1].Interface().(error)
			}
			v := results[0].Interface()
			if err := lifecycle.PostConstruct(rc.Context(), v); err != nil {
				return nil, err
			}
			return v, nil
		},
		Destroy: func(ctx context.Context, v any, _ *ResolutionContext) error {
			return lifecycle.PreDestroy(ctx, v)
		},
	})
}

// Supply registers an existing value. The default scope is Singleton.
func (c *Container) Supply(value any, opts ...Option) (ComponentID, error) {
	if value == nil {
		return 0, fmt.Errorf("%w: value must not be nil", ErrInvalidBinding)
	}
	d, err := buildDescriptor(c.markers, reflect.TypeOf(value), opts)
	if err != nil {
		return 0, err
	}
	return c.AddComponent(Binding{
		Descriptor: d,
		Create: func(*ResolutionContext) (any, error) {
			return value, nil
		},
	})
}

// Arguments resolves the parameters of a function type. Parameters listed in
// fixed are taken as is.
func Arguments(rc *ResolutionContext, fn reflect.Type, fixed map[int]reflect.Value) ([]reflect.Value, error) {
	args := make([]reflect.Value, fn.NumIn())
	for i := range args {
		if v, ok := fixed[i]; ok {
			args[i] = v
			continue
		}
		v, err := Argument(rc, InjectionPoint{Type: fn.In(i)})
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// Argument resolves a single parameter described by ip.
func Argument(rc *ResolutionContext, ip InjectionPoint) (reflect.Value, error) {
	switch ip.Type {
	case contextType:
		return reflect.ValueOf(rc.Context()), nil
	case injectionPointType:
		point, _ := rc.InjectionPoint()
		return reflect.ValueOf(point), nil
	case resolutionContextType:
		return reflect.ValueOf(rc), nil
	}
	v, err := rc.ResolvePoint(ip)
	if err != nil {
		return reflect.Value{}, err
	}
	if v == nil {
		return reflect.Zero(ip.Type), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(ip.Type) {
		return reflect.Value{}, fmt.Errorf("di: resolved %s is not assignable to %s", rv.Type(), ip.Type)
	}
	if rv.Type() != ip.Type {
		converted := reflect.New(ip.Type).Elem()
		converted.Set(rv)
		rv = converted
	}
	return rv, nil
}
