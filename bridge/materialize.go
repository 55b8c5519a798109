package bridge

import (
	"context"
	"reflect"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

var contextType = reflectx.TypeOf[context.Context]()

// readField returns the create func of a provider field.
func (p *Pass) readField(inst *instancePlan, f FieldMember) func(*di.ResolutionContext) (any, error) {
	member := f.Key().String()
	acc := newAccess(member, p.log)
	return func(*di.ResolutionContext) (any, error) {
		lv, err := reflectx.LevelValue(inst.root, f.Level)
		if err != nil {
			return nil, memberErr(member, "read", err)
		}
		fv, err := acc.view(lv.Field(f.Index))
		if err != nil {
			return nil, memberErr(member, "read", err)
		}
		p.trace("provider field read", member)
		return fv.Interface(), nil
	}
}

// invokeProducer returns the create func of a provider method. Parameters are
// resolved through the container; InjectionPoint and context.Context
// parameters receive the values of the current resolution.
func (p *Pass) invokeProducer(inst *instancePlan, m MethodMember) func(*di.ResolutionContext) (any, error) {
	member := m.Key().String()
	acc := newAccess(member, p.log)
	return func(rc *di.ResolutionContext) (any, error) {
		recv, err := receiver(inst.root, m, acc)
		if err != nil {
			return nil, memberErr(member, "invoke", err)
		}
		args := []reflect.Value{recv}
		for _, param := range m.Params {
			arg, err := di.Argument(rc, p.resolver.Point(m, param))
			if err != nil {
				return nil, memberErr(member, "invoke", err)
			}
			args = append(args, arg)
		}
		results, err := call(member, "invoke", m.Func, args)
		if err != nil {
			return nil, err
		}
		p.trace("provider method invoked", member)
		return results[0].Interface(), nil
	}
}
