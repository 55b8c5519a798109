package bridge

import (
	"context"
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/internal/reflectx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// disposal is the join of a provider with a disposal method of the same
// instance, captured at registration.
type disposal struct {
	method     MethodMember
	slot       int
	qualifiers di.Qualifiers
}

// join finds the disposal methods of class matching a provider declared on
// declaring that produces t with qualifiers q.
func (p *Pass) join(class *ClassMembers, member string, declaring, t reflect.Type, q di.Qualifiers) ([]disposal, error) {
	var out []disposal
	for _, m := range class.Disposers {
		if m.DeclaringType != declaring {
			continue
		}
		slot := m.Slots[0]
		param := m.Params[slot]
		if !reflectx.Assignable(t, param.Type) {
			continue
		}
		required := p.resolver.Point(m, param).Qualifiers
		if !q.ContainsAll(required) {
			continue
		}
		out = append(out, disposal{method: m, slot: slot, qualifiers: required})
	}
	if len(out) > 1 {
		names := make([]string, 0, len(out))
		for _, d := range out {
			names = append(names, d.method.Name)
		}
		if p.bridge.cfg.Strict {
			return nil, memberErr(member, "register", fmt.Errorf("%w: %v", ErrAmbiguousDisposal, names))
		}
		p.log.Warn("several disposal methods match a provider, all are invoked",
			zap.String("member", member),
			zap.Strings("disposers", names),
		)
	}
	return out, nil
}

// dispose returns the destroy func running every joined disposal method, or
// nil when there is none.
func (p *Pass) dispose(inst *instancePlan, joined []disposal) func(context.Context, any, *di.ResolutionContext) error {
	if len(joined) == 0 {
		return nil
	}
	type bound struct {
		disposal
		member string
		acc    *access
	}
	var disposers []bound
	for _, d := range joined {
		member := d.method.Key().String()
		disposers = append(disposers, bound{disposal: d, member: member, acc: newAccess(member, p.log)})
	}
	return func(ctx context.Context, v any, rc *di.ResolutionContext) error {
		var err error
		for _, d := range disposers {
			err = multierr.Append(err, p.invokeDisposer(ctx, inst, d.method, d.slot, d.member, d.acc, v, rc))
		}
		return err
	}
}

func (p *Pass) invokeDisposer(ctx context.Context, inst *instancePlan, m MethodMember, slot int, member string, acc *access, v any, rc *di.ResolutionContext) error {
	if ctx == nil {
		ctx = context.Background()
	}
	recv, err := receiver(inst.root, m, acc)
	if err != nil {
		return memberErr(member, "dispose", err)
	}
	args := []reflect.Value{recv}
	for _, param := range m.Params {
		var arg reflect.Value
		switch {
		case param.Index == slot:
			arg, err = valueOf(v, param.Type)
		case param.Type == contextType:
			arg = reflect.ValueOf(ctx)
		default:
			arg, err = di.Argument(rc, p.resolver.Point(m, param))
		}
		if err != nil {
			return memberErr(member, "dispose", err)
		}
		args = append(args, arg)
	}
	if _, err := call(member, "dispose", m.Func, args); err != nil {
		return err
	}
	p.trace("disposal method invoked", member)
	return nil
}
