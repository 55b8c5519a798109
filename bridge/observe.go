package bridge

import (
	"context"
	"reflect"
	"slices"

	"github.com/bronystylecrazy/testbridge/di"
)

// subscribers returns one subscriber per observed parameter of m. Other
// parameters receive the delivery context or their zero value.
func (p *Pass) subscribers(inst *instancePlan, m MethodMember) []di.Subscriber {
	member := m.Key().String()
	acc := newAccess(member, p.log)
	out := make([]di.Subscriber, 0, len(m.Slots))
	for _, slot := range m.Slots {
		param := m.Params[slot]
		out = append(out, di.Subscriber{
			ObservedType:  param.Type,
			Qualifiers:    p.resolver.Point(m, param).Qualifiers,
			Async:         slices.Contains(param.Tags, TagObservesAsync),
			DeclaringType: m.DeclaringType,
			Notify: func(ctx context.Context, event any) error {
				if ctx == nil {
					ctx = context.Background()
				}
				recv, err := receiver(inst.root, m, acc)
				if err != nil {
					return memberErr(member, "notify", err)
				}
				args := []reflect.Value{recv}
				for _, q := range m.Params {
					var arg reflect.Value
					switch {
					case q.Index == slot:
						if arg, err = valueOf(event, q.Type); err != nil {
							return memberErr(member, "notify", err)
						}
					case q.Type == contextType:
						arg = reflect.ValueOf(ctx)
					default:
						arg = reflect.Zero(q.Type)
					}
					args = append(args, arg)
				}
				if _, err := call(member, "notify", m.Func, args); err != nil {
					return err
				}
				p.trace("subscriber notified", member)
				return nil
			},
		})
	}
	return out
}
