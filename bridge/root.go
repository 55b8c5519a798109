package bridge

import (
	"context"
	"fmt"

	"github.com/bronystylecrazy/testbridge/di"
	"github.com/bronystylecrazy/testbridge/lifecycle"
)

// Root is a registered externally-owned instance.
type Root struct {
	Instance   any
	ID         di.ComponentID
	Descriptor di.Descriptor
}

// rootBinding registers the instance itself. Creating it returns the existing
// instance after field injection and PostConstruct; a dependent scope is
// promoted to singleton so it is never recreated.
func (p *Pass) rootBinding(inst *instancePlan) (di.Binding, error) {
	member := inst.class.Struct.String()
	res, err := p.resolver.Resolve(member, inst.class.Tags)
	if err != nil {
		return di.Binding{}, err
	}
	if res.Scope == di.Dependent {
		res.Scope = di.Singleton
	}
	desc := res.Descriptor(inst.class.Type, inst.class.Struct, inst.rank)
	return di.Binding{
		Descriptor: desc,
		Create: func(rc *di.ResolutionContext) (any, error) {
			if err := rc.Inject(inst.instance); err != nil {
				return nil, memberErr(member, "inject", err)
			}
			if err := lifecycle.PostConstruct(rc.Context(), inst.instance); err != nil {
				return nil, memberErr(member, "post-construct", err)
			}
			p.trace("root instance materialized", member)
			return inst.instance, nil
		},
		Destroy: func(ctx context.Context, _ any, _ *di.ResolutionContext) error {
			if err := lifecycle.PreDestroy(ctx, inst.instance); err != nil {
				return memberErr(member, "pre-destroy", err)
			}
			return nil
		},
	}, nil
}

func (r Root) String() string {
	return fmt.Sprintf("%T #%d", r.Instance, r.ID)
}
