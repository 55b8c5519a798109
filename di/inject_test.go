package di

import (
	"errors"
	"testing"
)

type labeled struct {
	member string
	owner  string
}

type injectBase struct {
	Greeter greeter `di:"inject"`
}

type injectTarget struct {
	injectBase
	Named   *englishGreeter `di:"inject,name=special"`
	Missing *cycleA         `di:"optional"`
	Label   *labeled        `di:"inject"`
	Skipped *englishGreeter
}

type unexportedTarget struct {
	g greeter `di:"inject"`
}

func newLabeled(ip InjectionPoint) *labeled {
	l := &labeled{member: ip.Member}
	if ip.DeclaringType != nil {
		l.owner = ip.DeclaringType.Name()
	}
	return l
}

func TestInjectFields(t *testing.T) {
	c := New()
	plain := &englishGreeter{word: "plain"}
	special := &englishGreeter{word: "special"}
	_, _ = c.Supply(plain, As[greeter]())
	_, _ = c.Supply(special, Named("special"), Qualified("x"))
	_, err := c.Provide(newLabeled, InScope(Dependent))
	mustNoErr(t, err)
	mustFinalize(t, c)

	var target injectTarget
	mustNoErr(t, c.Inject(&target))
	if target.Greeter != plain {
		t.Fatalf("embedded field not injected: %v", target.Greeter)
	}
	if target.Named != special {
		t.Fatalf("named field not injected: %v", target.Named)
	}
	if target.Missing != nil {
		t.Fatalf("optional unsatisfied field must stay nil")
	}
	if target.Skipped != nil {
		t.Fatalf("untagged field must not be injected")
	}
	if target.Label == nil || target.Label.member != "Label" || target.Label.owner != "injectTarget" {
		t.Fatalf("expected injection point metadata, got %+v", target.Label)
	}
}

func TestInjectRejectsBadTargets(t *testing.T) {
	c := New()
	mustFinalize(t, c)
	if err := c.Inject(injectTarget{}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := c.Inject((*injectTarget)(nil)); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for nil, got %v", err)
	}
	if err := c.Inject(&unexportedTarget{}); !errors.Is(err, ErrUnexportedField) {
		t.Fatalf("expected ErrUnexportedField, got %v", err)
	}
	var target injectTarget
	if err := c.Inject(&target); !errors.Is(err, ErrUnsatisfied) {
		t.Fatalf("expected ErrUnsatisfied for required field, got %v", err)
	}
}
