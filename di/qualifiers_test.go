package di

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func TestNewQualifiersNormalizes(t *testing.T) {
	q := NewQualifiers("b", "default", "a", "any", "b", " ")
	if len(q) != 2 || q[0] != "a" || q[1] != "b" {
		t.Fatalf("unexpected qualifiers %v", q)
	}
	if NewQualifiers("default", "any") != nil {
		t.Fatalf("implicit qualifiers must yield an empty set")
	}
	if got := NewQualifiers(NamedQualifier("x"), "p").Name(); got != "x" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestQualifierValue(t *testing.T) {
	q := NewQualifiers("produced=gugus", "region", NamedQualifier("x"))
	if v, ok := q.Value("produced"); !ok || v != "gugus" {
		t.Fatalf("unexpected value %q %v", v, ok)
	}
	if v, ok := q.Value("region"); !ok || v != "" {
		t.Fatalf("bare qualifier should have an empty value, got %q %v", v, ok)
	}
	if _, ok := q.Value("missing"); ok {
		t.Fatalf("missing key reported present")
	}
	m := NewMarkers().Nonbinding("produced")
	if !m.IsQualifier("produced=x") || !m.IsNonbinding("produced=y") || m.IsNonbinding("region") {
		t.Fatalf("nonbinding markers misclassified")
	}
}

func TestMarkersClassifyWords(t *testing.T) {
	m := NewMarkers().Qualifier("region").Scope("request").Stereotype("model", Stereotype{Scope: Singleton})
	cases := []struct {
		word                     string
		qualifier, scope, stereo bool
	}{
		{"name=x", true, false, false},
		{"region=eu", true, false, false},
		{"default", true, false, false},
		{"singleton", false, true, false},
		{"request", false, true, false},
		{"model", false, false, true},
		{"produces", false, false, false},
	}
	for _, tc := range cases {
		if m.IsQualifier(tc.word) != tc.qualifier || m.IsScope(tc.word) != tc.scope || m.IsStereotype(tc.word) != tc.stereo {
			t.Fatalf("misclassified %q", tc.word)
		}
	}
	if !m.NeedsActivation("request") || m.NeedsActivation(Singleton) {
		t.Fatalf("only custom scopes need activation")
	}
}

func wordGen() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{"a", "b", "c", "default", "any", "name=x", "name=y"})
}

func TestQualifiersProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOf(wordGen()).Draw(t, "words")
		q := NewQualifiers(words...)
		if !sort.StringsAreSorted(q) {
			t.Fatalf("not sorted: %v", q)
		}
		for i := 1; i < len(q); i++ {
			if q[i] == q[i-1] {
				t.Fatalf("duplicate in %v", q)
			}
		}
		if q.Has(QualifierDefault) || q.Has(QualifierAny) {
			t.Fatalf("implicit qualifier stored in %v", q)
		}
		for _, w := range words {
			if w != QualifierDefault && w != QualifierAny && !q.Has(w) {
				t.Fatalf("lost %q from %v", w, q)
			}
		}
	})
}

func TestAcceptsProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		component := NewQualifiers(rapid.SliceOf(wordGen()).Draw(t, "component")...)
		required := NewQualifiers(rapid.SliceOf(wordGen()).Draw(t, "required")...)
		ip := InjectionPoint{Qualifiers: required}
		if len(required) > 0 && ip.Accepts(component) != component.ContainsAll(required) {
			t.Fatalf("qualified lookup must be a subset test: %v %v", component, required)
		}
		if !(InjectionPoint{Any: true}).Accepts(component) {
			t.Fatalf("any must accept %v", component)
		}
		if ip.Accepts(component) && !NewQualifiers(append(component, "extra")...).ContainsAll(required) {
			t.Fatalf("adding a qualifier must keep the component acceptable")
		}
	})
}
