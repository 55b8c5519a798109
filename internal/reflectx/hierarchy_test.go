package reflectx

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type levelBase struct {
	secret string
}

type levelMiddle struct {
	*levelBase
	Name string
}

type levelRoot struct {
	levelMiddle
	Tagged levelBase `di:"produces"`
}

func (r *levelRoot) Method() {}

func TestLevelsMostDerivedFirst(t *testing.T) {
	levels := Levels(reflect.TypeOf(&levelRoot{}), nil)
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	want := []reflect.Type{
		reflect.TypeOf(levelRoot{}),
		reflect.TypeOf(levelMiddle{}),
		reflect.TypeOf(levelBase{}),
	}
	for i, l := range levels {
		if l.Type != want[i] {
			t.Fatalf("level[%d]=%s want %s", i, l.Type, want[i])
		}
	}
	if !reflect.DeepEqual(levels[2].Path, []int{0, 0}) {
		t.Fatalf("unexpected base path: %v", levels[2].Path)
	}
}

func TestLevelsSkipsMemberEmbeds(t *testing.T) {
	type withTagged struct {
		levelBase `di:"produces"`
	}
	levels := Levels(reflect.TypeOf(withTagged{}), func(f reflect.StructField) bool {
		return f.Tag.Get("di") != ""
	})
	if len(levels) != 1 {
		t.Fatalf("expected tagged embed to be skipped, got %d levels", len(levels))
	}
}

func TestLevelValueNilEmbedded(t *testing.T) {
	root := &levelRoot{}
	levels := Levels(reflect.TypeOf(root), nil)
	_, err := LevelValue(reflect.ValueOf(root).Elem(), levels[2])
	if !errors.Is(err, ErrNilEmbedded) {
		t.Fatalf("expected ErrNilEmbedded, got %v", err)
	}

	root.levelBase = &levelBase{secret: "s"}
	v, err := LevelValue(reflect.ValueOf(root).Elem(), levels[2])
	if err != nil {
		t.Fatalf("LevelValue: %v", err)
	}
	if v.Addr().Interface() != root.levelBase {
		t.Fatalf("expected embedded pointer target")
	}
}

func TestUnlockReadsUnexportedField(t *testing.T) {
	root := &levelBase{secret: "hidden"}
	field := reflect.ValueOf(root).Elem().Field(0)
	if field.CanInterface() {
		t.Fatalf("expected unexported field to be unreadable")
	}
	open, err := Unlock(field)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if got := open.Interface().(string); got != "hidden" {
		t.Fatalf("unexpected value %q", got)
	}
	if _, err := Unlock(reflect.ValueOf(levelBase{}).Field(0)); !errors.Is(err, ErrNotAddressable) {
		t.Fatalf("expected ErrNotAddressable, got %v", err)
	}
}

func TestFuncNameMethodExpression(t *testing.T) {
	name := FuncName(reflect.ValueOf((*levelRoot).Method))
	if !strings.HasSuffix(name, "(*levelRoot).Method") {
		t.Fatalf("unexpected name %q", name)
	}
	if FuncName(reflect.Value{}) != "<nil>" {
		t.Fatalf("expected <nil> for invalid value")
	}
}

type pinger interface{ Ping() string }

type pingImpl struct{}

func (pingImpl) Ping() string { return "pong" }

func TestAssignable(t *testing.T) {
	if !Assignable(reflect.TypeOf(pingImpl{}), TypeOf[pinger]()) {
		t.Fatalf("expected implementation to be assignable to interface")
	}
	if Assignable(reflect.TypeOf(""), TypeOf[pinger]()) {
		t.Fatalf("string must not be assignable to pinger")
	}
	if Assignable(nil, TypeOf[pinger]()) {
		t.Fatalf("nil type must not be assignable")
	}
}

func TestAllocFillsEmbeddedPointers(t *testing.T) {
	v := Alloc(reflect.TypeOf(levelRoot{}))
	root := v.Interface().(*levelRoot)
	for _, l := range Levels(reflect.TypeOf(levelRoot{}), nil) {
		if _, err := LevelValue(v.Elem(), l); err != nil {
			t.Fatalf("level %s: %v", l.Type, err)
		}
	}
	if root == nil {
		t.Fatal("expected a value")
	}
}
