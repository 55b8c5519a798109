package di

import (
	"fmt"
	"reflect"

	"github.com/bronystylecrazy/testbridge/internal/reflectx"
)

type injectField struct {
	level reflectx.Level
	index int
	ip    InjectionPoint
}

// IsMemberEmbed reports whether an embedded field carries a di tag and is
// therefore a member rather than a level of the hierarchy.
func IsMemberEmbed(f reflect.StructField) bool {
	_, ok := f.Tag.Lookup(TagKey)
	return ok
}

// InjectPoint parses an inject tag. ok is false when the words do not request
// injection.
func (m *Markers) InjectPoint(words []string) (ip InjectionPoint, ok bool) {
	var qualifiers []string
	for _, w := range words {
		switch {
		case w == TagInject:
			ok = true
		case w == TagOptional:
			ok = true
			ip.Optional = true
		case w == QualifierAny:
			ip.Any = true
		case m.IsQualifier(w):
			qualifiers = append(qualifiers, w)
		}
	}
	ip.Qualifiers = NewQualifiers(qualifiers...)
	return ip, ok
}

func (c *Container) injectFields(t reflect.Type) ([]injectField, error) {
	var out []injectField
	for _, level := range reflectx.Levels(t, IsMemberEmbed) {
		for i := 0; i < level.Type.NumField(); i++ {
			f := level.Type.Field(i)
			ip, ok := c.markers.InjectPoint(ParseTag(f.Tag.Get(TagKey)))
			if !ok {
				continue
			}
			if !f.IsExported() {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnexportedField, level.Type, f.Name)
			}
			ip.Type = f.Type
			ip.Member = f.Name
			ip.DeclaringType = level.Type
			out = append(out, injectField{level: level, index: i, ip: ip})
		}
	}
	return out, nil
}

func inject(rc *ResolutionContext, target any) error {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrInvalidTarget, target)
	}
	root := v.Elem()
	fields, err := rc.c.injectFields(root.Type())
	if err != nil {
		return err
	}
	for _, f := range fields {
		lv, err := reflectx.LevelValue(root, f.level)
		if err != nil {
			return fmt.Errorf("di: inject %s: %w", f.ip, err)
		}
		if f.ip.Optional {
			if _, err := rc.c.lookup(f.ip); isUnsatisfied(err) {
				continue
			}
		}
		val, err := rc.ResolvePoint(f.ip)
		if err != nil {
			return fmt.Errorf("di: inject %s: %w", f.ip, err)
		}
		field := lv.Field(f.index)
		if !field.CanSet() {
			if field, err = reflectx.Unlock(field); err != nil {
				return fmt.Errorf("di: inject %s: %w", f.ip, err)
			}
		}
		if err := assign(field, val); err != nil {
			return fmt.Errorf("di: inject %s: %w", f.ip, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, val any) error {
	if val == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(val)
	if !rv.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("%s is not assignable to %s", rv.Type(), dst.Type())
	}
	dst.Set(rv)
	return nil
}
