package cfg

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Option configures how a configuration section is loaded.
type Option interface {
	apply(*source)
}

type optionFunc func(*source)

func (f optionFunc) apply(s *source) { f(s) }

type source struct {
	file        string
	kind        string
	envPrefix   string
	keyReplacer *strings.Replacer
	env         bool
	optional    bool
	defaults    map[string]any
	hooks       []func(*viper.Viper) error
}

func newSource(opts []Option) source {
	s := source{
		env:         true,
		optional:    true,
		keyReplacer: strings.NewReplacer(".", "_", "-", "_"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&s)
		}
	}
	return s
}

// WithSourceFile reads values from a file; the format follows the extension
// unless WithType is given.
func WithSourceFile(path string) Option {
	return optionFunc(func(s *source) { s.file = path })
}

func WithType(kind string) Option {
	return optionFunc(func(s *source) { s.kind = kind })
}

// WithRequired fails when the source file does not exist.
func WithRequired() Option {
	return optionFunc(func(s *source) { s.optional = false })
}

// WithEnvPrefix sets the prefix of environment overrides: with prefix APP the
// key bridge.strict is read from APP_BRIDGE_STRICT.
func WithEnvPrefix(prefix string) Option {
	return optionFunc(func(s *source) { s.envPrefix = prefix })
}

func WithNoEnv() Option {
	return optionFunc(func(s *source) {
		s.env = false
		s.envPrefix = ""
	})
}

func WithDefault(key string, value any) Option {
	return optionFunc(func(s *source) {
		if s.defaults == nil {
			s.defaults = map[string]any{}
		}
		s.defaults[key] = value
	})
}

func WithViper(fn func(*viper.Viper) error) Option {
	return optionFunc(func(s *source) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	})
}

// Load decodes the section key of the configuration into a T. An empty key
// decodes the whole configuration.
func Load[T any](key string, opts ...Option) (T, error) {
	var out T
	s := newSource(opts)
	v, err := load(s)
	if err != nil {
		return out, err
	}
	if s.env {
		bindEnv(v, key, reflect.TypeOf(out))
	}
	if err := decode(v, key, &out); err != nil {
		return out, fmt.Errorf("cfg: decode %q: %w", key, err)
	}
	return out, nil
}

// Provide registers a constructor for T loaded from section key.
func Provide[T any](key string, opts ...Option) fx.Option {
	return fx.Provide(func() (T, error) {
		return Load[T](key, opts...)
	})
}

func load(s source) (*viper.Viper, error) {
	v := viper.New()
	if s.env {
		if s.envPrefix != "" {
			v.SetEnvPrefix(s.envPrefix)
		}
		if s.keyReplacer != nil {
			v.SetEnvKeyReplacer(s.keyReplacer)
		}
		v.AutomaticEnv()
	}
	for k, val := range s.defaults {
		v.SetDefault(k, val)
	}
	for _, hook := range s.hooks {
		if err := hook(v); err != nil {
			return nil, err
		}
	}
	if s.file == "" {
		return v, nil
	}
	v.SetConfigFile(s.file)
	if s.kind != "" {
		v.SetConfigType(s.kind)
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if s.optional && (errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)) {
			return v, nil
		}
		if cleaned, ok := sanitize(s.file); ok {
			if s.kind == "" {
				if ext := strings.TrimPrefix(filepath.Ext(s.file), "."); ext != "" {
					v.SetConfigType(ext)
				}
			}
			if rerr := v.ReadConfig(bytes.NewReader(cleaned)); rerr == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("cfg: read %s: %w", s.file, err)
	}
	return v, nil
}

// sanitize strips byte order marks and zero-width spaces some editors leave
// in config files.
func sanitize(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	cleaned := bytes.ReplaceAll(data, []byte("\xEF\xBB\xBF"), nil)
	cleaned = bytes.ReplaceAll(cleaned, []byte("\xE2\x80\x8B"), nil)
	if len(cleaned) == len(data) {
		return nil, false
	}
	return cleaned, true
}

// bindEnv registers every leaf key of t under prefix so that environment
// overrides show up in AllSettings even when no file mentions them.
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		if prefix != "" {
			_ = v.BindEnv(prefix)
		}
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		bindEnv(v, key, f.Type)
	}
}

func decode(v *viper.Viper, key string, out any) error {
	var input any = v.AllSettings()
	if key != "" {
		input = v.Get(key)
		if _, isMap := input.(map[string]any); isMap || input == nil {
			input = lookup(v.AllSettings(), strings.Split(strings.ToLower(key), "."))
		}
	}
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func lookup(settings map[string]any, path []string) any {
	var cur any = settings
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}
