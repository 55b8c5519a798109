package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type sectionConfig struct {
	Strict  bool          `mapstructure:"strict"`
	Verbose bool          `mapstructure:"verbose"`
	Timeout time.Duration `mapstructure:"timeout"`
	Tags    []string      `mapstructure:"tags"`
}

func TestLoadReadsFromEnv(t *testing.T) {
	t.Setenv("APP_BRIDGE_STRICT", "true")
	t.Setenv("APP_BRIDGE_TIMEOUT", "2s")

	out, err := Load[sectionConfig]("bridge", WithEnvPrefix("APP"))
	require.NoError(t, err)
	require.True(t, out.Strict)
	require.False(t, out.Verbose)
	require.Equal(t, 2*time.Second, out.Timeout)
}

func TestLoadReadsFromToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := []byte("[bridge]\nstrict = true\nverbose = true\ntags = \"a,b\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	out, err := Load[sectionConfig]("bridge", WithSourceFile(path), WithNoEnv())
	require.NoError(t, err)
	require.True(t, out.Strict)
	require.True(t, out.Verbose)
	require.Equal(t, []string{"a", "b"}, out.Tags)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bridge:\n  strict: true\n"), 0o600))
	t.Setenv("APP_BRIDGE_STRICT", "false")

	out, err := Load[sectionConfig]("bridge", WithSourceFile(path), WithEnvPrefix("APP"))
	require.NoError(t, err)
	require.False(t, out.Strict)
}

func TestLoadStripsByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := append([]byte("\xEF\xBB\xBF"), []byte(`{"bridge":{"verbose":true}}`)...)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	out, err := Load[sectionConfig]("bridge", WithSourceFile(path), WithNoEnv())
	require.NoError(t, err)
	require.True(t, out.Verbose)
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")

	out, err := Load[sectionConfig]("bridge", WithSourceFile(missing), WithNoEnv(), WithDefault("bridge.verbose", true))
	require.NoError(t, err)
	require.True(t, out.Verbose)

	_, err = Load[sectionConfig]("bridge", WithSourceFile(missing), WithRequired())
	require.Error(t, err)
}

func TestProvideRegistersConstructor(t *testing.T) {
	t.Setenv("APP_BRIDGE_VERBOSE", "1")
	var out sectionConfig
	app := fxtest.New(t,
		Provide[sectionConfig]("bridge", WithEnvPrefix("APP")),
		fx.Populate(&out),
	)
	app.RequireStart()
	app.RequireStop()
	require.True(t, out.Verbose)
}
