package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every DEVDOCK_* variable so
// the developer's own settings cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	for _, key := range []string{
		"DEVDOCK_CONFIG_DIR",
		"DEVDOCK_DOCKER_HOST",
		"DEVDOCK_COMPOSE_BINARY",
		"DEVDOCK_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".devdock"), s.ConfigDir)
	assert.Equal(t, "", s.Docker.Host)
	assert.Equal(t, "docker", s.Compose.Binary)
	assert.Equal(t, "warn", s.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	isolate(t)

	content := `
config_dir: /srv/devdock
docker:
  host: "tcp://10.0.0.5:2375"
compose:
  binary: podman
log:
  level: DEBUG
`
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/devdock", s.ConfigDir)
	assert.Equal(t, "tcp://10.0.0.5:2375", s.Docker.Host)
	assert.Equal(t, "podman", s.Compose.Binary)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoad_ImplicitFileInConfigDir(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".devdock")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: info\n"), 0o644))

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	home := isolate(t)

	t.Setenv("DEVDOCK_CONFIG_DIR", "~/envs")
	t.Setenv("DEVDOCK_DOCKER_HOST", "unix:///run/user/1000/docker.sock")
	t.Setenv("DEVDOCK_COMPOSE_BINARY", "nerdctl")
	t.Setenv("DEVDOCK_LOG_LEVEL", "error")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "envs"), s.ConfigDir)
	assert.Equal(t, "unix:///run/user/1000/docker.sock", s.Docker.Host)
	assert.Equal(t, "nerdctl", s.Compose.Binary)
	assert.Equal(t, "error", s.Log.Level)
}

func TestLoad_EnvironmentBeatsFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))
	t.Setenv("DEVDOCK_LOG_LEVEL", "debug")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
