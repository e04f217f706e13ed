package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/dagaz/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.AuthEnabled())
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, AuthModeDisabled, cfg.Mode)
}

func TestAuthConfig_PasscodeMode(t *testing.T) {
	cfg := AuthConfig{Mode: "passcode"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	assert.Error(t, cfg.Validate())
}

func TestFullConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Inbox.Enabled(), "inbox should be disabled by default")
}

func TestFullConfig_ExportPathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Export.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestFullConfig_NegativeThrottle(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Events.StatsThrottle = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestLoadYAMLWithEnv(t *testing.T) {
	t.Setenv("DAGAZ_TEST_DB", "/tmp/journal.db")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: DEBUG
  http:
    port: 9090
sqlite:
  path: ${DAGAZ_TEST_DB}
inbox:
  path: ./inbox
events:
  stats_throttle: 500ms
auth:
  mode: passcode
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))
	assert.Equal(t, 9090, cfg.App.HTTP.Port)
	assert.Equal(t, "/tmp/journal.db", cfg.SQLite.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Events.StatsThrottle)
	assert.Equal(t, "./exports", cfg.Export.Path, "default kept")
	assert.True(t, cfg.Inbox.Enabled())
	assert.True(t, cfg.Auth.AuthEnabled())
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	assert.Equal(t, 8080, cfg.App.HTTP.Port)
}
