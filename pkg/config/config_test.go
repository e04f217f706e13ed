package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "journal")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Limit: 7}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, sample{Name: "journal", Limit: 7}, s)
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "limit: -1\n")

	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadMissingFile(t *testing.T) {
	var s sample
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &s))
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default"}
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s))
	assert.Equal(t, "default", s.Name)

	bad := sample{Limit: -3}
	assert.Error(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &bad), "defaults should still be validated")
}
