package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  request_timeout: 5s
model:
  path: /srv/models/forest.json
batch:
  export_ttl: 2m
log:
  level: debug
`)
	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.HTTP.Port)
	assert.Equal(t, 5*time.Second, config.HTTP.RequestTimeout)
	assert.Equal(t, "/srv/models/forest.json", config.Model.Path)
	assert.Equal(t, 2*time.Minute, config.Batch.ExportTTL)
	assert.Equal(t, "debug", config.Log.Level)

	// untouched keys keep their defaults
	assert.Equal(t, 64, config.Batch.ExportCapacity)
	assert.Equal(t, 15*time.Second, config.HTTP.ReadTimeout)
}

func TestLoadEmptyFile(t *testing.T) {
	config, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty model path": "model:\n  path: \"\"\n",
		"bad port":         "http:\n  port: 70000\n",
		"zero upload":      "batch:\n  max_upload_bytes: 0\n",
		"negative ttl":     "batch:\n  export_ttl: -1s\n",
		"not yaml":         "http: [port\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestPathFromEnvironment(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())

	t.Setenv(EnvPath, "/etc/churnscope/config.yaml")
	assert.Equal(t, "/etc/churnscope/config.yaml", Path())
}
