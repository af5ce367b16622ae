package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bootmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
configDir: /srv/bootmatch
lockFile: /run/bootmatch.lock
lockInterval: 250ms
store:
  backend: sqlite
  sqlitePath: /srv/state.db
pxe:
  enabled: true
  url: http://pxe.local/
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/bootmatch", cfg.ConfigDir)
	assert.Equal(t, "/run/bootmatch.lock", cfg.LockFile)
	assert.Equal(t, 250*time.Millisecond, cfg.LockInterval)
	assert.Equal(t, DefaultWarnEvery, cfg.LockWarnEvery, "unset keys keep their default")
	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/srv/state.db", cfg.Store.SQLitePath)
	assert.True(t, cfg.PXE.Enabled)
	assert.Equal(t, DefaultPXECommand, cfg.PXE.Command)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errorType   string
		errContains string
	}{
		{
			name:        "malformed yaml",
			content:     "configDir: [unclosed",
			errorType:   "parse",
			errContains: "[parse]",
		},
		{
			name:        "unknown backend",
			content:     "store:\n  backend: etcd\n",
			errorType:   "validation",
			errContains: "store.backend",
		},
		{
			name:        "bad log level",
			content:     "logLevel: chatty\n",
			errorType:   "validation",
			errContains: "logLevel",
		},
		{
			name:        "empty lock file",
			content:     "lockFile: ''\n",
			errorType:   "validation",
			errContains: "lockFile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.errorType, cfgErr.ErrorType)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestConfigurationError_DetailedError(t *testing.T) {
	err := &ConfigurationError{
		FilePath:    "/etc/bootmatch.yaml",
		ErrorType:   "parse",
		Message:     "bad indentation",
		Suggestions: []string{"check the YAML syntax"},
	}
	detailed := err.DetailedError()
	assert.Contains(t, detailed, "File: /etc/bootmatch.yaml")
	assert.Contains(t, detailed, "- check the YAML syntax")
}

func TestValidate(t *testing.T) {
	assert.False(t, Validate(GetDefaultConfig()).HasErrors())

	cfg := GetDefaultConfig()
	cfg.Store.Backend = StoreBackendSQLite
	cfg.Store.SQLitePath = ""
	cfg.PXE.Enabled = true
	cfg.PXE.Command = ""
	errs := Validate(cfg)
	require.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), "validation failed")
}

func TestMustExist(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ConfigDir = t.TempDir()
	assert.NoError(t, cfg.MustExist())

	cfg.ConfigDir = filepath.Join(cfg.ConfigDir, "nope")
	assert.Error(t, cfg.MustExist())
}
