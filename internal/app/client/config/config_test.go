package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, filepath.Join(dir, defaultDataFile), cfg.DataPath)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.True(t, cfg.IsLocal())
}

func TestLoad_Env(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SERVER_ADDRESS", "shop.local:9000")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("ENABLE_TLS", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, "https://shop.local:9000", cfg.BaseURL())
}

func TestLoad_File(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	file := filepath.Join(dir, "technoplus.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server_address: pos.example:8443\nmax_retries: 7\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "pos.example:8443", cfg.ServerAddress)
	assert.Equal(t, 7, cfg.MaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "negative retries", key: "MAX_RETRIES", val: "-1"},
		{name: "zero interval", key: "SYNC_INTERVAL", val: "0s"},
		{name: "zero timeout", key: "REQUEST_TIMEOUT", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Setenv("CONFIG_DIR", t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_DIR", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
