package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, 15*time.Minute, cfg.Fares.CacheTTL)
	require.Equal(t, 10*time.Second, cfg.Fares.ThrottleWindow)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TAXIHUB_HTTP_ADDR", ":9090")
	t.Setenv("TAXIHUB_FARES_THROTTLE_WINDOW", "3s")
	t.Setenv("TAXIHUB_LEGACY_BASE_URL", "https://vizagtaxihub.com/api/")
	t.Setenv("TAXIHUB_HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.Equal(t, 3*time.Second, cfg.Fares.ThrottleWindow)
	require.Equal(t, "https://vizagtaxihub.com/api", cfg.Legacy.BaseURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "taxihub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fares:\n  cache_ttl: 5m\njobs:\n  enabled: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.Fares.CacheTTL)
	require.False(t, cfg.Jobs.Enabled)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.Fares.CacheTTL = time.Minute
	require.NoError(t, cfg.Validate())

	cfg.Fares.CacheTTL = 0
	require.Error(t, cfg.Validate())
}
