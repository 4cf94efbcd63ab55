package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cpq-engine/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Pricing.PreferredCurrency)
	assert.Equal(t, []string{"PDL", "Fatture"}, cfg.Pricing.PerUnitUOMs)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cpq.json")

	cfg := config.Default()
	cfg.Server.Port = 9090
	cfg.Pricing.PreferredCurrency = "USD"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)
	assert.Equal(t, "USD", loaded.Pricing.PreferredCurrency)
	assert.Equal(t, "USD", loaded.Pricing.Engine().PreferredCurrency)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":7000}}`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Pricing.PreferredCurrency)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(config.EnvPort, "9191")
	t.Setenv(config.EnvCurrency, " usd ")
	t.Setenv(config.EnvPerUnitUOMs, "PDL, Utenti ,")
	t.Setenv(config.EnvCORSOrigins, "https://cpq.example.com")
	t.Setenv(config.EnvDBPath, "")
	t.Setenv(config.EnvLogLevel, "debug")

	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "USD", cfg.Pricing.PreferredCurrency)
	assert.Equal(t, []string{"PDL", "Utenti"}, cfg.Pricing.PerUnitUOMs)
	assert.Equal(t, []string{"https://cpq.example.com"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Storage.DatabasePath, "explicit empty path selects the memory store")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnv_BadPort(t *testing.T) {
	t.Setenv(config.EnvPort, "eighty")

	err := config.Default().ApplyEnv()
	assert.ErrorContains(t, err, config.EnvPort)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CPQ_CATALOG=/srv/catalog.yaml\n"), 0644))

	// godotenv writes straight into the process environment.
	t.Cleanup(func() { os.Unsetenv(config.EnvCatalog) })
	require.NoError(t, os.Unsetenv(config.EnvCatalog))

	require.NoError(t, config.LoadEnvFiles(filepath.Join(dir, "missing.env"), envFile))

	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/srv/catalog.yaml", cfg.Catalog.Path)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Pricing.PreferredCurrency = ""
	assert.Error(t, cfg.Validate())
}
