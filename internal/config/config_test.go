package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "apicatalog", cfg.App.Name)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "0.0.0.0:3333", cfg.HTTPAddr())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9000

[database]
driver = "sqlite"
path = "catalog.db"

[redis]
addr = ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TOKEN_SECRET_KEY", "from-env")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "catalog.db", cfg.DSN())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Auth.JWTSecret = "  "
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/apicatalog?parseTime=true&loc=Local&charset=utf8mb4", cfg.DSN())

	cfg.Database.Driver = DriverPostgres
	cfg.Database.Port = 5432
	cfg.Database.Params = "sslmode=disable"
	assert.Equal(t, "host=127.0.0.1 port=5432 user=root password= dbname=apicatalog sslmode=disable", cfg.DSN())
}
