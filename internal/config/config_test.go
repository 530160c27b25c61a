package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/domain"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "storefront.db", "")
	fs.String("log-level", "info", "")
	fs.Int("bcrypt-cost", 10, "")
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "storefront.db", cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "admin123", cfg.AdminPassword)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.Seed)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, "db: shop.db\nlog_level: DEBUG\nseed: false\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "shop.db", cfg.DB)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.False(t, cfg.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db: shop.db\n")
	t.Setenv("STOREFRONT_DB", "env.db")
	t.Setenv("STOREFRONT_ADMIN_PASSWORD", "from-env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DB)
	assert.Equal(t, "from-env", cfg.AdminPassword)
}

func TestLoad_FlagPrecedence(t *testing.T) {
	t.Setenv("STOREFRONT_DB", "env.db")
	t.Setenv("STOREFRONT_LOG_LEVEL", "warn")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--db", "flag.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.DB, "explicit flag beats env")
	assert.Equal(t, "warn", cfg.LogLevel, "unset flag does not shadow env")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("log level", func(t *testing.T) {
		t.Setenv("STOREFRONT_LOG_LEVEL", "loud")
		_, err := Load("", nil)
		assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
	})
	t.Run("bcrypt cost", func(t *testing.T) {
		t.Setenv("STOREFRONT_BCRYPT_COST", "99")
		_, err := Load("", nil)
		assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
	})
}

func TestStorefront(t *testing.T) {
	cfg := &Config{DB: "x.db", LogLevel: "info", AdminPassword: "pw", Seed: false, Catalog: "/does/not/matter"}
	sc, err := cfg.Storefront(nil)
	require.NoError(t, err)
	assert.Equal(t, "x.db", sc.Path)
	assert.True(t, sc.SkipSeed)
	assert.Nil(t, sc.Catalog)

	cfg.Seed = true
	_, err = cfg.Storefront(nil)
	assert.True(t, domain.IsCode(err, domain.ErrCodeValidation))
}
