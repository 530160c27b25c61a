// Package config loads storefront settings from flags, environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/seed"
	"github.com/roach88/storefront/internal/storefront"
)

// EnvPrefix prefixes every environment variable, e.g. STOREFRONT_DB.
const EnvPrefix = "STOREFRONT"

// Config is the resolved storefront configuration.
type Config struct {
	DB            string `mapstructure:"db" validate:"required"`
	LogLevel      string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	AdminPassword string `mapstructure:"admin_password"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	Seed          bool   `mapstructure:"seed"`

	// Catalog is a directory holding a CUE seed catalog. Empty means the
	// built-in one.
	Catalog string `mapstructure:"catalog"`
}

// flagNames maps config keys to the CLI flags that may set them.
var flagNames = map[string]string{
	"db":             "db",
	"log_level":      "log-level",
	"admin_password": "admin-password",
	"bcrypt_cost":    "bcrypt-cost",
	"seed":           "seed",
	"catalog":        "catalog",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "storefront.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_password", seed.DefaultAdminPassword)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("seed", true)
	v.SetDefault("catalog", "")
}

// Load resolves the configuration. Precedence, highest first: flags that
// were set explicitly, STOREFRONT_* environment variables, the YAML file at
// configPath (if non-empty), defaults.
//
// flags may be nil. Only flags named in flagNames are bound.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := domain.Validate(c); err != nil {
		return err
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return domain.NewValidationError("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Storefront converts the configuration into storefront options, loading
// the seed catalog directory if one is configured.
func (c *Config) Storefront(logger *slog.Logger) (storefront.Config, error) {
	sc := storefront.Config{
		Path:          c.DB,
		AdminPassword: c.AdminPassword,
		BcryptCost:    c.BcryptCost,
		SkipSeed:      !c.Seed,
		Logger:        logger,
	}
	if c.Catalog != "" && c.Seed {
		cat, err := seed.LoadDir(c.Catalog)
		if err != nil {
			return storefront.Config{}, err
		}
		sc.Catalog = cat
	}
	return sc, nil
}
