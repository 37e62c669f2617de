package config

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Viper keys.
const (
	KeyDatabasePath    = "database.path"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
	KeyDisplayCurrency = "display.currency"
	KeyAutoCheckpoint  = "checkpoints.auto"
)

// Config holds the resolved settings for one run of the CLI.
type Config struct {
	DatabasePath   string
	LogLevel       string
	LogFormat      string
	Currency       string
	AutoCheckpoint bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyDisplayCurrency, money.USD)
	v.SetDefault(KeyAutoCheckpoint, true)
}

// Load reads and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath:   ExpandPath(strings.TrimSpace(v.GetString(KeyDatabasePath))),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		Currency:       strings.ToUpper(strings.TrimSpace(v.GetString(KeyDisplayCurrency))),
		AutoCheckpoint: v.GetBool(KeyAutoCheckpoint),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, cfg.LogFormat)
	}
	if money.GetCurrency(cfg.Currency) == nil {
		return nil, fmt.Errorf("%w: %s: unknown currency %q", common.ErrInvalidConfig, KeyDisplayCurrency, cfg.Currency)
	}

	return cfg, nil
}
