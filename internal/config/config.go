package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Data     DataConfig
	Ledger   LedgerConfig
	Security SecurityConfig
}

// DataConfig locates the flat record files.
type DataConfig struct {
	Dir string
}

// LedgerConfig holds ledger behaviour settings.
type LedgerConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
	RatesFile       string `mapstructure:"rates_file"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	MaxAttempts uint8 `mapstructure:"max_attempts"`
}

// Load reads configuration from file and env. Env var overrides use prefix TELLER_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "teller")
	v.SetDefault("data.dir", dataDir)
	v.SetDefault("ledger.default_currency", "USD")
	v.SetDefault("ledger.rates_file", "")
	v.SetDefault("security.max_attempts", 3)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TELLER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "teller"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TELLER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Security.MaxAttempts == 0 {
		c.Security.MaxAttempts = 3
	}
	if c.Ledger.RatesFile == "" {
		c.Ledger.RatesFile = filepath.Join(c.Data.Dir, "rates.toml")
	}
	return c, nil
}

// The record files all live under the data dir.
func (c Config) AccountsFile() string     { return filepath.Join(c.Data.Dir, "accounts.dat") }
func (c Config) TransactionsFile() string { return filepath.Join(c.Data.Dir, "transactions.dat") }
func (c Config) LoansFile() string        { return filepath.Join(c.Data.Dir, "loans.dat") }
func (c Config) AdminFile() string        { return filepath.Join(c.Data.Dir, "admin.dat") }
func (c Config) LogFile() string          { return filepath.Join(c.Data.Dir, "teller.log") }
