package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest run configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Margin   MarginConfig   `json:"margin" yaml:"margin"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Symbols  []SymbolConfig `json:"symbols" yaml:"symbols"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Run      RunConfig      `json:"run" yaml:"run"`
}

// AccountConfig contains cash and fee parameters
type AccountConfig struct {
	InitialDeposit    float64 `json:"initial_deposit" yaml:"initial_deposit"`
	PeriodicDeposit   float64 `json:"periodic_deposit,omitempty" yaml:"periodic_deposit,omitempty"`
	DepositInterval   int     `json:"deposit_interval,omitempty" yaml:"deposit_interval,omitempty"`
	Inflation         float64 `json:"inflation,omitempty" yaml:"inflation,omitempty"`
	Commission        float64 `json:"commission,omitempty" yaml:"commission,omitempty"`
	CommissionPercent float64 `json:"commission_percent,omitempty" yaml:"commission_percent,omitempty"`
	CommissionShare   float64 `json:"commission_share,omitempty" yaml:"commission_share,omitempty"`
}

// MarginConfig contains the portfolio-level margin ratios
type MarginConfig struct {
	Required    float64 `json:"required,omitempty" yaml:"required,omitempty"`
	Recommended float64 `json:"recommended,omitempty" yaml:"recommended,omitempty"`
}

// StrategyConfig selects the strategy and its warm-up offset
type StrategyConfig struct {
	Name   string `json:"name" yaml:"name"`
	Offset int    `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// SymbolConfig contains one instrument's data source and parameters
type SymbolConfig struct {
	Title              string  `json:"title" yaml:"title"`
	CSV                string  `json:"csv" yaml:"csv"`
	Spread             float64 `json:"spread,omitempty" yaml:"spread,omitempty"`
	MarginRequired     float64 `json:"margin_required,omitempty" yaml:"margin_required,omitempty"`
	MarginRecommended  float64 `json:"margin_recommended,omitempty" yaml:"margin_recommended,omitempty"`
	MarginFee          float64 `json:"margin_fee,omitempty" yaml:"margin_fee,omitempty"`
	TrendChangePeriod  int     `json:"trend_change_period,omitempty" yaml:"trend_change_period,omitempty"`
	TrendChangePercent float64 `json:"trend_change_percent,omitempty" yaml:"trend_change_percent,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	CyclesFile string `json:"cycles_file,omitempty" yaml:"cycles_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// RunConfig contains parameters of the calculation itself
type RunConfig struct {
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "30s", "5m"
}

// ParseTimeout converts the timeout string to time.Duration
func (r RunConfig) ParseTimeout() (time.Duration, error) {
	if r.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(r.Timeout)
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.InitialDeposit < 0 {
		return fmt.Errorf("account.initial_deposit must not be negative")
	}
	if c.Account.PeriodicDeposit < 0 {
		return fmt.Errorf("account.periodic_deposit must not be negative")
	}
	if c.Account.DepositInterval < 0 {
		return fmt.Errorf("account.deposit_interval must not be negative")
	}
	if c.Account.Inflation < 0 || c.Account.Inflation > 100 {
		return fmt.Errorf("account.inflation must be within [0,100]")
	}
	if c.Margin.Recommended > c.Margin.Required {
		return fmt.Errorf("margin.recommended must not exceed margin.required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Offset < 0 {
		return fmt.Errorf("strategy.offset must not be negative")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for i, s := range c.Symbols {
		if s.Title == "" {
			return fmt.Errorf("symbols[%d].title is required", i)
		}
		if s.CSV == "" {
			return fmt.Errorf("symbols[%d].csv is required", i)
		}
		if s.Spread < 0 || s.Spread > 100 {
			return fmt.Errorf("symbols[%d].spread must be within [0,100]", i)
		}
		if s.MarginRecommended > s.MarginRequired {
			return fmt.Errorf("symbols[%d].margin_recommended must not exceed margin_required", i)
		}
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.CyclesFile == "" {
			return fmt.Errorf("journal trades_file and cycles_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if _, err := c.Run.ParseTimeout(); err != nil {
		return fmt.Errorf("run.timeout: %w", err)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialDeposit:  10000,
			PeriodicDeposit: 0,
			DepositInterval: 30,
		},
		Strategy: StrategyConfig{
			Name: "buy-and-hold",
		},
		Symbols: []SymbolConfig{
			{Title: "SPY", CSV: "./spy.csv", Spread: 0.1},
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Run: RunConfig{
			Timeout: "30s",
		},
	}
}
