package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative deposit", func(c *Config) { c.Account.InitialDeposit = -1 }},
		{"inflation out of range", func(c *Config) { c.Account.Inflation = 150 }},
		{"rec above req", func(c *Config) { c.Margin.Recommended = 1; c.Margin.Required = 0.5 }},
		{"missing strategy", func(c *Config) { c.Strategy.Name = "" }},
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"symbol without csv", func(c *Config) { c.Symbols[0].CSV = "" }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }},
		{"csv journal without files", func(c *Config) { c.Journal.Type = "csv" }},
		{"sqlite journal without path", func(c *Config) { c.Journal.Type = "sqlite" }},
		{"bad timeout", func(c *Config) { c.Run.Timeout = "eventually" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
account:
  initial_deposit: 5000
  periodic_deposit: 100
  deposit_interval: 30
  inflation: 2.5
margin:
  required: 1.0
  recommended: 0.5
strategy:
  name: noop
  offset: 10
symbols:
  - title: SPY
    csv: ./spy.csv
    spread: 0.1
  - title: QQQ
    csv: ./qqq.csv
journal:
  type: sqlite
  db_path: ./run.db
run:
  timeout: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Account.InitialDeposit)
	assert.Equal(t, "noop", cfg.Strategy.Name)
	assert.Len(t, cfg.Symbols, 2)
	assert.Equal(t, "QQQ", cfg.Symbols[1].Title)

	d, err := cfg.Run.ParseTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	cfg := Default()
	cfg.Account.InitialDeposit = 2500
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
