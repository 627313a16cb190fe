package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "A margin-aware backtesting engine for multi-symbol strategies",
	Long: `Backsim replays historical quote data through trading strategies and
accounts for everything a real margin account would charge along the way.

It provides tools for:
  - Backtesting strategies against daily or intraday quote history
  - Margin trading with required/recommended ratio enforcement
  - Commission, spread and daily margin fee accounting
  - Periodic inflation-adjusted deposits
  - Multi-symbol runs with automatic date alignment
  - Trade and cycle journaling to CSV or SQLite

Complete documentation is available at https://github.com/rustyeddy/backsim`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
