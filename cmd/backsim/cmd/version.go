package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backsim version %s\n", version)
		fmt.Println("A margin-aware backtesting engine for multi-symbol strategies")
		fmt.Println("https://github.com/rustyeddy/backsim")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
