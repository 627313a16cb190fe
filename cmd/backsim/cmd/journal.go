package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query and display trade and cycle records from a SQLite journal.

Subcommands:
  runs    - List recorded run ids
  trades  - List the trades of a run
  cycles  - List the cycle snapshots of a run

Examples:
  backsim journal runs
  backsim journal trades 01J8ZQ...
  backsim journal cycles 01J8ZQ...`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded run ids, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades [run-id]",
	Short: "List the trades of a run (defaults to the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalTrades,
}

var journalCyclesCmd = &cobra.Command{
	Use:   "cycles [run-id]",
	Short: "List the cycle snapshots of a run (defaults to the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalCycles,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalCyclesCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backsim.sqlite", "path to SQLite journal DB")
}

func openSQLite() (*journal.SQLiteJournal, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func resolveRunID(j *journal.SQLiteJournal, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return j.LastRunID()
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Println(r)
	}
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runID, err := resolveRunID(j, args)
	if err != nil {
		return err
	}

	recs, err := j.ListTradesByRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("%d trades for run %s\n", len(recs), runID)
	for _, r := range recs {
		call := ""
		if r.MarginCall {
			call = " [margin call]"
		}
		fmt.Printf("  %s  %-5s %-5s %6d %-8s @ %.4f%s\n",
			r.Time, r.Action, r.Side, r.Units, r.Symbol, r.Price, call)
	}
	return nil
}

func runJournalCycles(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runID, err := resolveRunID(j, args)
	if err != nil {
		return err
	}

	snaps, err := j.ListCyclesByRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("%d cycles for run %s\n", len(snaps), runID)
	for _, c := range snaps {
		fmt.Printf("  %s  value %.2f  cash %.2f  margin %.2f  trades %d\n",
			c.Time, c.TotalValue, c.Cash, c.MarginUsed, c.TotalTrades)
	}
	return nil
}
