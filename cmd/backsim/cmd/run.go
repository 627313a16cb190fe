package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backsim/backtest"
	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest described by a configuration file",
	Long: `Run loads quote history for every configured symbol, replays it through
the configured strategy and prints the final account summary.

Example:
  backsim run --config run.yaml
  backsim run --config run.yaml --report run.org --verbose`,
	RunE: runRun,
}

var (
	runConfigPath string
	runReportPath string
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to run config (YAML or JSON) (required)")
	runCmd.Flags().StringVarP(&runReportPath, "report", "r", "", "write an Org-mode run report to this path")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "log every executed trade")

	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	series := make([]*market.Series, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		rows, err := market.LoadQuotesCSV(sym.CSV)
		if err != nil {
			return fmt.Errorf("%s: %w", sym.Title, err)
		}
		s, err := market.NewSeries(rows, market.SeriesParams{
			Title:              sym.Title,
			MarginReq:          sym.MarginRequired,
			MarginRec:          sym.MarginRecommended,
			Spread:             sym.Spread,
			MarginFee:          sym.MarginFee,
			TrendChangePeriod:  sym.TrendChangePeriod,
			TrendChangePercent: sym.TrendChangePercent,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", sym.Title, err)
		}
		series = append(series, s)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name)
	if err != nil {
		return err
	}

	jrn, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrn.Close()

	var logger *zap.Logger
	if runVerbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer logger.Sync()
	}

	engine, err := backtest.NewEngine(series, strat, backtest.Params{
		Commission:        cfg.Account.Commission,
		CommissionPercent: cfg.Account.CommissionPercent,
		CommissionShare:   cfg.Account.CommissionShare,
		InitialDeposit:    cfg.Account.InitialDeposit,
		PeriodicDeposit:   cfg.Account.PeriodicDeposit,
		DepositInterval:   cfg.Account.DepositInterval,
		Inflation:         cfg.Account.Inflation,
		MarginReq:         cfg.Margin.Required,
		MarginRec:         cfg.Margin.Recommended,
		Offset:            cfg.Strategy.Offset,
		Multi:             len(series) > 1,
		Logger:            logger,
		Journal:           jrn,
	})
	if err != nil {
		return err
	}

	if err := engine.Setup(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	timeout, err := cfg.Run.ParseTimeout()
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	for _, s := range series {
		fmt.Printf("  Symbol: %s (%d rows)\n", s.Title(), s.Len())
	}
	fmt.Printf("  Run ID: %s\n\n", engine.RunID())

	engine.Calculate()
	res, err := engine.Results(timeout)
	if err != nil {
		return fmt.Errorf("calculate: %w", err)
	}

	printSummary(res)

	if runReportPath != "" {
		if err := writeReport(cfg, engine, res); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		fmt.Printf("\nReport written to %s\n", runReportPath)
	}

	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return journal.Null{}, nil
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.CyclesFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

func printSummary(res *backtest.Results) {
	last := lastProcessed(res)
	if last == nil {
		fmt.Println("No cycles were processed.")
		return
	}

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Period: %s .. %s\n", res.Rows[0].Date, last.Date)
	fmt.Printf("  Deposits: $%.2f\n", last.Deposits)
	fmt.Printf("  Final Value: $%.2f\n", last.TotalValue)
	fmt.Printf("  Net P/L: $%.2f\n", last.TotalValue-last.Deposits)
	fmt.Printf("  Cash: $%.2f\n", last.Cash)
	fmt.Printf("  Margin Used: $%.2f\n", last.MarginUsed)
	fmt.Printf("  Trades: %d\n", last.TotalTrades)
	fmt.Printf("  Expenses: $%.2f (commission $%.2f, spread $%.2f, debt $%.2f, other $%.2f)\n",
		last.TotalExpenses, last.CommissionExpense, last.SpreadExpense,
		last.DebtExpense, last.OtherExpense)
}

func lastProcessed(res *backtest.Results) *backtest.Row {
	for i := len(res.Rows) - 1; i >= 0; i-- {
		if !res.Rows[i].Skipped {
			return &res.Rows[i]
		}
	}
	return nil
}

func writeReport(cfg *config.Config, engine *backtest.Engine, res *backtest.Results) error {
	last := lastProcessed(res)
	if last == nil {
		return fmt.Errorf("no processed cycles to report")
	}

	symbols := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		symbols = append(symbols, s.Title)
	}

	report := journal.RunReport{
		RunID:             engine.RunID(),
		Strategy:          cfg.Strategy.Name,
		Symbols:           symbols,
		Created:           time.Now(),
		Start:             res.Rows[0].Date,
		End:               last.Date,
		Deposits:          last.Deposits,
		FinalValue:        last.TotalValue,
		TotalTrades:       last.TotalTrades,
		CommissionExpense: last.CommissionExpense,
		SpreadExpense:     last.SpreadExpense,
		DebtExpense:       last.DebtExpense,
		OtherExpense:      last.OtherExpense,
	}
	return report.WriteOrg(runReportPath)
}
