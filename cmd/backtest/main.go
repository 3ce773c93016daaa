package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/engine"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/internal/portfolio"
	"github.com/deltree-y/LazyBull-sub000/internal/risk"
	"github.com/deltree-y/LazyBull-sub000/internal/signal"
	"github.com/deltree-y/LazyBull-sub000/internal/storage"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func main() {
	pricesPath := flag.String("prices", "prices.csv", "price table CSV")
	strategyPath := flag.String("strategy", "", "strategy YAML (overrides STRATEGY_FILE)")
	universeArg := flag.String("universe", "", "comma-separated symbols (default: all in price table)")
	momentumWindow := flag.Int("momentum-window", 20, "window of the built-in momentum signal")
	persist := flag.Bool("persist", false, "save fills and NAV history to Postgres")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	path := cfg.Strategy
	if *strategyPath != "" {
		path = *strategyPath
	}
	strategy, err := config.LoadStrategy(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("strategy file %s not found, using defaults", path)
		strategy = config.DefaultStrategy()
	} else if err != nil {
		logger.Error("strategy config error: %v", err)
		os.Exit(1)
	}

	records, err := marketdata.LoadPriceCSV(*pricesPath)
	if err != nil {
		logger.Error("failed to load prices: %v", err)
		os.Exit(1)
	}

	index := marketdata.NewPriceIndex(records, logger)
	calendar := marketdata.NewCalendar(index.Dates())

	universe := marketdata.Symbols(records)
	if *universeArg != "" {
		universe = strings.Split(*universeArg, ",")
	}

	generator, err := signal.NewMomentum(index, *momentumWindow)
	if err != nil {
		logger.Error("signal error: %v", err)
		os.Exit(1)
	}

	loop, err := engine.New(engine.Deps{
		Config:    strategy,
		Index:     index,
		Calendar:  calendar,
		Gate:      marketdata.NewTradabilityGate(index, logger),
		Generator: generator,
		Budget:    risk.NewBudgetAdjuster(strategy.RiskBudget, index, logger),
		Stops:     risk.NewStopLossMonitor(strategy.StopLoss, logger),
		Exposure:  risk.NewEquityCurveController(strategy.EquityCurve, logger),
		Ledger:    portfolio.NewLedger(strategy.InitialCapital, strategy.LotSize, strategy.Fees, logger),
		Pending:   engine.NewPendingQueue(strategy.Pending, logger),
		Universe:  universe,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("engine error: %v", err)
		os.Exit(1)
	}

	result, runErr := loop.Run()
	printSummary(result)

	if *persist {
		if err := persistResult(cfg, result); err != nil {
			logger.Error("failed to persist results: %v", err)
			os.Exit(1)
		}
		logger.Info("persisted %d fills and %d NAV records", len(result.Fills), len(result.NAVs))
	}

	if runErr != nil {
		logger.Error("backtest aborted: %v", runErr)
		os.Exit(1)
	}
}

func persistResult(cfg *config.Config, r *engine.Result) error {
	store, err := storage.NewPostgresStorage(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password,
		cfg.Database.DBName, cfg.Database.SSLMode,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := range r.Fills {
		if err := store.SaveFill(&r.Fills[i]); err != nil {
			return err
		}
	}
	for i := range r.NAVs {
		if err := store.SaveNAV(&r.NAVs[i]); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(r *engine.Result) {
	fmt.Println("==================== BACKTEST SUMMARY ====================")
	fmt.Printf("Trading days:       %d\n", len(r.NAVs))
	fmt.Printf("Total return:       %.2f%%\n", r.TotalReturn*100)
	fmt.Printf("Annualized return:  %.2f%%\n", r.AnnualizedReturn*100)
	fmt.Printf("Max drawdown:       %.2f%%\n", r.MaxDrawdown*100)
	fmt.Printf("Trades:             %d (%d sells, win rate %.1f%%)\n",
		r.TradeCount, r.SellCount, r.WinRate*100)
	fmt.Printf("Pending orders:     %d succeeded, %d abandoned\n",
		r.PendingSucceeded, r.PendingAbandoned)
	if len(r.Warnings) > 0 {
		fmt.Printf("Warnings:           %d\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
