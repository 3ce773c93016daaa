package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/internal/notify"
	"github.com/deltree-y/LazyBull-sub000/internal/paper"
	"github.com/deltree-y/LazyBull-sub000/internal/signal"
	"github.com/deltree-y/LazyBull-sub000/internal/storage"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func main() {
	pricesPath := flag.String("prices", "prices.csv", "price table CSV")
	dateArg := flag.String("date", "", "trading date to process (default: today)")
	momentumWindow := flag.Int("momentum-window", 20, "window of the built-in momentum signal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	strategy, err := config.LoadStrategy(cfg.Strategy)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("strategy file %s not found, using defaults", cfg.Strategy)
		strategy = config.DefaultStrategy()
	} else if err != nil {
		logger.Error("strategy config error: %v", err)
		os.Exit(1)
	}

	date := *dateArg
	if date == "" {
		date = time.Now().Format(domain.DateLayout)
	}

	records, err := marketdata.LoadPriceCSV(*pricesPath)
	if err != nil {
		logger.Error("failed to load prices: %v", err)
		os.Exit(1)
	}
	index := marketdata.NewPriceIndex(records, logger)
	calendar := marketdata.NewCalendar(index.Dates())

	store, err := storage.NewPostgresStorage(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password,
		cfg.Database.DBName, cfg.Database.SSLMode,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		logger.Error("storage error: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram disabled: %v", err)
		} else {
			notifier = tg
		}
	}

	generator, err := signal.NewMomentum(index, *momentumWindow)
	if err != nil {
		logger.Error("signal error: %v", err)
		os.Exit(1)
	}

	runner, err := paper.NewRunner(strategy, store, index, calendar, generator, notifier, logger)
	if err != nil {
		logger.Error("runner error: %v", err)
		os.Exit(1)
	}

	if err := runner.RunDay(date); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("%s is not a trading date, nothing to do", date)
			return
		}
		logger.Error("paper run failed for %s: %v", date, err)
		os.Exit(1)
	}
	logger.Info("paper run complete for %s", date)
}
