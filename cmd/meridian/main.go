package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/broker"
	"github.com/meridian-trading/meridian/internal/config"
	"github.com/meridian-trading/meridian/internal/coordinator"
	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/market"
	"github.com/meridian-trading/meridian/internal/poller"
	"github.com/meridian-trading/meridian/internal/store"
	"github.com/meridian-trading/meridian/internal/stream"
	"github.com/meridian-trading/meridian/internal/types"
)

// runAction wires the store, coordinator, streams, and poller and runs until
// the process is signaled.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	st, err := store.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// seed the watched symbols with the configured defaults
	for _, symbol := range cfg.Symbols {
		if err := st.UpsertSymbol(types.Symbol{Symbol: symbol, Active: true, TradeSize: cmd.Float("trade-size")}); err != nil {
			return err
		}
	}

	br := broker.NewAlpacaBroker(cfg.Alpaca.KeyID, cfg.Alpaca.SecretKey, cfg.Alpaca.BaseURL, log)

	coord := coordinator.New(st, br, coordinator.Config{
		ExtendedHours: cfg.Trading.ExtendedHours,
	}, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		coord.Run(ctx)
	}()

	// stale in-flight markers from a previous run must not block buys
	if err := coord.ResetTransactions(); err != nil {
		return err
	}

	if _, err := coord.LoadSettings(); err != nil {
		return err
	}

	backoff := stream.DefaultBackoff()

	if cfg.Feeds.AlpacaMarketData {
		md := stream.NewMarketDataStream(
			cfg.Alpaca.MarketDataURL, cfg.Alpaca.KeyID, cfg.Alpaca.SecretKey,
			cfg.Symbols, backoff, coord, log,
		)

		wg.Add(1)

		go func() {
			defer wg.Done()
			md.Run(ctx)
		}()
	}

	if cfg.Feeds.AlpacaUpdates {
		updates := stream.NewUpdatesStream(
			cfg.Alpaca.UpdatesURL, cfg.Alpaca.KeyID, cfg.Alpaca.SecretKey,
			backoff, coord, log,
		)

		wg.Add(1)

		go func() {
			defer wg.Done()
			updates.Run(ctx)
		}()
	}

	if cfg.Feeds.Finnhub {
		finnhub := stream.NewFinnhubStream(
			cfg.Finnhub.URL, cfg.Finnhub.Token,
			cfg.Symbols, backoff, coord, log,
		)

		wg.Add(1)

		go func() {
			defer wg.Done()
			finnhub.Run(ctx)
		}()
	}

	p := poller.New(coord, market.NewYorkCalendar(), poller.Config{
		OpenInterval:   cfg.Poller.OpenInterval,
		ClosedInterval: cfg.Poller.ClosedInterval,
		ExtendedHours:  cfg.Trading.ExtendedHours,
	}, log)

	wg.Add(1)

	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	log.Info("meridian started",
		zap.Strings("symbols", cfg.Symbols),
		zap.Bool("alpaca_feed", cfg.Feeds.AlpacaMarketData),
		zap.Bool("finnhub_feed", cfg.Feeds.Finnhub),
		zap.Bool("trade_updates", cfg.Feeds.AlpacaUpdates),
	)

	<-ctx.Done()
	log.Info("shutting down")
	coord.Close()
	wg.Wait()

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "meridian",
		Usage: "Automated equities trading agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "meridian.yaml",
			},
			&cli.FloatFlag{
				Name:  "trade-size",
				Usage: "Default per-order share cap for seeded symbols",
				Value: 1,
			},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
