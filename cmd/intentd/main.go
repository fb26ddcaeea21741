package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"intentsim/bots"
	"intentsim/config"
	"intentsim/core"
	"intentsim/native/leaderboard"
	"intentsim/native/ledger"
	"intentsim/native/rates"
	"intentsim/native/staking"
	"intentsim/native/swap"
	"intentsim/observability/logging"
	"intentsim/rpc"
)

const envVar = "INTENTSIM_ENV"

func main() {
	configFile := flag.String("config", "./intentd.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("intentd", env, "")
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup("intentd", env, cfg.LogFile)

	engine := core.NewEngine(
		ledger.NewStore(nil),
		rates.DefaultTable(),
		swap.NewMatcher(swap.DefaultSolvers()),
		staking.NewAllocator(staking.DefaultPools()),
		leaderboard.NewBoard(),
	)
	engine.SetSettlementDelay(cfg.SettlementDelay.Std())
	engine.SetSweep(cfg.SweepInterval.Std(), cfg.CompletedRetention.Std())
	engine.SetLogger(logger)
	defer engine.Close()

	hub := rpc.NewHub()
	engine.SetEmitter(hub)

	server := rpc.NewServer(engine, hub, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pool hygiene stopped", slog.Any("error", err))
		}
	}()

	if cfg.BotsEnabled {
		generator := bots.New(engine, cfg.BotInterval.Std(), logger)
		go func() {
			if err := generator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot generator stopped", slog.Any("error", err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("intent venue listening", slog.String("addr", cfg.ListenAddress))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
