package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"dominoes/internal/config"
	"dominoes/internal/game"
	"dominoes/internal/server"
	"dominoes/internal/session"
	"dominoes/internal/storage"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "dominoes",
	Short:         "Multiplayer dominoes room server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          "dominoes",
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
	}), nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	if configFile != "" {
		err := config.Watch(configFile, func(c *config.Config, err error) {
			if err != nil {
				logger.Warn("reload config", "err", err)
				return
			}
			lvl, err := log.ParseLevel(c.Log.Level)
			if err != nil {
				logger.Warn("reload config", "err", err)
				return
			}
			logger.SetLevel(lvl)
			logger.Info("log level changed", "level", lvl)
		})
		if err != nil {
			logger.Warn("watch config", "err", err)
		}
	}

	var store *storage.Store
	if cfg.Storage.Path != "" {
		store, err = storage.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()
	} else {
		logger.Info("match history disabled")
	}

	hub := session.NewManager(logger)
	coord := game.NewCoordinator(game.NewRegistry(), hub, nil, logger)
	srv := server.New(coord, hub, store, logger, server.Options{
		Origins:  cfg.Server.Origins,
		Statsviz: cfg.Debug.Statsviz,
	})

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "statsviz", cfg.Debug.Statsviz)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}
