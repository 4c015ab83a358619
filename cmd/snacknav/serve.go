package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/api"
	"github.com/susu3304/snacknav/internal/bot"
	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/commands"
	"github.com/susu3304/snacknav/internal/config"
	"github.com/susu3304/snacknav/internal/db"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geourl"
	"github.com/susu3304/snacknav/internal/walk"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when DISCORD_TOKEN is set, the Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return c.serve(cmd.Context(), cfg)
		},
	}
}

func (c *cli) serve(parent context.Context, cfg *config.Config) error {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	ledger, closer, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	searcher := geocode.NewSoftSearcher(
		geocode.NewNominatimClient(cfg.GeocodeURL, cfg.GeocodeLimit, cfg.GeocodeTimeout),
		geocode.NewFallback(cat.CityNames()),
		geocode.WithMinQueryLength(cfg.GeocodeMinQuery),
		geocode.WithLimit(cfg.GeocodeLimit),
		geocode.WithLogger(logger.Named("geocode")),
	)

	svc := walk.NewService(cat, walk.Options{
		MaxKm:           cfg.PointsMaxKm,
		Sort:            cfg.SearchSort,
		RequirePosition: cfg.RequirePosition,
		Ledger:          ledger,
		Logger:          logger.Named("walk"),
	})

	if cfg.SessionIdleTTL > 0 {
		sweeper := walk.NewSweeper(svc, cfg.SessionIdleTTL, logger.Named("sweeper"))
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Initialize Discord bot
	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(cfg.DiscordToken, &commands.Walk{
			Service:  svc,
			Searcher: searcher,
			Maps:     geourl.NewClient(2 * time.Second),
			Logger:   logger.Named("bot"),
		}, logger.Named("bot"))
		if err != nil {
			return err
		}
		if err := discordBot.Start(); err != nil {
			return err
		}
		defer discordBot.Stop()
	} else {
		logger.Info("DISCORD_TOKEN not set, chat bot disabled")
	}

	apiServer := api.New(cfg, svc, searcher, logger.Named("api"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// openLedger picks Postgres, then SQLite, then no ledger at all.
func openLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (walk.Ledger, io.Closer, error) {
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("activity ledger: postgres")
		return database, database, nil
	case cfg.SQLitePath != "":
		store, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("activity ledger: sqlite", zap.String("path", cfg.SQLitePath))
		return store, store, nil
	}
	logger.Info("activity ledger disabled")
	return nil, nil, nil
}
