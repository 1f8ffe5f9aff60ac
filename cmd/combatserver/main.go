// Package main provides the combat server binary that serves the encounter
// HTTP API and the live event stream.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/content"
	"github.com/cory-johannsen/arena/internal/events"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/encounter"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/cory-johannsen/arena/internal/httpapi"
	"github.com/cory-johannsen/arena/internal/narrator"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/queue"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat server",
		zap.String("http_addr", cfg.Server.Addr()),
	)

	// Connect to PostgreSQL for encounter, player, and queue persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	encounterRepo := postgres.NewEncounterRepository(pool.DB())
	playerRepo := postgres.NewPlayerRepository(pool.DB())
	actionRepo := postgres.NewActionRepository(pool.DB())

	// Load YAML content.
	abilities, err := content.LoadAbilities(filepath.Join(cfg.Combat.ContentDir, "abilities"))
	if err != nil {
		logger.Fatal("loading abilities", zap.Error(err))
	}
	logger.Info("loaded abilities", zap.Int("count", len(abilities.IDs())))

	monsters, err := npc.LoadRegistry(filepath.Join(cfg.Combat.ContentDir, "monsters"))
	if err != nil {
		logger.Fatal("loading monster templates", zap.Error(err))
	}
	logger.Info("loaded monster templates", zap.Int("count", monsters.Len()))

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	resolver := combat.NewResolver(roller, logger)
	actionQueue := queue.New(actionRepo, cfg.Combat.ActionStaleness, logger)
	bus := events.NewBus(logger)

	var narr narrator.Narrator
	if cfg.Narrator.Enabled {
		narr = narrator.NewClaudeNarrator(
			cfg.Narrator.APIKey,
			cfg.Narrator.Model,
			cfg.Narrator.MaxTokens,
			cfg.Narrator.Timeout,
			logger,
		)
		logger.Info("model narration enabled", zap.String("model", cfg.Narrator.Model))
	}

	orchestrator := encounter.NewOrchestrator(
		encounterRepo, playerRepo, abilities, resolver, actionQueue, bus, narr, logger,
	)

	handler := httpapi.NewHandler(
		orchestrator, encounterRepo, monsters, bus, pool,
		cfg.Server.StreamLinger, cfg.Combat.GridRows, cfg.Combat.GridCols,
		logger,
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: handler.Routes(),
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
