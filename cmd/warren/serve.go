// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/warrenmud/warren/internal/auth"
	authpg "github.com/warrenmud/warren/internal/auth/postgres"
	"github.com/warrenmud/warren/internal/config"
	"github.com/warrenmud/warren/internal/game"
	"github.com/warrenmud/warren/internal/gateway"
	"github.com/warrenmud/warren/internal/logging"
	"github.com/warrenmud/warren/internal/observability"
	"github.com/warrenmud/warren/internal/store"
	"github.com/warrenmud/warren/internal/world"
	"github.com/warrenmud/warren/internal/world/memory"
	worldpg "github.com/warrenmud/warren/internal/world/postgres"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
		Long: `Start the websocket gateway and game engine. With a database_url the
server persists to PostgreSQL; without one it runs a throwaway in-memory
world and prints a ready-to-use session token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg)
		},
	}

	// Flag defaults mirror config.Default(); posflag falls back to them
	// for keys the config file does not set.
	defaults := config.Default()
	cmd.Flags().String("listen_addr", defaults.ListenAddr, "gateway listen address")
	cmd.Flags().String("ws_path", defaults.WSPath, "websocket endpoint path")
	cmd.Flags().String("database_url", "", "PostgreSQL connection string (empty = in-memory)")
	cmd.Flags().String("metrics_addr", defaults.MetricsAddr, "metrics/health listen address")
	cmd.Flags().String("log_format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().Int("move_cooldown_ms", defaults.MoveCooldownMs, "move cooldown in milliseconds")
	cmd.Flags().Int("turn_cooldown_ms", defaults.TurnCooldownMs, "turn cooldown in milliseconds")
	cmd.Flags().Uint32("world_seed", 0, "seed for the in-memory world")
	cmd.Flags().String("generator_version", defaults.GeneratorVersion, "generator version label for new worlds")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	logging.SetDefault("warren", Version, cfg.LogFormat)

	stores, err := buildStores(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	engine := game.NewEngine(stores, game.Config{
		MoveCooldown: cfg.MoveCooldown(),
		TurnCooldown: cfg.TurnCooldown(),
	}, nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		obsErr, err := obs.Start()
		if err != nil {
			return err
		}
		metrics = obs.Metrics()
		go func() {
			if err, ok := <-obsErr; ok && err != nil {
				slog.Error("observability server failed, shutting down", "error", err)
				cancel()
			}
		}()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := obs.Stop(stopCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	gw := gateway.NewServer(gateway.Config{
		Addr:           cfg.ListenAddr,
		Path:           cfg.WSPath,
		AllowedOrigins: cfg.AllowedOrigins,
	}, engine, metrics)

	slog.Info("server ready",
		"listen_addr", cfg.ListenAddr,
		"ws_path", cfg.WSPath,
		"persistent", cfg.DatabaseURL != "",
	)
	return gw.Run(ctx)
}

// buildStores wires either the PostgreSQL repositories or the in-memory
// store, depending on configuration.
func buildStores(ctx context.Context, cmd *cobra.Command, cfg config.Config) (game.Stores, error) {
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return game.Stores{}, err
		}
		return game.Stores{
			Worlds:     worldpg.NewWorldRepository(pool),
			Characters: worldpg.NewCharacterRepository(pool),
			Overlay:    worldpg.NewOverlayRepository(pool),
			Discovery:  worldpg.NewDiscoveryRepository(pool),
			Tx:         worldpg.NewTransactor(pool),
			Sessions:   auth.NewResolver(authpg.NewSessionRepository(pool)),
		}, nil
	}

	// In-memory mode: fabricate a world, a character and a session so the
	// server is immediately playable.
	mem := memory.NewStore()
	sessions := auth.NewMemorySessionRepository()

	w, err := world.NewWorld(cfg.WorldSeed, cfg.GeneratorVersion)
	if err != nil {
		return game.Stores{}, err
	}
	if err := mem.Create(ctx, w); err != nil {
		return game.Stores{}, err
	}

	char, err := world.NewCharacter(ulid.Make(), w.ID, "Wanderer")
	if err != nil {
		return game.Stores{}, err
	}
	if err := mem.Characters().Create(ctx, char); err != nil {
		return game.Stores{}, err
	}

	token, hash, err := auth.GenerateToken()
	if err != nil {
		return game.Stores{}, err
	}
	session, err := auth.NewSession(char.UserID, hash, time.Now().Add(auth.DefaultSessionTTL))
	if err != nil {
		return game.Stores{}, err
	}
	if err := sessions.Create(ctx, session); err != nil {
		return game.Stores{}, err
	}

	cmd.Printf("In-memory world %s (seed %d)\n", w.ID, w.Seed)
	cmd.Printf("Session token: %s\n", token)

	return game.Stores{
		Worlds:     mem,
		Characters: mem.Characters(),
		Overlay:    mem,
		Discovery:  mem,
		Tx:         mem,
		Sessions:   auth.NewResolver(sessions),
	}, nil
}
