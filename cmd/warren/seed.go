// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/warrenmud/warren/internal/auth"
	authpg "github.com/warrenmud/warren/internal/auth/postgres"
	"github.com/warrenmud/warren/internal/gen"
	"github.com/warrenmud/warren/internal/store"
	"github.com/warrenmud/warren/internal/world"
	worldpg "github.com/warrenmud/warren/internal/world/postgres"
)

// NewSeedCmd creates the seed subcommand: it bootstraps a world, a user with
// a character, and a session, printing the session token exactly once.
func NewSeedCmd() *cobra.Command {
	var (
		email     string
		password  string
		charName  string
		worldSeed uint32
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bootstrap a world, user, character and session",
		Long: `Create the rows needed for local play: a world (if none exists), a
user, an active character at the hub, and a session. The session token is
printed once and never stored in plaintext.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			return runSeed(cmd, url, email, password, charName, worldSeed)
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection string (default: DATABASE_URL)")
	cmd.Flags().StringVar(&email, "email", "player@warren.localhost", "user email")
	cmd.Flags().StringVar(&password, "password", "", "user password (optional)")
	cmd.Flags().StringVar(&charName, "name", "Wanderer", "character name")
	cmd.Flags().Uint32Var(&worldSeed, "seed", 0, "world seed when creating a new world")

	return cmd
}

func runSeed(cmd *cobra.Command, url, email, password, charName string, worldSeed uint32) error {
	ctx := cmd.Context()

	pool, err := store.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	w, err := ensureWorld(ctx, pool, worldSeed)
	if err != nil {
		return err
	}

	userID, err := ensureUser(ctx, pool, email, password)
	if err != nil {
		return err
	}

	chars := worldpg.NewCharacterRepository(pool)
	char, err := chars.GetActiveByUser(ctx, userID)
	if errors.Is(err, world.ErrNotFound) {
		char, err = world.NewCharacter(userID, w.ID, charName)
		if err != nil {
			return err
		}
		if err := chars.Create(ctx, char); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	token, hash, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	session, err := auth.NewSession(userID, hash, time.Now().Add(auth.DefaultSessionTTL))
	if err != nil {
		return err
	}
	if err := authpg.NewSessionRepository(pool).Create(ctx, session); err != nil {
		return err
	}

	cmd.Printf("world:     %s (seed %d, %s)\n", w.ID, w.Seed, w.GeneratorVersion)
	cmd.Printf("user:      %s (%s)\n", userID, email)
	cmd.Printf("character: %s (%s)\n", char.ID, char.Name)
	cmd.Printf("token:     %s\n", token)
	return nil
}

// ensureWorld returns the oldest existing world, or creates one.
func ensureWorld(ctx context.Context, pool *pgxpool.Pool, seed uint32) (*world.World, error) {
	var idStr string
	err := pool.QueryRow(ctx, `SELECT id FROM worlds ORDER BY created_at LIMIT 1`).Scan(&idStr)
	if err == nil {
		id, parseErr := ulid.Parse(idStr)
		if parseErr != nil {
			return nil, oops.With("id", idStr).Wrap(parseErr)
		}
		return worldpg.NewWorldRepository(pool).Get(ctx, id)
	}

	w, err := world.NewWorld(seed, gen.VersionMaze)
	if err != nil {
		return nil, err
	}
	if err := worldpg.NewWorldRepository(pool).Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ensureUser creates the user, tolerating a re-run against an existing
// email.
func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (ulid.ULID, error) {
	var passwordHash any
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return ulid.ULID{}, err
		}
		passwordHash = hash
	}

	id := ulid.Make()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, now())
	`, id.String(), email, passwordHash)
	if err == nil {
		return id, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		var existing string
		if scanErr := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&existing); scanErr != nil {
			return ulid.ULID{}, oops.With("email", email).Wrap(scanErr)
		}
		parsed, parseErr := ulid.Parse(existing)
		if parseErr != nil {
			return ulid.ULID{}, oops.With("id", existing).Wrap(parseErr)
		}
		return parsed, nil
	}
	return ulid.ULID{}, oops.With("operation", "create user").With("email", email).Wrap(err)
}
