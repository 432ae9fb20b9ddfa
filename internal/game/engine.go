// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package game implements the server-authoritative gameplay kernel: the
// per-connection state machine, action dispatch with sequence ordering and
// cooldown enforcement, and snapshot assembly.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/auth"
	"github.com/warrenmud/warren/internal/gen"
	"github.com/warrenmud/warren/internal/world"
)

// Clock supplies the current time. The engine never reads the wall clock
// directly; tests inject a manual clock and advance it explicitly.
type Clock func() time.Time

// Default cooldowns. Both are configuration inputs, not constants of the
// protocol.
const (
	DefaultMoveCooldown = 500 * time.Millisecond
	DefaultTurnCooldown = 150 * time.Millisecond
)

// Config holds the engine's tunables.
type Config struct {
	MoveCooldown time.Duration
	TurnCooldown time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MoveCooldown: DefaultMoveCooldown,
		TurnCooldown: DefaultTurnCooldown,
	}
}

// Stores bundles the storage interfaces the engine consumes. Each operation
// is a single row-atomic action; the engine never assumes cross-operation
// transactions beyond the overlay Transactor.
type Stores struct {
	Worlds     world.WorldRepository
	Characters world.CharacterRepository
	Overlay    world.OverlayRepository
	Discovery  world.DiscoveryRepository
	Tx         world.Transactor
	Sessions   *auth.Resolver
}

// Engine owns the shared world state and serves every connection's actions.
// It is safe for concurrent use; per-connection ordering is the caller's
// responsibility (one reader goroutine per connection).
type Engine struct {
	stores Stores
	cfg    Config
	clock  Clock
	chunks *gen.Cache

	mu      sync.Mutex
	oracles map[ulid.ULID]*world.Oracle
}

// NewEngine creates an engine. A nil clock uses the wall clock.
func NewEngine(stores Stores, cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	if cfg.MoveCooldown == 0 {
		cfg.MoveCooldown = DefaultMoveCooldown
	}
	if cfg.TurnCooldown == 0 {
		cfg.TurnCooldown = DefaultTurnCooldown
	}
	return &Engine{
		stores:  stores,
		cfg:     cfg,
		clock:   clock,
		chunks:  gen.NewCache(0),
		oracles: make(map[ulid.ULID]*world.Oracle),
	}
}

// nowMs returns the injected clock's time in unix milliseconds.
func (e *Engine) nowMs() int64 {
	return e.clock().UnixMilli()
}

// oracleFor returns the edge oracle of a world, creating it on first use.
func (e *Engine) oracleFor(ctx context.Context, worldID ulid.ULID) (*world.Oracle, error) {
	e.mu.Lock()
	o, ok := e.oracles[worldID]
	e.mu.Unlock()
	if ok {
		return o, nil
	}

	w, err := e.stores.Worlds.Get(ctx, worldID)
	if err != nil {
		return nil, oops.Code("ENGINE_WORLD_LOAD").With("world_id", worldID.String()).Wrap(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.oracles[worldID]; ok {
		return o, nil
	}
	o = world.NewOracle(w, e.stores.Overlay, e.stores.Tx, e.chunks)
	e.oracles[worldID] = o
	return o, nil
}
