// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game

import (
	"github.com/oklog/ulid/v2"

	"github.com/warrenmud/warren/internal/world"
)

// Conn is the per-connection protocol state. A Conn belongs to exactly one
// transport connection and is mutated only by that connection's handler
// goroutine, so it needs no locking.
type Conn struct {
	Authed      bool
	UserID      ulid.ULID
	CharacterID ulid.ULID
	WorldID     ulid.ULID

	// LastSeq is the highest accepted client sequence number. Starts below
	// zero so the first frame may carry seq 0.
	LastSeq int64

	// Cooldown gates, unix milliseconds.
	MoveReadyAt int64
	TurnReadyAt int64

	// character caches the authenticated character; its pose is the
	// authoritative in-memory copy between persisted writes.
	character *world.Character
}

// NewConn creates the initial state for a fresh connection.
func NewConn() *Conn {
	return &Conn{LastSeq: -1}
}
