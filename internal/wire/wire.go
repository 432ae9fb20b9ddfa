// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package wire defines the framed JSON protocol spoken between clients and
// the server. Client frames carry a sequence number; server frames do not.
package wire

import (
	"bytes"
	"encoding/json"

	"github.com/samber/oops"
)

// Client message types.
const (
	TypeAuth      = "auth"
	TypeMove      = "move"
	TypeTurn      = "turn"
	TypeJoinWorld = "join_world"
	TypeInteract  = "interact"
	TypeUseEgg    = "use_egg"
)

// Server message types.
const (
	TypeAuthOK       = "auth_ok"
	TypeAuthErr      = "auth_err"
	TypeWorldState   = "world_state"
	TypeActionResult = "action_result"
	TypeError        = "error"
	TypeEvent        = "event"
)

// Error codes carried by Error frames.
const (
	CodeBadJSON   = "bad_json"
	CodeBadSchema = "bad_schema"
	CodeBadSeq    = "bad_seq"
	CodeState     = "state"
	CodeStorage   = "storage"
)

// Action refusal reasons.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonInvalidSession  = "invalid session"
	ReasonMoveCooldown    = "move_cooldown"
	ReasonTurnCooldown    = "turn_cooldown"
	ReasonBlocked         = "blocked"
	ReasonBadDir          = "bad_dir"
	ReasonNotImplemented  = "not_implemented"
)

// Envelope is one inbound client frame.
type Envelope struct {
	Seq     int64           `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuthPayload authenticates the connection with an opaque session token.
type AuthPayload struct {
	SessionToken string `json:"session_token"`
}

// MovePayload requests a one-cell move. Dir accepts the cardinals plus the
// relative F (forward) and B (backward).
type MovePayload struct {
	Dir string `json:"dir"`
}

// TurnPayload rotates the character in place.
type TurnPayload struct {
	Face string `json:"face"`
}

// JoinWorldPayload is reserved.
type JoinWorldPayload struct {
	WorldID string `json:"world_id"`
}

// InteractPayload is reserved.
type InteractPayload struct {
	Action string          `json:"action"`
	Target json.RawMessage `json:"target"`
}

// UseEggPayload is reserved.
type UseEggPayload struct{}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AuthOK confirms authentication.
type AuthOK struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	WorldID     string `json:"world_id"`
}

// AuthErr rejects authentication or an unauthenticated request.
type AuthErr struct {
	Reason string `json:"reason"`
}

// ActionResult reports the outcome of a single action.
type ActionResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Seq    int64  `json:"seq,omitempty"`
}

// Error reports a protocol-level failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Seq     int64  `json:"seq,omitempty"`
}

// Event is a server-initiated notification.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Edges carries the four resolved edge kinds of one cell.
type Edges struct {
	N string `json:"N"`
	E string `json:"E"`
	S string `json:"S"`
	W string `json:"W"`
}

// Cell is one cell of a visibility or minimap listing.
type Cell struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Edges Edges `json:"edges"`
}

// You is the player's own pose and vitals.
type You struct {
	Level  int      `json:"level"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Face   string   `json:"face"`
	HP     int      `json:"hp"`
	Status []string `json:"status"`
}

// Hub orients the player toward the level hub.
type Hub struct {
	Level     int    `json:"level"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	DistFeet  int    `json:"distFeet"`
	Direction string `json:"direction"`
}

// Cooldowns reports when the next move and turn become available,
// in unix milliseconds.
type Cooldowns struct {
	MoveReadyAt int64 `json:"move_ready_at"`
	TurnReadyAt int64 `json:"turn_ready_at"`
}

// WorldState is one snapshot of the observable world.
type WorldState struct {
	Now          int64     `json:"now"`
	You          You       `json:"you"`
	Hub          Hub       `json:"hub"`
	Cooldowns    Cooldowns `json:"cooldowns"`
	WorldHash    string    `json:"world_hash"`
	VisibleCells []Cell    `json:"visible_cells"`
	MinimapCells []Cell    `json:"minimap_cells"`
}

// DecodeStrict unmarshals a payload rejecting unknown fields, so schema
// violations surface as bad_schema instead of being silently dropped.
func DecodeStrict(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return oops.Code("WIRE_BAD_PAYLOAD").Wrap(err)
	}
	return nil
}
