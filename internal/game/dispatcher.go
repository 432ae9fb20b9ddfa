// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/warrenmud/warren/internal/auth"
	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/wire"
	"github.com/warrenmud/warren/pkg/errutil"
)

// Handle validates and dispatches one inbound frame, returning the frames to
// send back in order. Handlers are synchronous with respect to the
// connection: the gateway calls Handle from a single goroutine per socket.
func (e *Engine) Handle(ctx context.Context, conn *Conn, env wire.Envelope) []wire.ServerMessage {
	if env.Seq <= conn.LastSeq {
		return []wire.ServerMessage{errorMsg(wire.CodeBadSeq, "sequence must increase", env.Seq)}
	}
	conn.LastSeq = env.Seq

	if !conn.Authed && env.Type != wire.TypeAuth {
		return []wire.ServerMessage{{
			Type:    wire.TypeAuthErr,
			Payload: wire.AuthErr{Reason: wire.ReasonUnauthenticated},
		}}
	}

	switch env.Type {
	case wire.TypeAuth:
		return e.handleAuth(ctx, conn, env)
	case wire.TypeTurn:
		return e.handleTurn(ctx, conn, env)
	case wire.TypeMove:
		return e.handleMove(ctx, conn, env)
	case wire.TypeJoinWorld:
		var p wire.JoinWorldPayload
		if err := wire.DecodeStrict(env.Payload, &p); err != nil {
			return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed join_world payload", env.Seq)}
		}
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonNotImplemented)}
	case wire.TypeInteract:
		var p wire.InteractPayload
		if err := wire.DecodeStrict(env.Payload, &p); err != nil {
			return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed interact payload", env.Seq)}
		}
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonNotImplemented)}
	case wire.TypeUseEgg:
		var p wire.UseEggPayload
		if err := wire.DecodeStrict(env.Payload, &p); err != nil {
			return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed use_egg payload", env.Seq)}
		}
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonNotImplemented)}
	default:
		return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "unknown message type", env.Seq)}
	}
}

// handleAuth resolves the session token, loads the active character and its
// world, and arms the connection.
func (e *Engine) handleAuth(ctx context.Context, conn *Conn, env wire.Envelope) []wire.ServerMessage {
	if conn.Authed {
		return []wire.ServerMessage{errorMsg(wire.CodeState, "already authenticated", env.Seq)}
	}

	var p wire.AuthPayload
	if err := wire.DecodeStrict(env.Payload, &p); err != nil {
		return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed auth payload", env.Seq)}
	}

	now := e.clock()
	userID, err := e.stores.Sessions.Resolve(ctx, p.SessionToken, now)
	if err != nil {
		if errors.Is(err, auth.ErrSessionInvalid) || errors.Is(err, auth.ErrSessionExpired) {
			return []wire.ServerMessage{{
				Type:    wire.TypeAuthErr,
				Payload: wire.AuthErr{Reason: wire.ReasonInvalidSession},
			}}
		}
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}

	char, err := e.stores.Characters.GetActiveByUser(ctx, userID)
	if err != nil {
		return []wire.ServerMessage{{
			Type:    wire.TypeAuthErr,
			Payload: wire.AuthErr{Reason: "no active character"},
		}}
	}

	oracle, err := e.oracleFor(ctx, char.WorldID)
	if err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}

	conn.Authed = true
	conn.UserID = userID
	conn.CharacterID = char.ID
	conn.WorldID = char.WorldID
	conn.character = char
	nowMs := now.UnixMilli()
	conn.MoveReadyAt = nowMs
	conn.TurnReadyAt = nowMs

	out := []wire.ServerMessage{{
		Type: wire.TypeAuthOK,
		Payload: wire.AuthOK{
			UserID:      userID.String(),
			CharacterID: char.ID.String(),
			WorldID:     char.WorldID.String(),
		},
	}}

	snap, err := e.buildSnapshot(ctx, oracle, conn)
	if err != nil {
		return append(out, e.storageError(err, env.Seq))
	}
	return append(out, wire.ServerMessage{Type: wire.TypeWorldState, Payload: snap})
}

// handleTurn rotates the character in place, gated by the turn cooldown.
func (e *Engine) handleTurn(ctx context.Context, conn *Conn, env wire.Envelope) []wire.ServerMessage {
	var p wire.TurnPayload
	if err := wire.DecodeStrict(env.Payload, &p); err != nil {
		return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed turn payload", env.Seq)}
	}

	face := grid.Direction(p.Face)
	if face.Validate() != nil {
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonBadDir)}
	}

	nowMs := e.nowMs()
	if nowMs < conn.TurnReadyAt {
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonTurnCooldown)}
	}

	conn.character.Pose.Face = face
	conn.TurnReadyAt = nowMs + e.cfg.TurnCooldown.Milliseconds()

	if err := e.stores.Characters.SavePosition(ctx, conn.CharacterID, conn.WorldID, conn.character.Pose); err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}

	return e.actionOK(ctx, conn, env.Seq)
}

// handleMove translates the requested direction, checks cooldown and
// traversability, and commits the move.
func (e *Engine) handleMove(ctx context.Context, conn *Conn, env wire.Envelope) []wire.ServerMessage {
	var p wire.MovePayload
	if err := wire.DecodeStrict(env.Payload, &p); err != nil {
		return []wire.ServerMessage{errorMsg(wire.CodeBadSchema, "malformed move payload", env.Seq)}
	}

	pose := conn.character.Pose
	var abs, newFace grid.Direction
	switch p.Dir {
	case "F":
		abs, newFace = pose.Face, pose.Face
	case "B":
		abs, newFace = pose.Face.Opposite(), pose.Face
	default:
		d := grid.Direction(p.Dir)
		if d.Validate() != nil {
			return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonBadDir)}
		}
		abs, newFace = d, d
	}

	nowMs := e.nowMs()
	if nowMs < conn.MoveReadyAt {
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonMoveCooldown)}
	}

	oracle, err := e.oracleFor(ctx, conn.WorldID)
	if err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}
	ok, err := oracle.CanTraverse(ctx, pose.Level, pose.X, pose.Y, abs)
	if err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}
	if !ok {
		return []wire.ServerMessage{actionRefused(env.Seq, wire.ReasonBlocked)}
	}

	pose = pose.Step(abs)
	pose.Face = newFace
	conn.character.Pose = pose
	conn.MoveReadyAt = nowMs + e.cfg.MoveCooldown.Milliseconds()

	if err := e.stores.Discovery.MarkDiscovered(ctx, conn.WorldID, pose.Level, pose.X, pose.Y, nowMs); err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}
	if err := e.stores.Characters.SavePosition(ctx, conn.CharacterID, conn.WorldID, pose); err != nil {
		return []wire.ServerMessage{e.storageError(err, env.Seq)}
	}

	return e.actionOK(ctx, conn, env.Seq)
}

// actionOK emits a successful action result followed by a fresh snapshot.
func (e *Engine) actionOK(ctx context.Context, conn *Conn, seq int64) []wire.ServerMessage {
	out := []wire.ServerMessage{{
		Type:    wire.TypeActionResult,
		Payload: wire.ActionResult{OK: true, Seq: seq},
	}}

	oracle, err := e.oracleFor(ctx, conn.WorldID)
	if err != nil {
		return append(out, e.storageError(err, seq))
	}
	snap, err := e.buildSnapshot(ctx, oracle, conn)
	if err != nil {
		return append(out, e.storageError(err, seq))
	}
	return append(out, wire.ServerMessage{Type: wire.TypeWorldState, Payload: snap})
}

// actionRefused builds a domain-level refusal.
func actionRefused(seq int64, reason string) wire.ServerMessage {
	return wire.ServerMessage{
		Type:    wire.TypeActionResult,
		Payload: wire.ActionResult{OK: false, Reason: reason, Seq: seq},
	}
}

// errorMsg builds a protocol error frame.
func errorMsg(code, message string, seq int64) wire.ServerMessage {
	return wire.ServerMessage{
		Type:    wire.TypeError,
		Payload: wire.Error{Code: code, Message: message, Seq: seq},
	}
}

// storageError logs the underlying failure and reports a generic error to
// the client; storage detail never crosses the wire.
func (e *Engine) storageError(err error, seq int64) wire.ServerMessage {
	errutil.LogError(slog.Default(), "storage operation failed", err)
	return errorMsg(wire.CodeStorage, "internal storage error", seq)
}
