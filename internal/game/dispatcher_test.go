// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrenmud/warren/internal/auth"
	"github.com/warrenmud/warren/internal/game"
	"github.com/warrenmud/warren/internal/gen"
	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/wire"
	"github.com/warrenmud/warren/internal/world"
	"github.com/warrenmud/warren/internal/world/memory"
)

// manualClock is an explicitly advanced time source.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fixture is one engine with a seeded world, character and session.
type fixture struct {
	engine *game.Engine
	store  *memory.Store
	clock  *manualClock
	conn   *game.Conn
	token  string
	world  *world.World
	seq    int64
}

// fixedWorldID keeps replay runs byte-compatible across engines.
var (
	fixedWorldID = ulid.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	fixedUserID  = ulid.MustParse("01BX5ZZKBKACTAV9WEVGEMMVRY")
	fixedCharID  = ulid.MustParse("01BX5ZZKBKACTAV9WEVGEMMVS0")
)

func newFixture(t *testing.T, seed uint32, clock *manualClock) *fixture {
	t.Helper()
	return newFixtureAt(t, seed, clock, grid.Pose{Level: 1, X: 0, Y: 0, Face: grid.North})
}

func newFixtureAt(t *testing.T, seed uint32, clock *manualClock, pose grid.Pose) *fixture {
	t.Helper()
	ctx := context.Background()

	if clock == nil {
		clock = newManualClock()
	}

	store := memory.NewStore()
	w := &world.World{ID: fixedWorldID, Seed: seed, GeneratorVersion: gen.VersionMaze}
	require.NoError(t, store.Create(ctx, w))

	char := &world.Character{
		ID:      fixedCharID,
		UserID:  fixedUserID,
		WorldID: w.ID,
		Name:    "Tester",
		HP:      100,
		Pose:    pose,
	}
	require.NoError(t, store.Characters().Create(ctx, char))

	sessions := auth.NewMemorySessionRepository()
	token, hash, err := auth.GenerateToken()
	require.NoError(t, err)
	session, err := auth.NewSession(fixedUserID, hash, clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	engine := game.NewEngine(game.Stores{
		Worlds:     store,
		Characters: store.Characters(),
		Overlay:    store,
		Discovery:  store,
		Tx:         store,
		Sessions:   auth.NewResolver(sessions),
	}, game.DefaultConfig(), clock.Now)

	return &fixture{
		engine: engine,
		store:  store,
		clock:  clock,
		conn:   game.NewConn(),
		token:  token,
		world:  w,
	}
}

// send dispatches one frame with the next sequence number.
func (f *fixture) send(t *testing.T, msgType string, payload any) []wire.ServerMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	env := wire.Envelope{Seq: f.seq, Type: msgType, Payload: raw}
	f.seq++
	return f.engine.Handle(context.Background(), f.conn, env)
}

// authenticate runs the auth handshake and asserts success.
func (f *fixture) authenticate(t *testing.T) []wire.ServerMessage {
	t.Helper()
	out := f.send(t, wire.TypeAuth, wire.AuthPayload{SessionToken: f.token})
	require.Len(t, out, 2)
	require.Equal(t, wire.TypeAuthOK, out[0].Type)
	require.Equal(t, wire.TypeWorldState, out[1].Type)
	return out
}

func TestHandle_AuthFlow(t *testing.T) {
	f := newFixture(t, 12345, nil)
	out := f.authenticate(t)

	ok := out[0].Payload.(wire.AuthOK)
	assert.Equal(t, fixedUserID.String(), ok.UserID)
	assert.Equal(t, fixedCharID.String(), ok.CharacterID)
	assert.Equal(t, fixedWorldID.String(), ok.WorldID)

	snap := out[1].Payload.(wire.WorldState)
	assert.Equal(t, 1, snap.You.Level)
	assert.Equal(t, "N", snap.You.Face)
	assert.Regexp(t, `^[0-9a-f]{8}$`, snap.WorldHash)
	assert.NotEmpty(t, snap.VisibleCells)
}

func TestHandle_UnauthenticatedRefused(t *testing.T) {
	f := newFixture(t, 12345, nil)
	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "F"})
	require.Len(t, out, 1)
	assert.Equal(t, wire.TypeAuthErr, out[0].Type)
	assert.Equal(t, wire.ReasonUnauthenticated, out[0].Payload.(wire.AuthErr).Reason)
}

func TestHandle_InvalidSession(t *testing.T) {
	f := newFixture(t, 12345, nil)
	out := f.send(t, wire.TypeAuth, wire.AuthPayload{SessionToken: "deadbeef"})
	require.Len(t, out, 1)
	assert.Equal(t, wire.TypeAuthErr, out[0].Type)
	assert.Equal(t, wire.ReasonInvalidSession, out[0].Payload.(wire.AuthErr).Reason)
}

func TestHandle_ExpiredSession(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.clock.Advance(2 * time.Hour)
	out := f.send(t, wire.TypeAuth, wire.AuthPayload{SessionToken: f.token})
	require.Len(t, out, 1)
	assert.Equal(t, wire.TypeAuthErr, out[0].Type)
}

func TestHandle_BadSeq(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// Replay an already-consumed sequence number.
	env := wire.Envelope{Seq: 0, Type: wire.TypeTurn, Payload: json.RawMessage(`{"face":"E"}`)}
	out := f.engine.Handle(context.Background(), f.conn, env)
	require.Len(t, out, 1)
	require.Equal(t, wire.TypeError, out[0].Type)
	assert.Equal(t, wire.CodeBadSeq, out[0].Payload.(wire.Error).Code)

	// The gate did not advance: the next fresh sequence still works.
	out = f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "E"})
	assert.Equal(t, wire.TypeActionResult, out[0].Type)
}

func TestHandle_BadSchema(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	t.Run("unknown type", func(t *testing.T) {
		out := f.send(t, "fireball", map[string]any{})
		require.Len(t, out, 1)
		require.Equal(t, wire.TypeError, out[0].Type)
		assert.Equal(t, wire.CodeBadSchema, out[0].Payload.(wire.Error).Code)
	})

	t.Run("unknown payload field", func(t *testing.T) {
		out := f.send(t, wire.TypeMove, map[string]any{"dir": "F", "speed": 9})
		require.Len(t, out, 1)
		require.Equal(t, wire.TypeError, out[0].Type)
		assert.Equal(t, wire.CodeBadSchema, out[0].Payload.(wire.Error).Code)
	})
}

func TestHandle_TurnAndCooldown(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	out := f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "E"})
	require.Len(t, out, 2)
	assert.True(t, out[0].Payload.(wire.ActionResult).OK)
	snap := out[1].Payload.(wire.WorldState)
	assert.Equal(t, "E", snap.You.Face)

	// Immediately turning again trips the cooldown.
	out = f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "S"})
	require.Len(t, out, 1)
	res := out[0].Payload.(wire.ActionResult)
	assert.False(t, res.OK)
	assert.Equal(t, wire.ReasonTurnCooldown, res.Reason)

	f.clock.Advance(200 * time.Millisecond)
	out = f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "S"})
	assert.True(t, out[0].Payload.(wire.ActionResult).OK)
}

func TestHandle_MoveCooldownRefusal(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// Hub interior: east from (0,0) is guaranteed open.
	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "E"})
	require.Len(t, out, 2)
	require.True(t, out[0].Payload.(wire.ActionResult).OK)

	f.clock.Advance(100 * time.Millisecond)
	out = f.send(t, wire.TypeMove, wire.MovePayload{Dir: "W"})
	require.Len(t, out, 1)
	res := out[0].Payload.(wire.ActionResult)
	assert.False(t, res.OK)
	assert.Equal(t, wire.ReasonMoveCooldown, res.Reason)
}

func TestHandle_CooldownMonotonic(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	before := f.conn.MoveReadyAt
	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "E"})
	require.True(t, out[0].Payload.(wire.ActionResult).OK)
	assert.Greater(t, f.conn.MoveReadyAt, before)
}

func TestHandle_MoveBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// Seal north of the hub explicitly; overlay precedence makes it a wall
	// regardless of the generated base.
	require.NoError(t, f.store.WriteEdgeBothWays(ctx, f.world.ID, 1, 0, 0, grid.North, grid.EdgeWall, world.EdgeMeta{}))

	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "N"})
	require.Len(t, out, 1)
	res := out[0].Payload.(wire.ActionResult)
	assert.False(t, res.OK)
	assert.Equal(t, wire.ReasonBlocked, res.Reason)

	// A blocked move does not consume the cooldown.
	out = f.send(t, wire.TypeMove, wire.MovePayload{Dir: "E"})
	require.Len(t, out, 2)
	assert.True(t, out[0].Payload.(wire.ActionResult).OK)
}

func TestHandle_MoveBadDir(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "Q"})
	require.Len(t, out, 1)
	res := out[0].Payload.(wire.ActionResult)
	assert.False(t, res.OK)
	assert.Equal(t, wire.ReasonBadDir, res.Reason)
}

func TestHandle_RelativeMovement(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// Face east, then move forward: one cell east, facing kept.
	out := f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "E"})
	require.True(t, out[0].Payload.(wire.ActionResult).OK)

	f.clock.Advance(time.Second)
	out = f.send(t, wire.TypeMove, wire.MovePayload{Dir: "F"})
	require.Len(t, out, 2)
	require.True(t, out[0].Payload.(wire.ActionResult).OK)
	snap := out[1].Payload.(wire.WorldState)
	assert.Equal(t, 1, snap.You.X)
	assert.Equal(t, 0, snap.You.Y)
	assert.Equal(t, "E", snap.You.Face)

	// Move backward: returns west, facing still east.
	f.clock.Advance(time.Second)
	out = f.send(t, wire.TypeMove, wire.MovePayload{Dir: "B"})
	require.Len(t, out, 2)
	require.True(t, out[0].Payload.(wire.ActionResult).OK)
	snap = out[1].Payload.(wire.WorldState)
	assert.Equal(t, 0, snap.You.X)
	assert.Equal(t, "E", snap.You.Face)
}

func TestHandle_MoveMarksDiscovery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "E"})
	require.True(t, out[0].Payload.(wire.ActionResult).OK)

	cells, err := f.store.DiscoveredInRadius(ctx, f.world.ID, 1, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 1, cells[0].X)
	assert.Equal(t, 0, cells[0].Y)
}

func TestHandle_ReservedActions(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	for _, msgType := range []string{wire.TypeJoinWorld, wire.TypeInteract, wire.TypeUseEgg} {
		out := f.send(t, msgType, map[string]any{})
		require.Len(t, out, 1, "type %s", msgType)
		res := out[0].Payload.(wire.ActionResult)
		assert.False(t, res.OK)
		assert.Equal(t, wire.ReasonNotImplemented, res.Reason)
	}
}

func TestHandle_DoubleAuth(t *testing.T) {
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	out := f.send(t, wire.TypeAuth, wire.AuthPayload{SessionToken: f.token})
	require.Len(t, out, 1)
	require.Equal(t, wire.TypeError, out[0].Type)
	assert.Equal(t, wire.CodeState, out[0].Payload.(wire.Error).Code)
}
