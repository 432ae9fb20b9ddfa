// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrenmud/warren/internal/wire"
)

// intent is one step of a replay script.
type intent struct {
	kind string // "turn" or "move"
	arg  string
}

// applyIntent drives one scripted intent through the retry harness: a turn
// refused by cooldown waits out the cooldown and retries once; a blocked
// move falls back to each absolute direction in order; if everything is
// blocked the step is a no-op that still consumes the move cooldown.
func applyIntent(t *testing.T, f *fixture, in intent) {
	t.Helper()

	switch in.kind {
	case "turn":
		out := f.send(t, wire.TypeTurn, wire.TurnPayload{Face: in.arg})
		res := out[0].Payload.(wire.ActionResult)
		if !res.OK && res.Reason == wire.ReasonTurnCooldown {
			f.clock.Advance(time.Second)
			out = f.send(t, wire.TypeTurn, wire.TurnPayload{Face: in.arg})
			res = out[0].Payload.(wire.ActionResult)
		}
		require.True(t, res.OK, "turn %s refused: %s", in.arg, res.Reason)

	case "move":
		candidates := []string{in.arg, "N", "E", "S", "W"}
		for _, dir := range candidates {
			out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: dir})
			res := out[0].Payload.(wire.ActionResult)
			if res.OK {
				return
			}
			if res.Reason == wire.ReasonMoveCooldown {
				f.clock.Advance(time.Second)
				out = f.send(t, wire.TypeMove, wire.MovePayload{Dir: dir})
				res = out[0].Payload.(wire.ActionResult)
				if res.OK {
					return
				}
			}
			require.Equal(t, wire.ReasonBlocked, res.Reason)
		}
		// Everything is walled in; advance the cooldown deterministically.
		f.conn.MoveReadyAt += int64(time.Second / time.Millisecond)
	}
}

// finalHash runs the scenario script on a fresh engine and returns the last
// snapshot hash.
func finalHash(t *testing.T, f *fixture, script []intent) string {
	t.Helper()
	ctx := context.Background()

	f.authenticate(t)
	require.NoError(t, f.store.MarkDiscovered(ctx, f.world.ID, 1, 0, 0, f.clock.Now().UnixMilli()))

	for _, in := range script {
		f.clock.Advance(time.Second)
		applyIntent(t, f, in)
	}

	// One last cooldown-free turn forces a snapshot of the final state.
	f.clock.Advance(time.Second)
	out := f.send(t, wire.TypeTurn, wire.TurnPayload{Face: "N"})
	require.Len(t, out, 2)
	return out[1].Payload.(wire.WorldState).WorldHash
}

func TestReplay_TwoEnginesConverge(t *testing.T) {
	script := []intent{
		{"turn", "E"},
		{"move", "F"},
		{"move", "F"},
		{"turn", "S"},
		{"move", "F"},
	}

	// Two independent engines over independent stores, each with its own
	// clock started at the same instant and advanced identically by the
	// harness; the final state hashes must agree bit for bit.
	a := newFixture(t, 777, nil)
	b := newFixture(t, 777, nil)

	hashA := finalHash(t, a, script)
	hashB := finalHash(t, b, script)
	assert.Equal(t, hashA, hashB)
	assert.Regexp(t, `^[0-9a-f]{8}$`, hashA)
}

func TestReplay_DifferentSeedsDiverge(t *testing.T) {
	script := []intent{
		{"turn", "E"},
		{"move", "F"},
		{"move", "F"},
	}

	a := newFixture(t, 777, nil)
	b := newFixture(t, 778, nil)

	hashA := finalHash(t, a, script)
	hashB := finalHash(t, b, script)
	assert.NotEqual(t, hashA, hashB, "different worlds should not collide on the state hash")
}
