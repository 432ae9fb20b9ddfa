// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrict(t *testing.T) {
	t.Run("known fields decode", func(t *testing.T) {
		var p MovePayload
		require.NoError(t, DecodeStrict(json.RawMessage(`{"dir":"F"}`), &p))
		assert.Equal(t, "F", p.Dir)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		var p MovePayload
		assert.Error(t, DecodeStrict(json.RawMessage(`{"dir":"F","speed":2}`), &p))
	})

	t.Run("empty payload decodes to zero value", func(t *testing.T) {
		var p UseEggPayload
		assert.NoError(t, DecodeStrict(nil, &p))
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		var p AuthPayload
		assert.Error(t, DecodeStrict(json.RawMessage(`{`), &p))
	})
}

func TestEnvelope_Roundtrip(t *testing.T) {
	raw := []byte(`{"seq":3,"type":"turn","payload":{"face":"E"}}`)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, int64(3), env.Seq)
	assert.Equal(t, TypeTurn, env.Type)

	var p TurnPayload
	require.NoError(t, DecodeStrict(env.Payload, &p))
	assert.Equal(t, "E", p.Face)
}

func TestServerMessage_OmitsSeqWhenUnset(t *testing.T) {
	b, err := json.Marshal(ServerMessage{
		Type:    TypeActionResult,
		Payload: ActionResult{OK: true},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"seq"`)
	assert.NotContains(t, string(b), `"reason"`)
}
