// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_Stable(t *testing.T) {
	a, err := Sum(map[string]any{"a": 1})
	require.NoError(t, err)
	b, err := Sum(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSum_Format(t *testing.T) {
	got, err := Sum(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{8}$`, got)
}

func TestSum_KeyOrderIndependent(t *testing.T) {
	// Maps have no iteration order in Go, but struct field order must not
	// leak into the digest either: two shapes with the same keys and values
	// digest identically.
	type ab struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	type ba struct {
		B int `json:"b"`
		A int `json:"a"`
	}

	x, err := Sum(ab{A: 1, B: 2})
	require.NoError(t, err)
	y, err := Sum(ba{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestSum_DistinguishesValues(t *testing.T) {
	a, err := Sum(map[string]any{"a": 1})
	require.NoError(t, err)
	b, err := Sum(map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, `null`},
		{"bool", true, `true`},
		{"int", 42, `42`},
		{"float shortest form", 1.5, `1.5`},
		{"whole float collapses", 3.0, `3`},
		{"string escaping", "a\"b", `"a\"b"`},
		{"array order preserved", []int{3, 1, 2}, `[3,1,2]`},
		{
			"sorted keys",
			map[string]any{"b": 2, "a": 1, "c": []any{true, nil}},
			`{"a":1,"b":2,"c":[true,null]}`,
		},
		{
			"nested objects",
			map[string]any{"z": map[string]any{"y": 1, "x": 2}},
			`{"z":{"x":2,"y":1}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSum_StructWithTags(t *testing.T) {
	type pose struct {
		Level int    `json:"level"`
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Face  string `json:"face"`
	}

	a, err := Sum(pose{Level: 1, X: 3, Y: -2, Face: "N"})
	require.NoError(t, err)
	b, err := Sum(map[string]any{"level": 1, "x": 3, "y": -2, "face": "N"})
	require.NoError(t, err)
	assert.Equal(t, a, b, "struct and equivalent map must digest identically")
}
