// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("warren", "1.2.3", "json", &buf)

	logger.Info("hello", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "warren", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "value", record["key"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("warren", "dev", "text", &buf)

	logger.Info("hello")
	assert.True(t, strings.Contains(buf.String(), "service=warren"))
}

func TestSetup_WithAttrsKeepsIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("warren", "dev", "json", &buf).With("conn_id", "abc")

	logger.Info("hi")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "warren", record["service"])
	assert.Equal(t, "abc", record["conn_id"])
}
