// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_StartStop(t *testing.T) {
	ready := true
	s := NewServer("127.0.0.1:0", func() bool { return ready })

	errCh, err := s.Start()
	require.NoError(t, err)
	addr := s.Addr()
	require.NotEmpty(t, addr)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get("http://" + addr + path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	t.Run("liveness", func(t *testing.T) {
		resp := get("/healthz/liveness")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness follows the checker", func(t *testing.T) {
		resp := get("/healthz/readiness")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		ready = false
		resp = get("/healthz/readiness")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		ready = true
	})

	t.Run("metrics include custom counters", func(t *testing.T) {
		s.Metrics().ConnectionsTotal.WithLabelValues("accepted").Inc()
		resp := get("/metrics")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "warren_connections_total")
	})

	t.Run("double start refused", func(t *testing.T) {
		_, err := s.Start()
		assert.Error(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after stop")
	}
}
