// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status subcommand: it probes a running server's
// health endpoint.
func NewStatusCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe a running server's health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 5 * time.Second}

			for _, probe := range []string{"liveness", "readiness"} {
				url := fmt.Sprintf("http://%s/healthz/%s", metricsAddr, probe)
				req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
				if err != nil {
					return oops.Wrap(err)
				}
				resp, err := client.Do(req)
				if err != nil {
					return oops.Code("STATUS_UNREACHABLE").With("url", url).Wrap(err)
				}
				body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort probe body
				_ = resp.Body.Close()            //nolint:errcheck

				cmd.Printf("%-10s %s %s\n", probe, resp.Status, strings.TrimSpace(string(body)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9100", "observability address to probe")
	return cmd
}
