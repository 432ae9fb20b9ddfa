// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Warren CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warren",
		Short: "Warren - a server-authoritative grid dungeon",
		Long: `Warren is a server-authoritative, grid-based multi-user dungeon
crawler. Clients connect over a websocket channel; the server validates every
intent against a shared, procedurally generated world.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
