/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/technicaldirector/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Redis snapshot cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [catalog|metadata|all]",
	Short: "Drop cached catalog or metadata snapshots",
	Long:  "Remove cached snapshots so the next plan reads the catalog and probes media afresh. Run it after re-encoding media files.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePurge,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	scope := cache.ScopeAll
	if len(args) == 1 {
		var err error
		if scope, err = cache.ParseScope(args[0]); err != nil {
			return err
		}
	}

	if err := loadConfig(); err != nil {
		return err
	}
	if !cfg.RedisEnabled {
		return fmt.Errorf("redis cache is disabled, set TD_REDIS_ENABLED=true")
	}

	c := newCache()
	defer c.Close()

	removed, err := c.Purge(cmd.Context(), scope)
	if err != nil {
		return fmt.Errorf("purge %s: %w", scope, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d %s snapshots\n", removed, scope)
	return nil
}
