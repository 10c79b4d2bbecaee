/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/technicaldirector/internal/config"
	"github.com/friendsincode/technicaldirector/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import catalog and listings into the database",
}

var importCommercialsCmd = &cobra.Command{
	Use:   "commercials <file.json|file.yaml>",
	Short: "Import a commercial catalog file",
	Long:  "Upsert commercial spots from a JSON or YAML list of {filepath, duration, subject} entries.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportCommercials,
}

var importListingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Mirror the scheduling service lineup into the database",
	Long:  "Fetch the channel lineup from TD_SCHEDULER_URL and replace the stored listings it covers.",
	Args:  cobra.NoArgs,
	RunE:  runImportListings,
}

var importReplace bool

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importCommercialsCmd)
	importCmd.AddCommand(importListingsCmd)

	importCommercialsCmd.Flags().BoolVar(&importReplace, "replace", false, "Deactivate spots missing from the file")
}

func runImportCommercials(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	spots, err := store.LoadCatalogFile(args[0])
	if err != nil {
		return err
	}

	svc := &services{}
	defer svc.close()
	database, err := svc.database()
	if err != nil {
		return err
	}

	result, err := store.NewCatalog(database, logger).Import(cmd.Context(), spots, importReplace)
	if err != nil {
		return err
	}

	if cfg.RedisEnabled {
		c := newCache()
		defer c.Close()
		if err := c.InvalidateCatalog(cmd.Context(), config.SourceDB); err != nil {
			logger.Warn().Err(err).Msg("catalog cache invalidation failed")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d spots, deactivated %d\n", result.Upserted, result.Deactivated)
	return nil
}

func runImportListings(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	svc := &services{}
	defer svc.close()

	client, err := svc.scheduler()
	if err != nil {
		return err
	}
	lineup, err := client.Lineup(cmd.Context())
	if err != nil {
		return err
	}
	if len(lineup) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "lineup is empty, nothing imported")
		return nil
	}

	database, err := svc.database()
	if err != nil {
		return err
	}

	from := lineup[0].Start
	to := from
	for _, b := range lineup {
		if b.End().After(to) {
			to = b.End()
		}
	}
	n, err := store.NewListings(database, cfg.Channel).Replace(cmd.Context(), from, to, lineup)
	if err != nil {
		return err
	}

	logger.Info().Int("listings", n).Time("from", from).Time("to", to).Msg("lineup imported")
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d listings for channel %d\n", n, cfg.Channel)
	return nil
}
