/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/player"
	"github.com/friendsincode/technicaldirector/internal/playout"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run queue assembly and print the resulting queue",
	Long:  "Assemble the playout queue from --at for the given horizon without playing anything, then print every segment with its estimated airtime.",
	RunE:  runPlan,
}

var (
	planAt        string
	planHorizon   time.Duration
	planMaxBlocks int
	planJSON      bool
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planAt, "at", "", "Instant to plan from (RFC3339, default now)")
	planCmd.Flags().DurationVar(&planHorizon, "horizon", 2*time.Hour, "Plan until at least this much airtime is queued")
	planCmd.Flags().IntVar(&planMaxBlocks, "max-blocks", 48, "Stop after planning this many blocks")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the queue snapshot as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	at := time.Now()
	if planAt != "" {
		parsed, err := time.Parse(time.RFC3339, planAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		at = parsed
	}

	svc, err := buildServices(nil)
	if err != nil {
		return err
	}
	defer svc.close()

	// The director is never started, so the sink only satisfies the type.
	director := playout.NewDirector(playout.Config{ReplenishThreshold: planHorizon},
		svc.planner, svc.programming, svc.metadata, player.NewSimulated(1, logger), logger,
		playout.WithClock(func() time.Time { return at }))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for i := 0; i < planMaxBlocks; i++ {
		added, err := director.MaybeReplenish(ctx, at)
		if err != nil {
			return err
		}
		if !added {
			break
		}
	}

	snap := director.Snapshot()
	if planJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return printQueue(cmd.OutOrStdout(), snap)
}

func printQueue(out io.Writer, snap playout.Snapshot) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AIRS AT\tKIND\tDURATION\tWINDOW\tSOURCE\tBATCH")
	for _, e := range snap.Queue {
		window := "-"
		start, hasStart := e.Segment.Start()
		end, hasEnd := e.Segment.End()
		if hasStart || hasEnd {
			from, to := "", ""
			if hasStart {
				from = models.FormatSeconds(start)
			}
			if hasEnd {
				to = models.FormatSeconds(end)
			}
			window = from + ".." + to
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.EstimatedStart.Format("2006-01-02 15:04:05.000"),
			e.Segment.Kind,
			models.FormatSeconds(e.Segment.Duration()),
			window,
			e.Segment.Source,
			e.Segment.Batch,
		)
	}
	fmt.Fprintf(tw, "\n%d segments, %ss queued, drains at %s\n",
		len(snap.Queue), models.FormatSeconds(snap.Remaining.Duration()), snap.DrainAt.Format(time.RFC3339))
	return tw.Flush()
}
