// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codelynx/kronoa/pkg/flatten"
	"github.com/codelynx/kronoa/pkg/gc"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim objects unreachable from the live edition set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}

		gcCfg := cfg.GC
		gcCfg.DryRun = gcDryRun

		collector := gc.NewCollector(repo.backend, repo.editions, repo.publish)
		result, err := collector.Run(ctx, gcCfg, cfg.Lock, time.Now())
		if err != nil {
			return fmt.Errorf("gc: %w", err)
		}

		logger.Info("gc complete",
			zap.Int("scanned", result.ScannedObjects),
			zap.Int("deleted", result.DeletedObjects),
			zap.Int("skippedByRef", result.SkippedByRef),
			zap.Int("skippedByScan", result.SkippedByScan),
			zap.Int("skippedByAge", result.SkippedByAge),
			zap.Bool("dryRun", gcDryRun),
		)
		fmt.Printf("Scanned %d objects: deleted=%d skippedByRef=%d skippedByScan=%d skippedByAge=%d\n",
			result.ScannedObjects, result.DeletedObjects, result.SkippedByRef, result.SkippedByScan, result.SkippedByAge)
		for _, e := range result.Errors {
			fmt.Printf("  error: %v\n", e)
		}
		return nil
	},
}

var flattenCmd = &cobra.Command{
	Use:   "flatten EDITION",
	Short: "Materialize EDITION's ancestry-resolved content directly into it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEditionArg(args[0])
		if err != nil {
			return err
		}
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}

		flattener := flatten.NewFlattener(repo.backend, repo.editions)
		if err := flattener.Flatten(ctx, id, cfg.Lock); err != nil {
			return fmt.Errorf("flatten %d: %w", id, err)
		}

		logger.Info("flatten", zap.Int("edition", id))
		fmt.Printf("Flattened edition %d\n", id)
		return nil
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report what would be deleted without deleting anything")
}
