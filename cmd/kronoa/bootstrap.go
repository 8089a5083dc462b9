// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the genesis edition and the initial staging/production pointers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		repo, err := openRepository()
		if err != nil {
			return err
		}

		isNew, err := repo.editions.Bootstrap(ctx)
		if err != nil {
			return fmt.Errorf("bootstrap editions: %w", err)
		}
		if err := repo.publish.Bootstrap(ctx); err != nil {
			return fmt.Errorf("bootstrap pointers: %w", err)
		}

		logger.Info("bootstrap complete", zap.String("root", cfg.Root), zap.Bool("created", isNew))
		if isNew {
			fmt.Println("Initialized a new repository at", cfg.Root)
		} else {
			fmt.Println("Repository already initialized at", cfg.Root)
		}
		return nil
	},
}
