// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stageCmd = &cobra.Command{
	Use:   "stage EDITION",
	Short: "Promote a pending submission to the staging pointer",
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
		if err := repo.publish.Stage(ctx, id, cfg.Lock); err != nil {
			return fmt.Errorf("stage %d: %w", id, err)
		}

		logger.Info("stage", zap.Int("edition", id))
		fmt.Printf("Staged edition %d\n", id)
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Copy the staging pointer to production",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		if err := repo.publish.Deploy(ctx, cfg.Lock); err != nil {
			return fmt.Errorf("deploy: %w", err)
		}

		staging, err := repo.publish.Staging(ctx)
		if err != nil {
			return err
		}
		logger.Info("deploy", zap.Int("edition", staging))
		fmt.Printf("Deployed edition %d to production\n", staging)
		return nil
	},
}

var setStagingCmd = &cobra.Command{
	Use:   "set-staging EDITION",
	Short: "Move the staging pointer directly to EDITION, bypassing submit/stage",
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
		if err := repo.publish.SetStagingPointer(ctx, id, cfg.Lock); err != nil {
			return fmt.Errorf("set-staging %d: %w", id, err)
		}

		fmt.Printf("Staging pointer set to edition %d\n", id)
		return nil
	},
}
