// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var submitCmd = &cobra.Command{
	Use:   "submit LABEL MESSAGE",
	Short: "Submit LABEL's working edition for review, recording MESSAGE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, message := args[0], args[1]
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, label)
		if err != nil {
			return fmt.Errorf("resume %q: %w", label, err)
		}

		id := sess.EditionID()
		if err := sess.Submit(ctx, message, time.Now()); err != nil {
			return fmt.Errorf("submit %q: %w", label, err)
		}

		logger.Info("submit", zap.String("label", label), zap.Int("edition", id))
		fmt.Printf("Submitted edition %d for review\n", id)
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject EDITION REASON",
	Short: "Decline a pending submission, recording REASON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseEditionArg(args[0])
		if err != nil {
			return err
		}
		reason := args[1]

		repo, err := openRepository()
		if err != nil {
			return err
		}
		if err := repo.publish.Reject(ctx, id, reason, time.Now()); err != nil {
			return fmt.Errorf("reject %d: %w", id, err)
		}

		fmt.Printf("Rejected edition %d: %s\n", id, reason)
		return nil
	},
}
