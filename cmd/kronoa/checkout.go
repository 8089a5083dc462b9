// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/session"
)

var checkoutFrom string

var checkoutCmd = &cobra.Command{
	Use:   "checkout LABEL",
	Short: "Check out a new working edition under LABEL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		ctx := context.Background()

		source, err := edition.ParseSource(checkoutFrom)
		if err != nil {
			return err
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}

		sess, err := session.Open(ctx, repo.backend, repo.editions, repo.publish, source)
		if err != nil {
			return fmt.Errorf("open %s: %w", checkoutFrom, err)
		}
		if err := sess.Checkout(ctx, label, source); err != nil {
			return fmt.Errorf("checkout %q: %w", label, err)
		}

		logger.Info("checkout", zap.String("label", label), zap.Int("edition", sess.EditionID()), zap.String("from", checkoutFrom))
		fmt.Printf("Checked out %s: edition=%d base=%s\n", label, sess.EditionID(), checkoutFrom)
		return nil
	},
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutFrom, "from", "staging", "published pointer to base the checkout on (staging or production)")
}
