// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var writeCmd = &cobra.Command{
	Use:   "write LABEL PATH FILE",
	Short: "Write FILE's contents to PATH under LABEL's working edition",
	Long:  "Write flushes the content to LABEL's working edition before returning; run 'kronoa submit' to send it for review.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, path, file := args[0], args[1], args[2]
		ctx := context.Background()

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, label)
		if err != nil {
			return fmt.Errorf("resume %q: %w", label, err)
		}

		hash, err := sess.Write(path, data)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := sess.EndEditing(ctx); err != nil {
			return fmt.Errorf("flush %q: %w", label, err)
		}

		logger.Info("write", zap.String("label", label), zap.String("path", path), zap.String("hash", hash.String()))
		fmt.Printf("Wrote %s (%s)\n", path, hash)
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read REF PATH",
	Short: "Print the bytes resolved at PATH under REF (staging, production, an edition id, or a label)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, path := args[0], args[1]
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, ref)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", ref, err)
		}

		data, err := sess.Read(ctx, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list REF [DIR]",
	Short: "List the merged directory contents of DIR under REF",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		dir := ""
		if len(args) == 2 {
			dir = args[1]
		}
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, ref)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", ref, err)
		}

		entries, err := sess.List(ctx, dir)
		if err != nil {
			return fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir {
				fmt.Printf("%s/\n", e.Name)
			} else {
				fmt.Println(e.Name)
			}
		}
		return nil
	},
}

var discardCmd = &cobra.Command{
	Use:   "discard LABEL PATH",
	Short: "Tombstone PATH under LABEL's working edition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, path := args[0], args[1]
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, label)
		if err != nil {
			return fmt.Errorf("resume %q: %w", label, err)
		}

		if err := sess.Delete(path); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		if err := sess.EndEditing(ctx); err != nil {
			return fmt.Errorf("flush %q: %w", label, err)
		}

		fmt.Printf("Deleted %s\n", path)
		return nil
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp LABEL FROM TO",
	Short: "Copy FROM to TO, by reference, within LABEL's working edition",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, from, to := args[0], args[1], args[2]
		ctx := context.Background()

		repo, err := openRepository()
		if err != nil {
			return err
		}
		sess, err := resolveSession(ctx, repo, label)
		if err != nil {
			return fmt.Errorf("resume %q: %w", label, err)
		}

		if err := sess.Copy(ctx, from, to); err != nil {
			return fmt.Errorf("copy %s -> %s: %w", from, to, err)
		}
		if err := sess.EndEditing(ctx); err != nil {
			return fmt.Errorf("flush %q: %w", label, err)
		}

		fmt.Printf("Copied %s -> %s\n", from, to)
		return nil
	},
}
