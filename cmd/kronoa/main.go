// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Command kronoa is a thin command-line wrapper over the content session,
// publishing, garbage collection, and flatten façades, for manual
// exercise of a repository from a shell. It holds no state of its own
// between invocations: every working checkout lives in the backend as a
// `.{label}.json` pointer, so two separate invocations of this binary
// against the same --root cooperate the same way two separate `git`
// invocations do.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
)

var (
	cfgFile string
	rootDir string
	logJSON bool
	logger  *zap.Logger
	cfg     kronoaconfig.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kronoa",
	Short: "Kronoa is a version-controlled, content-addressable content store",
	Long: `Kronoa tracks named content under Git-like editions, with a staging
and production pointer and a three-pointer publishing state machine
between them. This binary is a thin CLI over the session, publish, gc,
and flatten packages; it carries no logic of its own.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./kronoa.yaml, if present)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "repository root directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs instead of console logs")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(setStagingCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(flattenCmd)
}

func initConfig() {
	viper.SetConfigName("kronoa")
	viper.AddConfigPath(".")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("kronoa")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}

	cfg = kronoaconfig.Default()
	hook := mapstructure.StringToTimeDurationHookFunc()
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to decode config: %v\n", err)
	}
	if rootDir != "" {
		cfg.Root = rootDir
	}

	var err error
	if logJSON {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}
