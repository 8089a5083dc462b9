// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package kronoaconfig holds the plain configuration structs loaded by
// cmd/kronoa through viper. Nothing in the core content engine reads
// configuration directly; every tunable is threaded in by the caller.
package kronoaconfig

import "time"

// LockConfig controls how long lock operations wait and how long a lease
// lasts once acquired.
type LockConfig struct {
	// AcquireTimeout bounds how long AcquireLock polls before giving up.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`

	// Lease is the duration a held lock is valid for before it is
	// considered stale and reclaimable.
	Lease time.Duration `mapstructure:"lease"`

	// RenewInterval is how often a long-running locked operation renews
	// its lease. It must be strictly shorter than Lease.
	RenewInterval time.Duration `mapstructure:"renew_interval"`
}

// DefaultLocalLockConfig returns lock tuning appropriate for the local
// filesystem reference backend.
func DefaultLocalLockConfig() LockConfig {
	return LockConfig{
		AcquireTimeout: 10 * time.Second,
		Lease:          30 * time.Second,
		RenewInterval:  15 * time.Second,
	}
}

// DefaultRemoteLockConfig returns lock tuning appropriate for a remote
// object-store backend, where network latency justifies a longer lease.
func DefaultRemoteLockConfig() LockConfig {
	return LockConfig{
		AcquireTimeout: 15 * time.Second,
		Lease:          60 * time.Second,
		RenewInterval:  20 * time.Second,
	}
}

// GCConfig controls the garbage collector's reclamation policy.
type GCConfig struct {
	// GracePeriod is how long an unreferenced object must sit before it
	// is eligible for deletion.
	GracePeriod time.Duration `mapstructure:"grace_period"`

	// DryRun, when true, computes but does not apply deletions.
	DryRun bool `mapstructure:"dry_run"`
}

// DefaultGCConfig returns the default 24-hour grace period.
func DefaultGCConfig() GCConfig {
	return GCConfig{GracePeriod: 24 * time.Hour}
}

// Config is the full configuration tree cmd/kronoa loads from file/flags/
// environment via viper.
type Config struct {
	// Root is the local-filesystem backend's root directory.
	Root string `mapstructure:"root"`

	Lock LockConfig `mapstructure:"lock"`
	GC   GCConfig   `mapstructure:"gc"`
}

// Default returns the configuration used when no config file or flags
// override it.
func Default() Config {
	return Config{
		Root: "./.kronoa",
		Lock: DefaultLocalLockConfig(),
		GC:   DefaultGCConfig(),
	}
}
