package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"refflow/internal/config"
	"refflow/internal/prof"
)

// profileDir receives every profile when profiler_enabled is set.
const profileDir = ".refflow-profile"

// setupProfiling enables the profilers named by the persistent flags, or all
// of them under the project when cfg.ProfilerEnabled. The returned cleanup is
// safe to call multiple times.
func setupProfiling(cmd *cobra.Command, cfg *config.Config) (func(), error) {
	var opts prof.Options
	if cfg != nil && cfg.ProfilerEnabled {
		opts = prof.InDir(cfg.ProjectPath(profileDir))
	}
	var err error
	if opts.CPU, err = overrideFlag(cmd, "cpu-profile", opts.CPU); err != nil {
		return nil, err
	}
	if opts.Mem, err = overrideFlag(cmd, "mem-profile", opts.Mem); err != nil {
		return nil, err
	}
	if opts.Trace, err = overrideFlag(cmd, "runtime-trace", opts.Trace); err != nil {
		return nil, err
	}

	if opts == (prof.Options{}) {
		return func() {}, nil
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to write profile: %v\n", err)
		}
	}
	return cleanup, nil
}

// overrideFlag returns the persistent string flag name when it is set,
// otherwise fallback.
func overrideFlag(cmd *cobra.Command, name, fallback string) (string, error) {
	value, err := cmd.Root().PersistentFlags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}
