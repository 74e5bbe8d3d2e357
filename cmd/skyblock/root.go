// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/config"
	"github.com/holomush/skyblock/internal/logging"
	"github.com/holomush/skyblock/internal/xdg"
)

// NewRootCmd creates the root command for the skyblock CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	var configFile string

	cmd := &cobra.Command{
		Use:   "skyblock",
		Short: "Skyblock island allocation and access-control engine",
		Long: `skyblock allocates private islands on a shared grid, guards who may
enter them, and serializes the teleports that move players between them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML, default $XDG_CONFIG_HOME/skyblock/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	load := func(c *cobra.Command) (*config.Config, error) {
		path := configFile
		if path == "" {
			found, err := xdg.ConfigFile()
			if err != nil {
				return nil, err
			}
			path = found
		}
		cfg, err := config.Load(path, c.Flags())
		if err != nil {
			return nil, err
		}
		if err := logging.SetDefault("skyblock", version, cfg.Log.Format, cfg.Log.Level); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cmd.AddCommand(newServeCmd(deps, load))
	cmd.AddCommand(newMigrateCmd(deps, load))
	cmd.AddCommand(newIslandCmd(deps, load))
	cmd.AddCommand(newCellCmd(load))
	cmd.AddCommand(newExecCmd(deps, load))
	cmd.AddCommand(newAccessCmd(deps, load))

	return cmd
}

// configLoader resolves configuration for a running command.
type configLoader func(cmd *cobra.Command) (*config.Config, error)

func errDatabaseURLRequired() error {
	return oops.Code("CONFIG_INVALID").
		Errorf("database.url (or %s) is required", config.DatabaseURLEnv)
}
