// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/store"
)

func newMigrateCmd(deps *Deps, load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the island database schema",
	}

	withMigrator := func(fn func(cmd *cobra.Command, m Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errDatabaseURLRequired()
			}
			m, err := deps.MigratorFactory(cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := m.Close(); closeErr != nil {
					cmd.PrintErrf("warning: closing migrator: %v\n", closeErr)
				}
			}()
			return fn(cmd, m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (one step by default, --all for every step)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator) error {
			all, _ := cmd.Flags().GetBool("all")
			var err error
			if all {
				err = m.Down()
			} else {
				if steps <= 0 {
					return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("--steps must be positive")
				}
				err = m.Steps(-steps)
			}
			if err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().Bool("all", false, "roll back every migration")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator) error {
			st, err := m.Status()
			if err != nil {
				return err
			}
			cmd.Println(formatStatus(st))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it (clears a dirty state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return withMigrator(func(cmd *cobra.Command, m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})(cmd, nil)
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	line := "schema version " + strconv.FormatUint(uint64(v), 10)
	if dirty {
		line += " (dirty)"
	}
	cmd.Println(line)
	return nil
}

func formatStatus(st store.Status) string {
	out := "schema version " + strconv.FormatUint(uint64(st.Version), 10)
	if st.Name != "" {
		out += " (" + st.Name + ")"
	}
	if st.Dirty {
		out += " dirty"
	}
	if len(st.Pending) == 0 {
		return out + ", up to date"
	}
	out += ", pending:"
	for _, v := range st.Pending {
		out += " " + strconv.FormatUint(uint64(v), 10)
	}
	return out
}
