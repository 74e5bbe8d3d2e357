// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/config"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/teleport"
)

func newIslandCmd(deps *Deps, load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "island",
		Short: "Inspect and administer island records",
	}

	// withEngine opens the store and builds an engine for one command run.
	withEngine := func(run func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, eng *engine, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			opened, err := deps.StoreOpener(ctx, cfg)
			if err != nil {
				return err
			}
			defer opened.Close()
			eng, err := newEngine(cfg, opened.Store, newHeadlessHost())
			if err != nil {
				return err
			}
			defer eng.close()
			return run(ctx, cmd, cfg, eng, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list OWNER",
		Short: "List an owner's islands in island-number order",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(ctx context.Context, cmd *cobra.Command, _ *config.Config, eng *engine, args []string) error {
			owner, err := parseActor(args[0])
			if err != nil {
				return err
			}
			islands, err := eng.registry.LookupByOwner(ctx, owner)
			if err != nil {
				return err
			}
			if len(islands) == 0 {
				cmd.Println("no islands")
				return nil
			}
			for _, isl := range islands {
				cmd.Println(formatIsland(isl))
			}
			return nil
		}),
	})

	var infoWorld string
	info := &cobra.Command{
		Use:   "info X Z",
		Short: "Show the island covering block (X, Z)",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, eng *engine, args []string) error {
			x, z, err := parseXZ(args)
			if err != nil {
				return err
			}
			world := infoWorld
			if world == "" {
				world = cfg.World.Name
			}
			isl, err := eng.coordinator.Info(ctx, island.Location{World: world, X: x, Z: z})
			if err != nil {
				return err
			}
			cmd.Println(formatIsland(isl))
			return nil
		}),
	}
	info.Flags().StringVar(&infoWorld, "in", "", "world to look in (default: island world)")
	cmd.AddCommand(info)

	var template string
	create := &cobra.Command{
		Use:   "create OWNER",
		Short: "Allocate a new island for OWNER",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(ctx context.Context, cmd *cobra.Command, _ *config.Config, eng *engine, args []string) error {
			owner, err := parseActor(args[0])
			if err != nil {
				return err
			}
			isl, err := eng.coordinator.CreateIsland(ctx, owner, teleport.CreateOptions{Template: template, Silent: true})
			if err != nil {
				return err
			}
			cmd.Println(formatIsland(isl))
			return nil
		}),
	}
	create.Flags().StringVar(&template, "template", "", "starting structure (default: configured template)")
	cmd.AddCommand(create)

	var deleteWorld string
	del := &cobra.Command{
		Use:   "delete CELL_ID",
		Short: "Delete the island record for a cell (blocks are left in place)",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, eng *engine, args []string) error {
			cellID, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_CELL_ID").With("cell_id", args[0]).Wrap(err)
			}
			world := deleteWorld
			if world == "" {
				world = cfg.World.Name
			}
			if err := eng.registry.Delete(ctx, world, cellID); err != nil {
				return err
			}
			cmd.Printf("deleted %s/%d\n", world, cellID)
			return nil
		}),
	}
	del.Flags().StringVar(&deleteWorld, "in", "", "world the cell belongs to (default: island world)")
	cmd.AddCommand(del)

	return cmd
}

func parseActor(raw string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_ACTOR_ID").With("actor_id", raw).Wrap(err)
	}
	return id, nil
}

func parseXZ(args []string) (x, z int, err error) {
	x, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, oops.Code("INVALID_COORDINATE").With("x", args[0]).Wrap(err)
	}
	z, err = strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, oops.Code("INVALID_COORDINATE").With("z", args[1]).Wrap(err)
	}
	return x, z, nil
}

func formatIsland(isl *island.Island) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s/%d at (%d, %d, %d) owner=%s",
		isl.Sequence, isl.World, isl.CellID, isl.X, isl.FloorY, isl.Z, isl.Ownership)
	if len(isl.Members) > 0 {
		members := make([]string, len(isl.Members))
		for i, m := range isl.Members {
			members[i] = m.String()
		}
		fmt.Fprintf(&b, " members=%s", strings.Join(members, ","))
	}
	if isl.Locked > 0 {
		b.WriteString(" locked")
	}
	return b.String()
}
