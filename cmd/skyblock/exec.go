// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/command"
	"github.com/holomush/skyblock/internal/island"
)

func newExecCmd(deps *Deps, load configLoader) *cobra.Command {
	var (
		as       string
		at       string
		operator bool
	)

	cmd := &cobra.Command{
		Use:   "exec --as ACTOR -- is SUBCOMMAND [ARGS...]",
		Short: "Run one player island command against the store",
		Long: `Run one player island command as ACTOR, the way a game server would
dispatch it. The actor joins a headless host, optionally standing at --at,
so commands that need a location (info, kick, claim) can be exercised.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			actor, err := parseActor(as)
			if err != nil {
				return err
			}
			var loc island.Location
			if at != "" {
				if loc, err = parseLocation(at); err != nil {
					return err
				}
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

			host := newHeadlessHost()
			eng, err := newEngine(cfg, opened.Store, host)
			if err != nil {
				return err
			}
			defer eng.close()

			role := access.RolePlayer
			if operator {
				role = access.RoleOperator
			}
			if err := eng.privileges.Assign(actor, role); err != nil {
				return err
			}
			eng.coordinator.OnJoin(ctx, actor)
			if at != "" {
				host.place(actor, loc)
			}

			err = eng.commands.Dispatch(ctx, strings.Join(args, " "), &command.Execution{
				Actor:    actor,
				Location: loc,
				Output:   cmd.OutOrStdout(),
			})
			if err != nil {
				cmd.PrintErrln(command.Message(err))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "actor id issuing the command")
	cmd.Flags().StringVar(&at, "at", "", "where the actor stands, as WORLD,X,Y,Z")
	cmd.Flags().BoolVar(&operator, "operator", false, "run with the operator role")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

// parseLocation reads WORLD,X,Y,Z.
func parseLocation(raw string) (island.Location, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 || parts[0] == "" {
		return island.Location{}, oops.Code("INVALID_LOCATION").With("location", raw).Errorf("location must be WORLD,X,Y,Z")
	}
	coords := make([]int, 3)
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return island.Location{}, oops.Code("INVALID_LOCATION").With("location", raw).Wrap(err)
		}
		coords[i] = n
	}
	return island.Location{World: parts[0], X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
