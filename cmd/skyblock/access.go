// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/access"
)

func newAccessCmd(deps *Deps, load configLoader) *cobra.Command {
	var (
		as       string
		at       string
		operator bool
	)

	cmd := &cobra.Command{
		Use:   "access --as ACTOR --at WORLD,X,Y,Z",
		Short: "Check whether an actor may interact at a location",
		Long: `Run the per-interaction access check a game server makes before letting
ACTOR break, place or use anything at the given location. Exits non-zero
when access is denied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			actor, err := parseActor(as)
			if err != nil {
				return err
			}
			loc, err := parseLocation(at)
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

			if operator {
				if err := eng.privileges.Assign(actor, access.RoleOperator); err != nil {
					return err
				}
			}

			if !eng.coordinator.OnInteract(ctx, actor, loc) {
				cmd.Printf("denied: %s at %s\n", actor, at)
				return oops.Code("ACCESS_DENIED").
					With("actor_id", actor.String()).
					With("location", at).
					Errorf("access denied")
			}
			cmd.Printf("allowed: %s at %s\n", actor, at)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "actor id to check")
	cmd.Flags().StringVar(&at, "at", "", "location to check, as WORLD,X,Y,Z")
	cmd.Flags().BoolVar(&operator, "operator", false, "check with the operator role")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
