// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/grid"
)

func newCellCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "cell X Z",
		Short: "Show the grid cell containing block (X, Z)",
		Long: `Show the grid cell containing block (X, Z) for the configured island size.
Use -- before negative coordinates: skyblock cell -- -150 20`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			x, z, err := parseXZ(args)
			if err != nil {
				return err
			}
			size := cfg.Island.Size

			col, row := grid.CellIndex(x, z, size)
			ox, oz := grid.CellOrigin(x, z, size)
			cx, cz := grid.CellCenter(x, z, size)
			cmd.Printf("cell_id=%d index=(%d, %d) origin=(%d, %d) center=(%d, %d) size=%d\n",
				grid.CellID(x, z, size), col, row, ox, oz, cx, cz, size)
			if abs(col) >= grid.InjectiveRange || abs(row) >= grid.InjectiveRange {
				cmd.PrintErrln("warning: cell index outside the collision-free range; this key may alias another cell")
			}
			return nil
		},
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
