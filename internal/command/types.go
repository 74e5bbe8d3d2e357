// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command parses island subcommands, checks permissions, and routes
// them to the teleport coordinator.
package command

import (
	"context"
	"fmt"
	"io"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/skyblock/internal/island"
)

// Handler runs one subcommand.
type Handler func(ctx context.Context, exec *Execution) error

// Entry is a registered subcommand.
type Entry struct {
	Name       string   // canonical name (e.g., "home")
	Aliases    []string // alternate names resolved by the registry
	Handler    Handler
	Permission string // required permission; empty means anyone may run it
	Usage      string // usage pattern (e.g., "visit <player>")
	Help       string // one line
}

// Execution carries the caller and arguments of one dispatched subcommand.
type Execution struct {
	Actor     ulid.ULID
	Location  island.Location // where the actor stands when issuing the command
	Args      []string
	InvokedAs string
	Output    io.Writer
}

// Printf writes a line of player-facing output. Output may be nil.
func (e *Execution) Printf(format string, args ...any) {
	if e.Output == nil {
		return
	}
	fmt.Fprintf(e.Output, format+"\n", args...)
}

// PermissionChecker answers whether an actor holds a named permission.
type PermissionChecker interface {
	HasPermission(ctx context.Context, actor ulid.ULID, perm string) bool
}
