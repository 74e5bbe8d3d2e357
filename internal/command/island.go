// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/teleport"
)

// IslandService is the slice of teleport.Coordinator the island commands use.
type IslandService interface {
	CreateIsland(ctx context.Context, actor ulid.ULID, opts teleport.CreateOptions) (*island.Island, error)
	Claim(ctx context.Context, actor ulid.ULID, loc island.Location) (*island.Island, error)
	Home(ctx context.Context, actor ulid.ULID, homeIndex int) (*island.Island, error)
	Reset(ctx context.Context, actor ulid.ULID, homeIndex int) (*island.Island, error)
	Visit(ctx context.Context, actor, targetOwner ulid.ULID) (*island.Island, error)
	Kick(ctx context.Context, owner, victim ulid.ULID) error
	KickByAdmin(ctx context.Context, victim ulid.ULID) error
	Info(ctx context.Context, loc island.Location) (*island.Island, error)
	Invite(ctx context.Context, owner, invitee ulid.ULID) (teleport.Invitation, error)
	Accept(ctx context.Context, invitee ulid.ULID) (*island.Island, error)
	Deny(invitee ulid.ULID) error
	RemoveMember(ctx context.Context, owner, member ulid.ULID) error
}

var _ IslandService = (*teleport.Coordinator)(nil)

// RegisterIslandCommands registers the island subcommands on reg.
func RegisterIslandCommands(reg *Registry, svc IslandService, permissions PermissionChecker) error {
	h := &islandHandlers{svc: svc, permissions: permissions, registry: reg}
	entries := []Entry{
		{Name: "create", Handler: h.create, Permission: access.PermCreate, Usage: "create [template]", Help: "Create a new island"},
		{Name: "home", Aliases: []string{"go", "h"}, Handler: h.home, Permission: access.PermCreate, Usage: "home [number]", Help: "Teleport to one of your islands"},
		{Name: "reset", Handler: h.reset, Permission: access.PermReset, Usage: "reset [number]", Help: "Wipe an island and start over"},
		{Name: "visit", Aliases: []string{"warp"}, Handler: h.visit, Permission: access.PermVisit, Usage: "visit <player>", Help: "Visit another player's island"},
		{Name: "kick", Handler: h.kick, Permission: access.PermKick, Usage: "kick <player>", Help: "Send a visitor off your island"},
		{Name: "info", Handler: h.info, Permission: access.PermInfo, Usage: "info", Help: "Show the island you are standing on"},
		{Name: "invite", Handler: h.invite, Usage: "invite <player>", Help: "Invite a player to your island"},
		{Name: "accept", Handler: h.accept, Usage: "accept", Help: "Accept a pending invitation"},
		{Name: "deny", Handler: h.deny, Usage: "deny", Help: "Decline a pending invitation"},
		{Name: "remove", Handler: h.remove, Usage: "remove <player>", Help: "Remove a member from your islands"},
		{Name: "claim", Handler: h.claim, Permission: access.PermBypass, Usage: "claim", Help: "Claim the cell you are standing in"},
		{Name: "help", Handler: h.help, Usage: "help", Help: "List island commands"},
	}
	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}

type islandHandlers struct {
	svc         IslandService
	permissions PermissionChecker
	registry    *Registry
}

func (h *islandHandlers) create(ctx context.Context, exec *Execution) error {
	if len(exec.Args) > 1 {
		return ErrInvalidArgs("create", "create [template]")
	}
	opts := teleport.CreateOptions{}
	if len(exec.Args) == 1 {
		opts.Template = exec.Args[0]
	}
	isl, err := h.svc.CreateIsland(ctx, exec.Actor, opts)
	if err != nil {
		return err
	}
	exec.Printf("Island #%d created at %s.", isl.Sequence, coords(isl))
	return nil
}

func (h *islandHandlers) home(ctx context.Context, exec *Execution) error {
	n, err := optionalIndex(exec, "home [number]")
	if err != nil {
		return err
	}
	isl, err := h.svc.Home(ctx, exec.Actor, n)
	if err != nil {
		return err
	}
	exec.Printf("Welcome to island #%d.", isl.Sequence)
	return nil
}

func (h *islandHandlers) reset(ctx context.Context, exec *Execution) error {
	n, err := optionalIndex(exec, "reset [number]")
	if err != nil {
		return err
	}
	isl, err := h.svc.Reset(ctx, exec.Actor, n)
	if err != nil {
		return err
	}
	exec.Printf("Island #%d has been reset at %s.", isl.Sequence, coords(isl))
	return nil
}

func (h *islandHandlers) visit(ctx context.Context, exec *Execution) error {
	target, err := targetArg(exec, "visit <player>")
	if err != nil {
		return err
	}
	isl, err := h.svc.Visit(ctx, exec.Actor, target)
	if err != nil {
		return err
	}
	exec.Printf("Visiting %s.", isl.Name)
	return nil
}

func (h *islandHandlers) kick(ctx context.Context, exec *Execution) error {
	victim, err := targetArg(exec, "kick <player>")
	if err != nil {
		return err
	}
	if victim == exec.Actor {
		return oops.Code(island.CodeSelfTarget).
			With("actor_id", exec.Actor.String()).
			Wrap(island.ErrSelfTarget)
	}
	if h.permissions.HasPermission(ctx, exec.Actor, access.PermBypass) {
		err = h.svc.KickByAdmin(ctx, victim)
	} else {
		err = h.svc.Kick(ctx, exec.Actor, victim)
	}
	if err != nil {
		return err
	}
	exec.Printf("Kicked %s.", victim)
	return nil
}

func (h *islandHandlers) info(ctx context.Context, exec *Execution) error {
	isl, err := h.svc.Info(ctx, exec.Location)
	if err != nil {
		return err
	}
	owner := "nobody"
	if id, ok := isl.Ownership.Owner(); ok {
		owner = id.String()
	}
	exec.Printf("%s (#%d) owned by %s at %s, %d member(s).", isl.Name, isl.Sequence, owner, coords(isl), len(isl.Members))
	return nil
}

func (h *islandHandlers) invite(ctx context.Context, exec *Execution) error {
	invitee, err := targetArg(exec, "invite <player>")
	if err != nil {
		return err
	}
	inv, err := h.svc.Invite(ctx, exec.Actor, invitee)
	if err != nil {
		return err
	}
	exec.Printf("Invited %s. The invitation expires in %s.", invitee, time.Until(inv.ExpiresAt).Round(time.Second))
	return nil
}

func (h *islandHandlers) accept(ctx context.Context, exec *Execution) error {
	isl, err := h.svc.Accept(ctx, exec.Actor)
	if err != nil {
		return err
	}
	exec.Printf("You joined %s.", isl.Name)
	return nil
}

func (h *islandHandlers) deny(_ context.Context, exec *Execution) error {
	if err := h.svc.Deny(exec.Actor); err != nil {
		return err
	}
	exec.Printf("Invitation declined.")
	return nil
}

func (h *islandHandlers) remove(ctx context.Context, exec *Execution) error {
	member, err := targetArg(exec, "remove <player>")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveMember(ctx, exec.Actor, member); err != nil {
		return err
	}
	exec.Printf("Removed %s.", member)
	return nil
}

func (h *islandHandlers) claim(ctx context.Context, exec *Execution) error {
	isl, err := h.svc.Claim(ctx, exec.Actor, exec.Location)
	if err != nil {
		return err
	}
	exec.Printf("Claimed cell %d as island #%d.", isl.CellID, isl.Sequence)
	return nil
}

func (h *islandHandlers) help(ctx context.Context, exec *Execution) error {
	for _, e := range h.registry.All() {
		if e.Permission != "" && !h.permissions.HasPermission(ctx, exec.Actor, e.Permission) {
			continue
		}
		exec.Printf("is %-18s %s", e.Usage, e.Help)
	}
	return nil
}

// optionalIndex reads an optional 1-based island number.
func optionalIndex(exec *Execution, usage string) (int, error) {
	switch len(exec.Args) {
	case 0:
		return 1, nil
	case 1:
		n, err := strconv.Atoi(exec.Args[0])
		if err != nil || n < 1 {
			return 0, ErrInvalidArgs(exec.InvokedAs, usage)
		}
		return n, nil
	default:
		return 0, ErrInvalidArgs(exec.InvokedAs, usage)
	}
}

func targetArg(exec *Execution, usage string) (ulid.ULID, error) {
	if len(exec.Args) != 1 {
		return ulid.ULID{}, ErrInvalidArgs(exec.InvokedAs, usage)
	}
	id, err := ulid.ParseStrict(strings.ToUpper(exec.Args[0]))
	if err != nil {
		return ulid.ULID{}, ErrInvalidArgs(exec.InvokedAs, usage)
	}
	return id, nil
}

func coords(isl *island.Island) string {
	return strconv.Itoa(isl.X) + ", " + strconv.Itoa(isl.FloorY) + ", " + strconv.Itoa(isl.Z)
}
