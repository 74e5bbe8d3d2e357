// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/island"
)

// Error codes for dispatch failures.
const (
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalidArgs      = "INVALID_ARGS"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInvalidName      = "INVALID_COMMAND_NAME"
	CodeDuplicateCommand = "DUPLICATE_COMMAND"
)

// ErrUnknownCommand creates an error for an unregistered subcommand.
func ErrUnknownCommand(name string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", name).
		Errorf("unknown command: %s", name)
}

// ErrPermissionDenied creates an error for a missing permission.
func ErrPermissionDenied(name, perm string) error {
	return oops.Code(CodePermissionDenied).
		With("command", name).
		With("permission", perm).
		Errorf("permission denied for command %s", name)
}

// ErrInvalidArgs creates an error for malformed arguments.
func ErrInvalidArgs(name, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", name).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrRateLimited creates an error for an actor over their command budget.
func ErrRateLimited(cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("cooldown_ms", cooldownMs).
		Errorf("too many commands")
}

var kindMessages = map[island.ErrorKind]string{
	island.KindConflict:            "That spot is already claimed.",
	island.KindSequenceTaken:       "That island number is already in use.",
	island.KindAllocationExhausted: "No free island space is left.",
	island.KindNotFound:            "There is no island here.",
	island.KindNotOwner:            "You do not own this island.",
	island.KindSelfTarget:          "You cannot target yourself.",
	island.KindPrivilegeViolation:  "That player cannot be kicked.",
	island.KindNotPresent:          "That player is not on your island.",
	island.KindNoIsland:            "No island found.",
	island.KindPersistence:         "Island storage is unavailable. Try again later.",
	island.KindTeleportPending:     "A teleport is already in progress.",
	island.KindNotManagedWorld:     "You are not in an island world.",
	island.KindIslandLocked:        "That island is locked.",
	island.KindNoPendingInvitation: "You have no pending invitation.",
	island.KindAlreadyMember:       "That player is already a member.",
	island.KindNotMember:           "That player is not a member.",
	island.KindInvalid:             "That island record is invalid.",
}

// Message turns err into one line of player-facing text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := kindMessages[island.KindOf(err)]; ok {
		return msg
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong."
	}
	switch oopsErr.Code() {
	case CodeEmptyInput:
		return "Type a command. Try: is help"
	case CodeUnknownCommand:
		return "Unknown command. Try: is help"
	case CodePermissionDenied:
		return "You do not have permission to do that."
	case CodeInvalidArgs:
		if usage, _ := oopsErr.Context()["usage"].(string); usage != "" {
			return "Usage: is " + usage
		}
		return "Invalid arguments."
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	case "TELEPORT_FAILED":
		return "Teleport failed."
	case "REGION_CLEAR_FAILED":
		return "Your island could not be cleared."
	default:
		return "Something went wrong."
	}
}
