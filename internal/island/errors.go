// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes attached with oops.Code.
const (
	CodeConflict             = "ISLAND_CONFLICT"
	CodeSequenceTaken        = "SEQUENCE_TAKEN"
	CodeAllocationExhausted  = "ALLOCATION_EXHAUSTED"
	CodeNotFound             = "ISLAND_NOT_FOUND"
	CodeNotOwner             = "NOT_OWNER"
	CodeSelfTarget           = "SELF_TARGET"
	CodePrivilegeViolation   = "PRIVILEGE_VIOLATION"
	CodeNotPresent           = "NOT_PRESENT"
	CodeNoIsland             = "NO_ISLAND"
	CodePersistence          = "PERSISTENCE_FAILURE"
	CodeTeleportPending      = "TELEPORT_PENDING"
	CodeNotManagedWorld      = "NOT_MANAGED_WORLD"
	CodeIslandLocked         = "ISLAND_LOCKED"
	CodeNoPendingInvitation  = "NO_PENDING_INVITATION"
	CodeAlreadyMember        = "ALREADY_MEMBER"
	CodeNotMember            = "NOT_MEMBER"
	CodeInvalidIsland        = "INVALID_ISLAND"
	CodePlacementFailed      = "PLACEMENT_FAILED"
	CodeRegistryLookupFailed = "REGISTRY_LOOKUP_FAILED"
)

// Sentinel errors. Wrapped errors keep these in their chain so callers can
// match with errors.Is.
var (
	ErrConflict            = errors.New("cell already claimed")
	ErrSequenceTaken       = errors.New("island number already in use")
	ErrAllocationExhausted = errors.New("no free cell found")
	ErrNotFound            = errors.New("island not found")
	ErrNotOwner            = errors.New("actor does not own the island")
	ErrSelfTarget          = errors.New("actor cannot target themselves")
	ErrPrivilegeViolation  = errors.New("target is privileged")
	ErrNotPresent          = errors.New("target is not on this island")
	ErrNoIsland            = errors.New("no island")
	ErrPersistence         = errors.New("persistence failure")
	ErrTeleportPending     = errors.New("teleport already in progress")
	ErrNotManagedWorld     = errors.New("location is outside the island world")
	ErrIslandLocked        = errors.New("island is locked")
	ErrNoPendingInvitation = errors.New("no pending invitation")
	ErrAlreadyMember       = errors.New("actor is already a member")
	ErrNotMember           = errors.New("actor is not a member")
	ErrInvalidIsland       = errors.New("invalid island")
)

// ErrorKind classifies an error for callers that translate outcomes into
// player-facing messages.
type ErrorKind string

// Error kinds.
const (
	KindNone                ErrorKind = ""
	KindConflict            ErrorKind = "conflict"
	KindSequenceTaken       ErrorKind = "sequence_taken"
	KindAllocationExhausted ErrorKind = "allocation_exhausted"
	KindNotFound            ErrorKind = "not_found"
	KindNotOwner            ErrorKind = "not_owner"
	KindSelfTarget          ErrorKind = "self_target"
	KindPrivilegeViolation  ErrorKind = "privilege_violation"
	KindNotPresent          ErrorKind = "not_present"
	KindNoIsland            ErrorKind = "no_island"
	KindPersistence         ErrorKind = "persistence_failure"
	KindTeleportPending     ErrorKind = "teleport_pending"
	KindNotManagedWorld     ErrorKind = "not_managed_world"
	KindIslandLocked        ErrorKind = "island_locked"
	KindNoPendingInvitation ErrorKind = "no_pending_invitation"
	KindAlreadyMember       ErrorKind = "already_member"
	KindNotMember           ErrorKind = "not_member"
	KindInvalid             ErrorKind = "invalid"
	KindUnknown             ErrorKind = "unknown"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrConflict, KindConflict},
	{ErrSequenceTaken, KindSequenceTaken},
	{ErrAllocationExhausted, KindAllocationExhausted},
	{ErrNotFound, KindNotFound},
	{ErrNotOwner, KindNotOwner},
	{ErrSelfTarget, KindSelfTarget},
	{ErrPrivilegeViolation, KindPrivilegeViolation},
	{ErrNotPresent, KindNotPresent},
	{ErrNoIsland, KindNoIsland},
	{ErrTeleportPending, KindTeleportPending},
	{ErrNotManagedWorld, KindNotManagedWorld},
	{ErrIslandLocked, KindIslandLocked},
	{ErrNoPendingInvitation, KindNoPendingInvitation},
	{ErrAlreadyMember, KindAlreadyMember},
	{ErrNotMember, KindNotMember},
	{ErrInvalidIsland, KindInvalid},
	// checked last: persistence failures may wrap a more specific cause
	{ErrPersistence, KindPersistence},
}

// KindOf returns the kind of err, KindNone for nil and KindUnknown for
// errors outside the island taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// persistenceError wraps a store failure so it matches ErrPersistence while
// keeping the underlying cause in the message.
func persistenceError(op string, err error) error {
	return oops.Code(CodePersistence).
		With("operation", op).
		Wrap(errors.Join(ErrPersistence, err))
}
