// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"regexp"

	"github.com/samber/oops"
)

// MaxNameLength is the maximum length for subcommand names and aliases.
const MaxNameLength = 20

// Names start with a lowercase letter followed by letters, digits, _ or -.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,19}$`)

// ValidateName reports whether name can be registered.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code(CodeInvalidName).Errorf("command name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return oops.Code(CodeInvalidName).
			With("length", len(name)).
			With("max", MaxNameLength).
			Errorf("command name exceeds maximum length of %d", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return oops.Code(CodeInvalidName).
			With("name", name).
			Errorf("command name must be lowercase and contain only letters, digits, _ or -")
	}
	return nil
}
