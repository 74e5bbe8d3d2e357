// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"strings"

	"github.com/samber/oops"
)

// rootWords are the top-level command names that prefix every subcommand.
var rootWords = []string{"is", "island"}

// ParsedCommand is one tokenized subcommand.
type ParsedCommand struct {
	Name string   // lowercased subcommand name
	Args []string // remaining whitespace-separated tokens
	Raw  string
}

// Parse tokenizes input. A leading slash and root word ("is" or "island")
// are dropped, so "/is home 2", "island home 2" and "home 2" parse alike.
// A bare root word parses as "help".
func Parse(input string) (*ParsedCommand, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(fields) == 0 {
		return nil, oops.Code(CodeEmptyInput).Errorf("no command provided")
	}

	for _, root := range rootWords {
		if strings.EqualFold(fields[0], root) {
			fields = fields[1:]
			break
		}
	}
	if len(fields) == 0 {
		return &ParsedCommand{Name: "help", Raw: input}, nil
	}

	return &ParsedCommand{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
		Raw:  input,
	}, nil
}
