// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the configuration JSON Schema, or with --check
// fails when the committed copy is stale.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/skyblock/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := fs.StringP("out", "o", filepath.Join("schemas", "config.schema.json"), "output path")
	check := fs.Bool("check", false, "verify the output file is up to date instead of writing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}

	if *check {
		current, err := os.ReadFile(*out)
		if err != nil {
			return oops.Code("SCHEMA_READ_FAILED").With("path", *out).Wrap(err)
		}
		if !bytes.Equal(bytes.TrimSpace(current), bytes.TrimSpace(schema)) {
			return oops.Code("SCHEMA_STALE").With("path", *out).Errorf("%s is out of date; run gen-schema", *out)
		}
		fmt.Fprintf(stdout, "%s is up to date\n", *out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", *out).Wrap(err)
	}
	if err := os.WriteFile(*out, schema, 0o600); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", *out).Wrap(err)
	}
	fmt.Fprintf(stdout, "Generated %s\n", *out)
	return nil
}
