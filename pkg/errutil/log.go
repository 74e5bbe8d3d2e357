// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil holds helpers for oops errors shared by commands and tests.
package errutil

import (
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the oops code attached to err, or "" if there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := oopsErr.Code().(type) {
	case nil:
		return ""
	case string:
		return code
	default:
		return fmt.Sprint(code)
	}
}

// LogError logs err at error level. Oops errors contribute their code and
// context; attrs are appended as-is.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	fields := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			fields = append(fields, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			fields = append(fields, "context", ctx)
		}
	}
	logger.Error(msg, append(fields, attrs...)...)
}
