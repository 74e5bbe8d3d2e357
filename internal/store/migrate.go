// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var loadVersions = sync.OnceValues(readMigrationVersions)

// migrateIface is the part of *migrate.Migrate the Migrator drives.
// Tests substitute a fake so no database is needed.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded island schema migrations.
type Migrator struct {
	m migrateIface
}

// Status summarizes the schema state of a database.
type Status struct {
	Version uint
	Name    string
	Dirty   bool
	Pending []uint
}

// NewMigrator opens a migrator for databaseURL. postgres:// and
// postgresql:// URLs are rewritten to the pgx5:// scheme golang-migrate expects.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "open embedded migrations").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return ignoreNoChange(m.m.Up(), oops.Code("MIGRATION_UP_FAILED"))
}

// Down rolls the schema back to version 0. All island data is dropped.
func (m *Migrator) Down() error {
	return ignoreNoChange(m.m.Down(), oops.Code("MIGRATION_DOWN_FAILED"))
}

// Steps migrates n versions up (n > 0) or down (n < 0).
func (m *Migrator) Steps(n int) error {
	return ignoreNoChange(m.m.Steps(n), oops.Code("MIGRATION_STEPS_FAILED").With("steps", n))
}

// Version returns the applied version and whether the last migration failed
// midway. An empty database reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It is the
// recovery path for a dirty database.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Status reports the current version, its name and the versions Up would apply.
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	all, err := loadVersions()
	if err != nil {
		return Status{}, err
	}
	name, err := MigrationName(version)
	if err != nil {
		return Status{}, err
	}

	st := Status{Version: version, Name: name, Dirty: dirty}
	for _, v := range all {
		if v > version {
			st.Pending = append(st.Pending, v)
		}
	}
	return st, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr == nil && dbErr == nil {
		return nil
	}
	component := "both"
	switch {
	case dbErr == nil:
		component = "source"
	case srcErr == nil:
		component = "database"
	}
	return oops.Code("MIGRATION_CLOSE_FAILED").With("component", component).Wrap(errors.Join(srcErr, dbErr))
}

// MigrationName returns the file stem of an embedded migration, such as
// "000001_create_islands", or "" when version is unknown.
func MigrationName(version uint) (string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return "", oops.Code("MIGRATION_READ_FAILED").With("operation", "read migrations dir").Wrap(err)
	}
	prefix := fmt.Sprintf("%06d_", version)
	for _, entry := range entries {
		if stem, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok && strings.HasPrefix(stem, prefix) {
			return stem, nil
		}
	}
	return "", nil
}

func ignoreNoChange(err error, b oops.OopsErrorBuilder) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return b.Wrap(err)
}

// readMigrationVersions lists the versions of the embedded up migrations in
// ascending order. Files not named NNNNNN_name.up.sql are skipped.
func readMigrationVersions() ([]uint, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	var versions []uint
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var v uint
		if _, err := fmt.Sscanf(name, "%06d", &v); err != nil {
			slog.Warn("skipping malformed migration file name",
				"filename", name,
				"expected_format", "NNNNNN_name.up.sql",
				"error", err)
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return slices.Compact(versions), nil
}
