// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads engine configuration from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"os"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"

	"github.com/holomush/skyblock/internal/island"
)

// DatabaseURLEnv is consulted when database.url is not configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the full engine configuration.
type Config struct {
	Database        DatabaseConfig   `koanf:"database" json:"database,omitempty"`
	World           WorldConfig      `koanf:"world" json:"world,omitempty"`
	Island          IslandConfig     `koanf:"island" json:"island,omitempty"`
	Allocation      AllocationConfig `koanf:"allocation" json:"allocation,omitempty"`
	Spawn           SpawnConfig      `koanf:"spawn" json:"spawn,omitempty"`
	RespawnOnIsland bool             `koanf:"respawn_on_island" json:"respawn_on_island,omitempty" jsonschema:"description=Send owners back to their island when they die in a managed world"`
	Log             LogConfig        `koanf:"log" json:"log,omitempty"`
	Metrics         MetricsConfig    `koanf:"metrics" json:"metrics,omitempty"`
}

// DatabaseConfig locates PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL connection string"`
}

// WorldConfig names the island world.
type WorldConfig struct {
	Name    string   `koanf:"name" json:"name,omitempty" jsonschema:"minLength=1,description=World islands are allocated in"`
	Managed []string `koanf:"managed" json:"managed,omitempty" jsonschema:"description=Glob patterns of worlds under access control"`
}

// IslandConfig shapes new islands.
type IslandConfig struct {
	Size     int    `koanf:"size" json:"size,omitempty" jsonschema:"minimum=1,description=Edge length of a cell in blocks"`
	FloorY   int    `koanf:"floor_y" json:"floor_y,omitempty" jsonschema:"description=Y coordinate islands are placed at"`
	Height   int    `koanf:"height" json:"height,omitempty" jsonschema:"minimum=1,description=Vertical extent cleared on reset"`
	Template string `koanf:"template" json:"template,omitempty"`
	Biome    string `koanf:"biome" json:"biome,omitempty"`
	Name     string `koanf:"name" json:"name,omitempty"`
}

// AllocationConfig tunes the cell search.
type AllocationConfig struct {
	MaxAttempts int    `koanf:"max_attempts" json:"max_attempts,omitempty" jsonschema:"minimum=1"`
	Seed        uint64 `koanf:"seed" json:"seed,omitempty" jsonschema:"description=Offset generator seed; 0 picks one at random"`
}

// SpawnConfig is where kicked actors are sent.
type SpawnConfig struct {
	World string `koanf:"world" json:"world,omitempty"`
	X     int    `koanf:"x" json:"x,omitempty"`
	Y     int    `koanf:"y" json:"y,omitempty"`
	Z     int    `koanf:"z" json:"z,omitempty"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig controls the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address for /metrics and health probes; empty disables"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World: WorldConfig{
			Name:    "skyblock",
			Managed: []string{"skyblock", "skyblock_*"},
		},
		Island: IslandConfig{
			Size:     100,
			FloorY:   60,
			Height:   256,
			Template: "default",
			Biome:    "PLAINS",
			Name:     "My Island",
		},
		Allocation: AllocationConfig{MaxAttempts: island.DefaultMaxAttempts},
		Spawn:      SpawnConfig{World: "world", Y: 64},
		Log:        LogConfig{Format: "json", Level: "info"},
		Metrics:    MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"database-url": "database.url",
	"world":        "world.name",
	"island-size":  "island.size",
	"seed":         "allocation.seed",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("database-url", "", "PostgreSQL connection string (default $"+DatabaseURLEnv+")")
	fs.String("world", d.World.Name, "island world name")
	fs.Int("island-size", d.Island.Size, "cell edge length in blocks")
	fs.Uint64("seed", 0, "allocation offset seed (0 = random)")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "observability server address (empty disables)")
}

// Load builds the configuration. path may be empty; fs may be nil. Only
// flags the user actually set override the file.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")
	switch {
	case c.World.Name == "":
		return errb.Errorf("world.name must be set")
	case c.Island.Size <= 0:
		return errb.With("island.size", c.Island.Size).Errorf("island.size must be positive")
	case c.Island.Height <= 0:
		return errb.With("island.height", c.Island.Height).Errorf("island.height must be positive")
	case c.Allocation.MaxAttempts <= 0:
		return errb.With("allocation.max_attempts", c.Allocation.MaxAttempts).Errorf("allocation.max_attempts must be positive")
	}
	return nil
}

// PlannerConfig derives the allocation planner settings.
func (c *Config) PlannerConfig() island.PlannerConfig {
	return island.PlannerConfig{
		World:       c.World.Name,
		FloorY:      c.Island.FloorY,
		Height:      c.Island.Height,
		MaxAttempts: c.Allocation.MaxAttempts,
		Template:    c.Island.Template,
		Name:        c.Island.Name,
		Biome:       c.Island.Biome,
	}
}

// SpawnLocation returns the configured spawn point.
func (c *Config) SpawnLocation() island.Location {
	return island.Location{World: c.Spawn.World, X: c.Spawn.X, Y: c.Spawn.Y, Z: c.Spawn.Z}
}

// ManagedWorlds returns the access-controlled world patterns. The island
// world itself is always managed.
func (c *Config) ManagedWorlds() []string {
	for _, p := range c.World.Managed {
		if p == c.World.Name {
			return c.World.Managed
		}
	}
	return append([]string{c.World.Name}, c.World.Managed...)
}
