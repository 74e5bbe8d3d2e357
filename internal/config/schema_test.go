// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"database", "world", "island", "allocation", "spawn", "respawn_on_island", "log", "metrics"} {
		assert.Contains(t, props, key)
	}
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{name: "empty", yaml: ""},
		{name: "full island section", yaml: "island:\n  size: 64\n  floor_y: 80\n  height: 200\n  template: tree\n"},
		{name: "managed globs", yaml: "world:\n  managed: [\"sky_*\"]\n"},
		{name: "size below minimum", yaml: "island:\n  size: 0\n", wantErr: true},
		{name: "misspelled key", yaml: "island:\n  floorY: 80\n", wantErr: true},
		{name: "string for bool", yaml: "respawn_on_island: maybe\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				assert.NotEmpty(t, FormatSchemaError(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, FormatSchemaError(nil))
	assert.Equal(t, "- at '/island': bad",
		FormatSchemaError(errors.New("jsonschema validation failed with 'file:///config.schema.json#'\n- at '/island': bad")))
	assert.Equal(t, "plain", FormatSchemaError(errors.New("plain")))
}
