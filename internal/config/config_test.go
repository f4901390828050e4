package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "sigtrack.db", cfg.Database)
	assert.False(t, cfg.StrictDates)
	assert.Equal(t, []string{"02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006", "2006-01-02"}, cfg.DateLayouts)
	assert.Empty(t, cfg.Directory)
	assert.Empty(t, cfg.MetricsFile)
	assert.Empty(t, cfg.Source)

	_, ok := cfg.Baseline.UnitPopulation("North")
	assert.False(t, ok)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join("testdata", "sigtrack.cue")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "signatures.db", cfg.Database)
	assert.True(t, cfg.StrictDates)
	assert.Equal(t, []string{"02/01/2006", "2006-01-02"}, cfg.DateLayouts)
	assert.Equal(t, "technicians.yaml", cfg.Directory)
	assert.Equal(t, "sigtrack.prom", cfg.MetricsFile)
	assert.Equal(t, path, cfg.Source)

	n, ok := cfg.Baseline.UnitPopulation("South")
	assert.True(t, ok)
	assert.Equal(t, 80, n)

	n, ok = cfg.Baseline.TechnicianPopulation("North", "bob")
	assert.True(t, ok)
	assert.Equal(t, 25, n)

	_, ok = cfg.Baseline.TechnicianPopulation("South", "bob")
	assert.False(t, ok, "technician populations are per unit")
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`strict_dates: true`), "partial.cue")
	require.NoError(t, err)
	assert.True(t, cfg.StrictDates)
	assert.Equal(t, "sigtrack.db", cfg.Database)
	assert.Len(t, cfg.DateLayouts, 5)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte{}, "empty.cue")
	require.NoError(t, err)
	assert.Equal(t, "sigtrack.db", cfg.Database)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"unknown field", `colour: "red"`, "cue"},
		{"wrong type", `strict_dates: "yes"`, "cue"},
		{"zero unit population", `baseline: units: North: 0`, "cue"},
		{"negative technician population", `baseline: technicians: North: alice: -3`, "cue"},
		{"syntax error", `database: "x`, "cue"},
		{"year-only layout", `date_layouts: ["2006"]`, "date_layouts"},
		{"no layouts", `date_layouts: []`, "date_layouts"},
		{"empty database", `database: ""`, "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.cue")
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse([]byte("database: \"a.db\"\nstrict_dates: 3\n"), "pos.cue")
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	require.True(t, cfgErr.Pos.IsValid())
	assert.Equal(t, "pos.cue", cfgErr.Pos.Filename())
	assert.Equal(t, 2, cfgErr.Pos.Line())
	assert.Contains(t, err.Error(), "pos.cue:2:")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultPath)

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, "sigtrack.db", cfg.Database)

	_, err = LoadOrDefault(missing, true)
	assert.Error(t, err, "an explicit --config must exist")

	path := filepath.Join(t.TempDir(), "sigtrack.cue")
	require.NoError(t, os.WriteFile(path, []byte(`database: "x.db"`), 0o644))
	cfg, err = LoadOrDefault(path, false)
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.Database)
}

func TestError_Format(t *testing.T) {
	err := &Error{Field: "database", Message: "path must not be empty"}
	assert.Equal(t, "database: path must not be empty", err.Error())
}
