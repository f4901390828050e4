package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/track"
)

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "Ana Souza", CanonicalName("  Ana \t  Souza "))
	assert.Equal(t, "Jos\u00e9", CanonicalName("Jose\u0301"))
	assert.Equal(t, "", CanonicalName("   "))
}

func TestDefaultNormalizer(t *testing.T) {
	n := DefaultNormalizer{}
	item, err := n.Normalize(RawRecord{
		Key:          " 1001 ",
		OrgUnit:      "North  Hub",
		Technician:   " Ana Souza",
		DisplayName:  "Line  1001",
		SerialNumber: " SN-1 ",
	})
	require.NoError(t, err)

	assert.Equal(t, track.TrackedItem{
		Key:        "1001",
		OrgUnit:    "North Hub",
		Technician: "Ana Souza",
		Attributes: track.Attributes{DisplayName: "Line 1001", SerialNumber: "SN-1"},
	}, item)
}

func TestDefaultNormalizer_FillsUnitFromDirectory(t *testing.T) {
	n := DefaultNormalizer{Directory: NewStaticDirectory(map[string]string{"Ana  Souza": "North Hub"})}

	item, err := n.Normalize(RawRecord{Key: "1", Technician: "Ana Souza"})
	require.NoError(t, err)
	assert.Equal(t, "North Hub", item.OrgUnit)

	// An explicit unit wins over the directory.
	item, err = n.Normalize(RawRecord{Key: "2", OrgUnit: "South", Technician: "Ana Souza"})
	require.NoError(t, err)
	assert.Equal(t, "South", item.OrgUnit)

	// Unknown technicians keep a blank unit.
	item, err = n.Normalize(RawRecord{Key: "3", Technician: "Nobody"})
	require.NoError(t, err)
	assert.Equal(t, "", item.OrgUnit)
}

func TestDirectory_LoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Ana Souza: North Hub\nBo Lima: South Hub\n"), 0644))

	d := NewDirectory(path)
	unit, ok, err := d.Lookup("Ana Souza")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "North Hub", unit)

	// Later changes to the file are not observed.
	require.NoError(t, os.WriteFile(path, []byte("Ana Souza: Elsewhere\n"), 0644))
	unit, _, err = d.Lookup("Ana Souza")
	require.NoError(t, err)
	assert.Equal(t, "North Hub", unit)

	n, err := d.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDirectory_MissingFile(t *testing.T) {
	d := NewDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	_, _, err := d.Lookup("x")
	assert.Error(t, err)

	n := DefaultNormalizer{Directory: d}
	_, err = n.Normalize(RawRecord{Key: "1", Technician: "x"})
	assert.Error(t, err)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	items, err := NormalizeAll(DefaultNormalizer{}, []RawRecord{{Key: "B"}, {Key: "A"}, {Key: ""}})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "B", items[0].Key)
	assert.Equal(t, "", items[2].Key)
}
