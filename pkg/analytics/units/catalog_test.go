package units

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogMembership(t *testing.T) {
	cat := DefaultCatalog()

	assert.True(t, cat.Contains(MainLab, "ICU"))
	assert.True(t, cat.Contains(MainLab, "icu"))
	assert.True(t, cat.Contains(MainLab, " wellness center "))
	assert.False(t, cat.Contains(MainLab, "ANNEX"))
	assert.True(t, cat.Contains(Annex, "Annex"))
	assert.False(t, cat.Contains(Annex, "ICU"))
	assert.False(t, cat.Contains(MainLab, "PHARMACY"))
	assert.False(t, cat.Contains(Annex, "PHARMACY"))

	group, ok := cat.GroupOf("a&e")
	require.True(t, ok)
	assert.Equal(t, MainLab, group)
	_, ok = cat.GroupOf("PHARMACY")
	assert.False(t, ok)

	assert.Len(t, cat.Units(MainLab), len(InpatientUnits)+len(OutpatientUnits))
	assert.Equal(t, []string{"ANNEX"}, cat.Units(Annex))
}

func TestDefaultGroupsAreDisjoint(t *testing.T) {
	cat := DefaultCatalog()
	for _, unit := range cat.Units(MainLab) {
		assert.False(t, cat.Contains(Annex, unit), unit)
	}
}

func TestLookupGroup(t *testing.T) {
	g, ok := LookupGroup("MAINLAB")
	require.True(t, ok)
	assert.Equal(t, MainLab, g)
	_, ok = LookupGroup("ICU")
	assert.False(t, ok)
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.yaml")
	content := "groups:\n  mainLab: [ICU, hdu]\n  annex: [ANNEX, annex west]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cat.Contains(MainLab, "HDU"))
	assert.True(t, cat.Contains(Annex, "ANNEX WEST"))
	assert.False(t, cat.Contains(MainLab, "THEATRE"))
}

func TestLoadRejectsOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  mainLab: [ICU]\n  annex: [icu]\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	cat, err := Load("")
	require.NoError(t, err)
	assert.True(t, cat.Contains(MainLab, "NICU"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
