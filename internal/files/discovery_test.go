package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTabular(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"NABIL.csv", true},
		{"nabil.CSV", true},
		{"NABIL.xlsx", true},
		{"NABIL.xls", false},
		{"NABIL.json", false},
		{".NABIL.csv.tmp-123", false},
		{".hidden.csv", false},
		{"~$NABIL.xlsx", false},
		{"README", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTabular(tt.name))
		})
	}
}

func TestFindTabularFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"NICA.csv", "ADBL.xlsx", "notes.txt", ".NABIL.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	found, err := NewDiscovery("").FindTabularFiles(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ADBL.xlsx", found[0].Name)
	assert.Equal(t, "NICA.csv", found[1].Name)
	assert.Equal(t, "NICA", found[1].Symbol())
}

func TestFindTabularFiles_RelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "nabil.csv"), []byte("x"), 0644))

	d := NewDiscovery(base)
	found, err := d.FindTabularFiles("data")
	require.NoError(t, err)
	require.Len(t, found, 1)

	f, ok, err := d.FindBySymbol("data", "NABIL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(base, "data", "nabil.csv"), f.Path)

	_, ok, err = d.FindBySymbol("data", "NICA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindTabularFiles_MissingDir(t *testing.T) {
	_, err := NewDiscovery("").FindTabularFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
