package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessKind(t *testing.T) {
	tests := []struct {
		path string
		kind ModelKind
		ok   bool
	}{
		{"RAD_NL25_RAC_FM_202403140900.h5", KindSimple, true},
		{"/data/RAD_NL25_RAC_FM_202403140900.h5", KindSimple, true},
		{"KNMI_PYSTEPS_BLEND_ENS_202403140900.nc", KindEnsemble, true},
		{"RAD_NL25_RAC_FM_202403140900.nc", 0, false},
		{"KNMI_PYSTEPS_BLEND_ENS_202403140900.h5", 0, false},
		{"notes.txt", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := GuessKind(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("Simple")
	require.NoError(t, err)
	assert.Equal(t, KindSimple, kind)

	kind, err = ParseKind("ensemble")
	require.NoError(t, err)
	assert.Equal(t, KindEnsemble, kind)

	_, err = ParseKind("blended")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("RAD_NL25_RAC_FM_202403140905.h5", KindSimple)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 5, 0, 0, time.UTC), ts)

	ts, err = ParseTimestamp("KNMI_PYSTEPS_BLEND_ENS_202501311200.nc", KindEnsemble)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC), ts)

	_, err = ParseTimestamp("RAD_NL25_RAC_FM_20240314.h5", KindSimple)
	assert.Error(t, err, "truncated stamp")

	_, err = ParseTimestamp("RAD_NL25_RAC_FM_202403140905.nc", KindSimple)
	assert.Error(t, err, "wrong extension for the kind")

	_, err = ParseTimestamp("KNMI_PYSTEPS_BLEND_ENS_202403140905.nc", KindSimple)
	assert.Error(t, err, "wrong prefix for the kind")
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func TestMostRecentFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "RAD_NL25_RAC_FM_202403140900.h5")
	touch(t, dir, "RAD_NL25_RAC_FM_202403141000.h5")
	touch(t, dir, "KNMI_PYSTEPS_BLEND_ENS_202403140930.nc")
	touch(t, dir, "README.md")

	path, err := MostRecentFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "RAD_NL25_RAC_FM_202403141000.h5", filepath.Base(path))
}

func TestMostRecentFileOfKind(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "RAD_NL25_RAC_FM_202403141000.h5")
	touch(t, dir, "KNMI_PYSTEPS_BLEND_ENS_202403140930.nc")

	path, err := MostRecentFileOfKind(dir, KindEnsemble)
	require.NoError(t, err)
	assert.Equal(t, "KNMI_PYSTEPS_BLEND_ENS_202403140930.nc", filepath.Base(path))

	_, err = MostRecentFileOfKind(t.TempDir(), KindSimple)
	assert.ErrorIs(t, err, ErrNoFileFound)
}
