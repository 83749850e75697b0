package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFlipsModes(t *testing.T) {
	th := ForMode(ModeDark)
	assert.Equal(t, ModeDark, th.Mode)

	th = th.Toggle()
	assert.Equal(t, ModeLight, th.Mode)

	th = th.Toggle()
	assert.Equal(t, ModeDark, th.Mode)
}

func TestForModeDefaultsToDark(t *testing.T) {
	assert.Equal(t, ModeDark, ForMode("nonsense").Mode)
	assert.Equal(t, ModeLight, ForMode(ModeLight).Mode)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(preferenceFileEnv, filepath.Join(t.TempDir(), "theme.json"))

	require.NoError(t, Save(ForMode(ModeLight)))
	assert.Equal(t, ModeLight, Load().Mode)

	require.NoError(t, Save(ForMode(ModeDark)))
	assert.Equal(t, ModeDark, Load().Mode)
}

func TestLoadDefaultsToDarkWithoutPreference(t *testing.T) {
	t.Setenv(preferenceFileEnv, filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, ModeDark, Load().Mode)
}

func TestLoadIgnoresCorruptPreference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.json")
	t.Setenv(preferenceFileEnv, path)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Equal(t, ModeDark, Load().Mode)
}
