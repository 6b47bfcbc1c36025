package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := New()

	classes := c.Classes()
	require.Len(t, classes, 4)
	assert.Equal(t, "RH-FL-A", classes[0].Code)

	assert.True(t, c.KnownClass("RH-T-B"))
	assert.True(t, c.KnownClass("rh-t-b"), "class lookup should ignore case")
	assert.False(t, c.KnownClass("IGP-3"))

	assert.True(t, c.IsQualifyingLevel("Відбіркові"))
	assert.True(t, c.IsQualifyingLevel("Чемпіонат України"))
	assert.False(t, c.IsQualifyingLevel("Клубні змагання"))
}

func TestLoadFromDir(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadFromDir("testdata"))

	// A loaded file replaces the defaults entirely
	assert.False(t, c.KnownClass("RH-T-A"))
	assert.False(t, c.IsQualifyingLevel("Відбіркові"))

	assert.True(t, c.KnownClass("RH-FL-A"))
	assert.True(t, c.KnownClass("RH-W-A"))
	assert.True(t, c.IsQualifyingLevel("Чемпіонат України"))

	// The entry without a code is dropped
	assert.Len(t, c.Classes(), 2)

	water := c.GetClass("RH-W-A")
	require.NotNil(t, water)
	assert.Equal(t, "Water search A", water.Name)
	assert.Equal(t, "rescue", water.Discipline)

	assert.Equal(t, []string{"Чемпіонат України"}, c.QualifyingLevels())
}

func TestLoadFromDirKeepsDefaultsWhenEmpty(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadFromDir(t.TempDir()))

	assert.True(t, c.KnownClass("RH-FL-A"))
	assert.True(t, c.IsQualifyingLevel("Відбіркові"))
}

func TestLoadFromDirUnparsable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classes: [unterminated"), 0o644))

	c := New()
	err := c.LoadFromDir(dir)
	assert.Error(t, err)

	// Defaults stay in place when nothing could be parsed
	assert.True(t, c.KnownClass("RH-FL-A"))
}
