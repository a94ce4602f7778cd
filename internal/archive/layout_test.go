package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0755))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestClassifyEmpty(t *testing.T) {
	dir := t.TempDir()

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, Empty, layout)
	assert.Empty(t, names)
}

func TestClassifyJunkOnlyIsEmpty(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, "__MACOSX"))
	touch(t, filepath.Join(dir, ".DS_Store"))
	touch(t, filepath.Join(dir, "._resource"))

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, Empty, layout)
	assert.Empty(t, names)
}

func TestClassifySingleRoot(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, "MyAddon"))
	touch(t, filepath.Join(dir, "MyAddon", "init.lua"))

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, SingleRoot, layout)
	assert.Equal(t, []string{"MyAddon"}, names)
	assert.Equal(t, filepath.Join(dir, "MyAddon"), RootDir(dir, names))
}

func TestClassifySingleRootIgnoresJunkSiblings(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, "MyAddon"))
	mkdir(t, filepath.Join(dir, "__MACOSX"))

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, SingleRoot, layout)
	assert.Equal(t, []string{"MyAddon"}, names)
}

func TestClassifyLoneFileIsSingleRoot(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "init.lua"))

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, SingleRoot, layout)
	assert.Equal(t, []string{"init.lua"}, names)
	assert.Equal(t, filepath.Join(dir, "init.lua"), RootDir(dir, names))
}

func TestClassifyMultiRoot(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, filepath.Join(dir, "Core"))
	mkdir(t, filepath.Join(dir, "Core_Options"))
	touch(t, filepath.Join(dir, "readme.txt"))

	layout, names, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, MultiRoot, layout)
	assert.Len(t, names, 3)
}

func TestClassifyMissingDir(t *testing.T) {
	_, _, err := Classify(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLayoutString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "single-root", SingleRoot.String())
	assert.Equal(t, "multi-root", MultiRoot.String())
}
