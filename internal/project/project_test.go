package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `name: demo
search_paths:
  - lib
  - vendor/modules
output: out.ll
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0644))

	nested := filepath.Join(dir, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	entry := filepath.Join(nested, "main.aur")

	p, err := Find(entry)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, dir, p.Root)
	assert.Equal(t, "out.ll", p.Output)

	// Relative search paths resolve against the manifest directory
	require.Len(t, p.SearchPaths, 2)
	assert.Equal(t, filepath.Join(dir, "lib"), p.SearchPaths[0])
	assert.Equal(t, filepath.Join(dir, "vendor/modules"), p.SearchPaths[1])
}

func TestFindWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.aur")

	p, err := Find(entry)
	require.NoError(t, err)
	assert.Empty(t, p.Name)
	assert.Empty(t, p.SearchPaths)
}

func TestMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("{not yaml"), 0644))

	_, err := Find(filepath.Join(dir, "main.aur"))
	assert.Error(t, err)
}
