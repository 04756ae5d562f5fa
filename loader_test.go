package holoware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.hol"), []byte("<|o_o|>hello"), 0o644))

	loader := NewLoader([]string{dir}, NewMemoryCache())
	tmpl, err := loader.Load("greet.hol")
	require.NoError(t, err)
	assert.Equal(t, "greet.hol", tmpl.Name)
	assert.Equal(t, filepath.Join(dir, "greet.hol"), tmpl.Path)
}

func TestLoader_CachesCompiledTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.hol")
	require.NoError(t, os.WriteFile(path, []byte("<|o_o|>hello"), 0o644))

	cache := NewMemoryCache()
	loader := NewLoader([]string{dir}, cache)

	first, err := loader.Load("greet.hol")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("<|o_o|>changed"), 0o644))
	second, err := loader.Load("greet.hol")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestLoader_MissingTemplateErrors(t *testing.T) {
	loader := NewLoader([]string{t.TempDir()}, NewMemoryCache())
	_, err := loader.Load("missing.hol")
	assert.Error(t, err)
}

func TestLoader_EmptyFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.hol"), []byte(""), 0o644))

	loader := NewLoader([]string{dir}, NewMemoryCache())
	_, err := loader.Load("empty.hol")
	assert.Error(t, err)
}

func TestLoader_AbsolutePathBypassesSearchPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.hol")
	require.NoError(t, os.WriteFile(path, []byte("<|o_o|>hi"), 0o644))

	loader := NewLoader([]string{"somewhere/else"}, NewMemoryCache())
	tmpl, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Path)
}
