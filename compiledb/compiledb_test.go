package compiledb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	db := `[
  {"directory": "/build", "file": "src/a.cpp", "arguments": ["clang++", "-c", "src/a.cpp"]},
  {"directory": "/build", "file": "/abs/b.cpp", "command": "clang++ -I include -c /abs/b.cpp"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatabaseFile), []byte(db), 0o644))

	commands, err := Load(context.Background(), afs.New(), dir)
	require.NoError(t, err)
	require.Len(t, commands, 2)

	assert.Equal(t, "/build/src/a.cpp", commands[0].FullPath())
	assert.Equal(t, []string{"clang++", "-c", "src/a.cpp"}, commands[0].Argv())

	assert.Equal(t, "/abs/b.cpp", commands[1].FullPath())
	assert.Equal(t, []string{"clang++", "-I", "include", "-c", "/abs/b.cpp"}, commands[1].Argv())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), afs.New(), t.TempDir())
	assert.Error(t, err, "missing database")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatabaseFile), []byte("{"), 0o644))
	_, err = Load(context.Background(), afs.New(), dir)
	assert.Error(t, err, "malformed database")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatabaseFile), []byte(`[{"directory": "/b"}]`), 0o644))
	_, err = Load(context.Background(), afs.New(), dir)
	assert.Error(t, err, "entry without file")
}
