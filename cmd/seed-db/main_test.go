package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `[
	{"title": "Buy milk"},
	{"title": "Call mom", "description": "Sunday", "completed": true}
]`

func TestReadTodos(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "todos.json")
	require.NoError(t, os.WriteFile(plain, []byte(seedJSON), 0o600))

	compressed := filepath.Join(dir, "todos.json.gz")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write([]byte(seedJSON))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			items, err := readTodos(path)
			require.NoError(t, err)
			require.Len(t, items, 2)

			assert.Equal(t, "Buy milk", items[0].Title)
			assert.Nil(t, items[0].Description)
			assert.False(t, items[0].Completed)

			assert.Equal(t, "Call mom", items[1].Title)
			require.NotNil(t, items[1].Description)
			assert.Equal(t, "Sunday", *items[1].Description)
			assert.True(t, items[1].Completed)
		})
	}
}

func TestReadTodos_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := readTodos(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title":"not an array"}`), 0o600))
	_, err = readTodos(bad)
	assert.ErrorContains(t, err, "parse todos JSON")

	notGzip := filepath.Join(dir, "plain.json.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(seedJSON), 0o600))
	_, err = readTodos(notGzip)
	assert.ErrorContains(t, err, "open gzip stream")
}
