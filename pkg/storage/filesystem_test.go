package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.Save("etl-report-1.json", []byte(`{"status":"succeeded"}`))
	require.NoError(t, err)
	assert.Equal(t, "etl-report-1.json", name)
	assert.Equal(t, filepath.Join(dir, name), store.Path(name))

	f, err := store.Open(name)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"succeeded"}`, string(body))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.json", []byte("{}"))
	require.NoError(t, err)
	_, err = store.Save("new.json", []byte("{}"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old.json"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.json"}, deleted)

	_, err = os.Stat(store.Path("new.json"))
	assert.NoError(t, err)
}
