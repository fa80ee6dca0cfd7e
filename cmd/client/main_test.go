package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/grocerease/internal/client/storage"
	"github.com/atinyakov/grocerease/internal/config"
	"github.com/atinyakov/grocerease/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifierFor_RedirectedOutputLogs(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer f.Close()

	core, logs := observer.New(zap.InfoLevel)
	n := notifierFor(f, zap.New(core))

	require.IsType(t, store.LogNotifier{}, n)
	require.NoError(t, n.Notify(store.KindSuccess, "Order placed successfully!"))

	entries := logs.FilterMessage("Order placed successfully!").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "success", entries[0].ContextMap()["kind"])

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "nothing is printed to a redirected file")
}

func TestOpenStorage_FileLogsPath(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zap.InfoLevel)

	p, err := openStorage(context.Background(), &config.Options{
		Storage:     config.StorageFile,
		DataDir:     dir,
		SnapshotKey: "session",
	}, zap.New(core))

	require.NoError(t, err)
	require.IsType(t, &storage.FileStorage{}, p)
	entries := logs.FilterMessage("using snapshot file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "session.json"), entries[0].ContextMap()["path"])
	assert.Equal(t, false, entries[0].ContextMap()["encrypted"])
}

func TestOpenStorage_Memory(t *testing.T) {
	p, err := openStorage(context.Background(), &config.Options{Storage: config.StorageMemory}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStorage{}, p)
}
