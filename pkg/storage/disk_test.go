package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewDiskStorage(base, "http://localhost:8080/storage/")

	require.NoError(t, store.Put(ctx, "event-photos/1/a.jpg", strings.NewReader("hello")))

	data, err := store.Get(ctx, "event-photos/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, "http://localhost:8080/storage/event-photos/1/a.jpg", store.URL("event-photos/1/a.jpg"))

	require.NoError(t, store.Delete(ctx, "event-photos/1/a.jpg"))
	exists, err := store.Exists(ctx, "event-photos/1/a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// ikinci silme hata değil
	assert.NoError(t, store.Delete(ctx, "event-photos/1/a.jpg"))
}

func TestDiskStorageOpenMissing(t *testing.T) {
	store := NewDiskStorage(t.TempDir(), "")
	_, err := store.Open(context.Background(), "nope.jpg")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestDiskStorageStaysUnderBasePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewDiskStorage(filepath.Join(base, "root"), "")

	require.NoError(t, store.Put(ctx, "../../escape.txt", strings.NewReader("x")))

	_, err := os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	f, err := store.Open(ctx, "escape.txt")
	require.NoError(t, err)
	defer f.Close()
	b, _ := io.ReadAll(f)
	assert.Equal(t, "x", string(b))
}

func TestDiskStorageCreateRefusesTakenPath(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStorage(t.TempDir(), "")

	require.NoError(t, store.Create(ctx, "event-photos/1/a.jpg", strings.NewReader("first")))

	second := strings.NewReader("second")
	err := store.Create(ctx, "event-photos/1/a.jpg", second)
	assert.ErrorIs(t, err, ErrExist)
	assert.Equal(t, int64(len("second")), int64(second.Len()), "source must stay unread")

	data, err := store.Get(ctx, "event-photos/1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}
