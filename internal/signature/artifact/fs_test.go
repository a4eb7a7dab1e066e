package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

func newFSStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	handle := Handle(id.CustomerID(1), []byte("image-bytes"))

	require.NoError(t, store.Put(ctx, handle, []byte("image-bytes")))

	exists, err := store.Exists(ctx, handle)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	require.NoError(t, store.Delete(ctx, handle))
	exists, err = store.Exists(ctx, handle)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFSStoreGetMissing(t *testing.T) {
	store := newFSStore(t)
	_, err := store.Get(context.Background(), "customer_1_missing.sig")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFSStoreDeleteMissingIsNoop(t *testing.T) {
	store := newFSStore(t)
	require.NoError(t, store.Delete(context.Background(), "customer_1_missing.sig"))
}

func TestFSStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)

	handle := Handle(id.CustomerID(2), []byte("img"))
	require.NoError(t, store.Put(ctx, handle, []byte("img")))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, handle, entries[0].Name())
}

func TestFSStoreRejectsEscapingHandles(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	for _, handle := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, store.Put(ctx, handle, []byte("x")), "handle %q", handle)
	}
}

func TestHandleIsContentDerived(t *testing.T) {
	a := Handle(id.CustomerID(1), []byte("same"))
	b := Handle(id.CustomerID(1), []byte("same"))
	c := Handle(id.CustomerID(2), []byte("same"))
	d := Handle(id.CustomerID(1), []byte("different"))

	assert.Equal(t, a, b, "identical content and customer derive the same handle")
	assert.NotEqual(t, a, c, "customer id is part of the handle")
	assert.NotEqual(t, a, d, "content is part of the handle")
	assert.NotContains(t, filepath.Base(a), "/")
}
