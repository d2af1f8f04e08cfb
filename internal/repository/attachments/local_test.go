package attachments

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rigcost/internal/repository"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploaded_reports")
	store, err := NewLocalStore(dir, nil)
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 report")
	require.NoError(t, store.Put(ctx, "abc-day1.pdf", payload))

	ok, err := store.Exists(ctx, "abc-day1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, "abc-day1.pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "abc-day1.pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc-day1.pdf"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// a second delete is a no-op
	require.NoError(t, store.Delete(ctx, "abc-day1.pdf"))
}

func TestLocalStoreMissing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "nothing.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, "nothing.pdf")
	assert.True(t, errors.Is(err, repository.ErrAttachmentNotFound))
}

func TestLocalStoreRefusesPaths(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o644))

	store, err := NewLocalStore(filepath.Join(root, "uploads"), nil)
	require.NoError(t, err)

	for _, name := range []string{"../secret.txt", "sub/file.pdf", "..", ""} {
		_, err := store.Get(ctx, name)
		assert.True(t, errors.Is(err, repository.ErrAttachmentNotFound), name)

		ok, err := store.Exists(ctx, name)
		require.NoError(t, err)
		assert.False(t, ok, name)
	}

	err = store.Put(ctx, "../escape.pdf", []byte("x"))
	assert.True(t, errors.Is(err, repository.ErrStorageIO))
}
