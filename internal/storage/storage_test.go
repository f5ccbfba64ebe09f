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

func TestKey(t *testing.T) {
	assert.Equal(t, "leaves/42/medical_note.pdf", Key("leaves", "42", "medical note.pdf"))
	assert.Equal(t, "leaves/42/passwd", Key("leaves", "42", "../../etc/passwd"))
	assert.Equal(t, "workers/7/photo.png", Key("workers", "7", `C:\Users\me\photo.png`))
	assert.Equal(t, "leaves/42/file", Key("leaves", "42", ".."))
	assert.Equal(t, "leaves/42/file", Key("leaves", "42", ""))
	assert.Equal(t, "leaves/42/file", Key("leaves", "42", `..\..`))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "leaves/1/note.txt", strings.NewReader("sick note"), "text/plain"))

	rc, err := store.Open(ctx, "leaves/1/note.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "sick note", string(data))

	require.NoError(t, store.Delete(ctx, "leaves/1/note.txt"))
	_, err = store.Open(ctx, "leaves/1/note.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "leaves/1/note.txt"))
}

func TestLocalStoreStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "objects"))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "../escape.txt", strings.NewReader("x"), ""))

	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "objects", "escape.txt"))
	assert.NoError(t, err)
}
