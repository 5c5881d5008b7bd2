package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/turnstile/internal/testutils"
	"github.com/aretw0/turnstile/pkg/adapters/file"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.TranscriptStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(testutils.SetupTempDir(t))
	ports.RunTranscriptStoreContract(t, store)
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := testutils.SetupTempDir(t)
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, "s1", domain.NewTranscript("s1", "nim-v0")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := testutils.SetupTempDir(t)
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b", domain.NewTranscript("b", "nim-v0")))
	require.NoError(t, store.Save(ctx, "a", domain.NewTranscript("a", "nim-v0")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(testutils.SetupTempDir(t), "not-yet"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(testutils.SetupTempDir(t))
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", domain.NewTranscript("", "nim-v0")))
	assert.Error(t, store.Save(ctx, "../escape", domain.NewTranscript("x", "nim-v0")))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}
