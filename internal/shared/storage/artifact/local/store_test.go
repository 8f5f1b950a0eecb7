package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/shared/storage/artifact"
)

func TestSaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := New(dir, "http://localhost:8080/uploads/")
	payload := []byte("%PDF-1.4\n% resume bytes\n")

	saved, err := store.Save(context.Background(), "Jane CV.PDF", bytes.NewReader(payload))
	require.NoError(t, err)

	assert.True(t, artifact.IsResumeKey(saved.Key))
	assert.True(t, strings.HasSuffix(saved.Key, ".pdf"))
	assert.Equal(t, int64(len(payload)), saved.SizeBytes)
	assert.Equal(t, "application/pdf", saved.MimeType)

	rc, err := store.Open(context.Background(), saved.Key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	url, err := store.URL(context.Background(), saved.Key)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/"+saved.Key, url)
}

func TestSaveNeverReusesName(t *testing.T) {
	store := New(t.TempDir(), "/uploads")
	keys := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		saved, err := store.Save(context.Background(), "cv.pdf", strings.NewReader("x"))
		require.NoError(t, err)
		_, dup := keys[saved.Key]
		require.False(t, dup)
		keys[saved.Key] = struct{}{}
	}
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestSaveFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := New(filepath.Join(blocker, "uploads"), "/uploads")
	_, err := store.Save(context.Background(), "cv.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, artifact.ErrStorage))
}

func TestSaveRemovesPartialFileOnReadError(t *testing.T) {
	store := New(t.TempDir(), "/uploads")
	_, err := store.Save(context.Background(), "cv.pdf", io.MultiReader(strings.NewReader("abc"), failingReader{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, artifact.ErrStorage))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "/uploads")
	_, err := store.Open(context.Background(), "../secret")
	assert.True(t, errors.Is(err, artifact.ErrInvalidKey))
}

func TestSaveWithKeyListAndDelete(t *testing.T) {
	store := New(t.TempDir(), "/uploads")
	ctx := context.Background()

	_, err := store.Save(ctx, "cv.docx", strings.NewReader("docx"))
	require.NoError(t, err)
	n, err := store.SaveWithKey(ctx, "summaries/app-1.pdf", "application/pdf", strings.NewReader("summary"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	summaries, err := store.List(ctx, "summaries/")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "summaries/app-1.pdf", summaries[0].Key)
	assert.False(t, summaries[0].ModifiedAt.IsZero())

	require.NoError(t, store.Delete(ctx, "summaries/app-1.pdf"))
	require.NoError(t, store.Delete(ctx, "summaries/app-1.pdf"))
	summaries, err = store.List(ctx, "summaries/")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"), "/uploads")
	got, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}
