package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickapply-backend/internal/shared/storage/artifact/local"
)

type staticKeys map[string]struct{}

func (k staticKeys) ResumeKeys(context.Context) (map[string]struct{}, error) { return k, nil }

type brokenKeys struct{}

func (brokenKeys) ResumeKeys(context.Context) (map[string]struct{}, error) {
	return nil, errors.New("db down")
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	ts := now.Add(-age)
	require.NoError(t, os.Chtimes(p, ts, ts))
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeAged(t, dir, "resume-1-aaaa.pdf", 48*time.Hour)   // referenced
	writeAged(t, dir, "resume-2-bbbb.pdf", 48*time.Hour)   // orphan
	writeAged(t, dir, "resume-3-cccc.docx", time.Hour)     // orphan, inside grace
	writeAged(t, dir, "summaries/app-1.pdf", 48*time.Hour) // not a resume
	return dir
}

func TestSweepDeletesOldUnreferencedResumes(t *testing.T) {
	dir := setup(t)
	s := &Sweeper{
		Store: local.New(dir, "http://localhost/uploads"),
		Keys:  staticKeys{"resume-1-aaaa.pdf": {}},
		Now:   func() time.Time { return now },
	}

	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Scanned)
	assert.Equal(t, 1, rep.Referenced)
	assert.Equal(t, 1, rep.TooYoung)
	assert.Equal(t, []string{"resume-2-bbbb.pdf"}, rep.Orphans)
	assert.Equal(t, 1, rep.Deleted)

	assert.True(t, exists(dir, "resume-1-aaaa.pdf"))
	assert.False(t, exists(dir, "resume-2-bbbb.pdf"))
	assert.True(t, exists(dir, "resume-3-cccc.docx"))
	assert.True(t, exists(dir, "summaries/app-1.pdf"))
}

func TestSweepDryRunKeepsFiles(t *testing.T) {
	dir := setup(t)
	s := &Sweeper{
		Store:  local.New(dir, "http://localhost/uploads"),
		Keys:   staticKeys{},
		Grace:  30 * time.Minute,
		DryRun: true,
		Now:    func() time.Time { return now },
	}

	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resume-1-aaaa.pdf", "resume-2-bbbb.pdf", "resume-3-cccc.docx"}, rep.Orphans)
	assert.Zero(t, rep.Deleted)
	assert.True(t, exists(dir, "resume-2-bbbb.pdf"))
}

func TestSweepAbortsWhenKeysUnavailable(t *testing.T) {
	dir := setup(t)
	s := &Sweeper{
		Store: local.New(dir, "http://localhost/uploads"),
		Keys:  brokenKeys{},
		Now:   func() time.Time { return now },
	}

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, exists(dir, "resume-2-bbbb.pdf"))
}
