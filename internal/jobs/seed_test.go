package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
jobs:
  - id: job-123
    title: Backend Engineer
    company: Acme
    location: Remote
  - id: " job-456 "
    title: Designer
    company: Globex
`

func TestParseSeed(t *testing.T) {
	got, err := ParseSeed(strings.NewReader(sampleSeed))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "job-123", got[0].ID)
	assert.Equal(t, "Remote", got[0].Location)
	assert.Equal(t, "job-456", got[1].ID)
}

func TestParseSeedRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing company": "jobs:\n  - id: a\n    title: T\n",
		"duplicate id":    "jobs:\n  - {id: a, title: T, company: C}\n  - {id: a, title: U, company: D}\n",
		"unknown field":   "jobs:\n  - {id: a, title: T, company: C, salary: 1}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestParseSeedEmptyDocument(t *testing.T) {
	got, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSeedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)

	repo := NewMemoryRepo()
	ctx := context.Background()
	n, err := Seed(ctx, repo, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := repo.GetByID(ctx, "job-123")
	require.NoError(t, err)

	_, err = Seed(ctx, repo, seed)
	require.NoError(t, err)

	again, err := repo.GetByID(ctx, "job-123")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, again.CreatedAt)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryRepoGetByIDNotFound(t *testing.T) {
	_, err := NewMemoryRepo().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
