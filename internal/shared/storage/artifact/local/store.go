package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"quickapply-backend/internal/shared/storage/artifact"
)

// Store implements artifact.Store on the local filesystem. Files are served
// publicly by a static route that maps publicURL onto baseDir.
type Store struct {
	baseDir   string
	publicURL string
	now       func() time.Time
}

// New creates a local store rooted at baseDir whose files are reachable under publicURL.
func New(baseDir, publicURL string) *Store {
	return &Store{
		baseDir:   baseDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.baseDir
}

// Save writes the reader under a new resume name. An existing file is never reused.
func (s *Store) Save(ctx context.Context, originalFilename string, r io.Reader) (artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Artifact{}, err
	}

	name, err := artifact.NewResumeName(s.now(), originalFilename)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: name: %w", artifact.ErrStorage, err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: mkdir: %w", artifact.ErrStorage, err)
	}

	fullPath := filepath.Join(s.baseDir, name)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: open file: %w", artifact.ErrStorage, err)
	}

	size, mimeType, err := writeSniffed(f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return artifact.Artifact{}, fmt.Errorf("%w: %w", artifact.ErrStorage, err)
	}

	return artifact.Artifact{Key: name, SizeBytes: size, MimeType: mimeType}, nil
}

func writeSniffed(f *os.File, r io.Reader) (int64, string, error) {
	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read sniff: %w", readErr)
	}

	mimeType := http.DetectContentType(sniff[:n])

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			return 0, "", fmt.Errorf("write sniff: %w", err)
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, "", fmt.Errorf("write body: %w", err)
	}
	size += written

	if err := f.Sync(); err != nil {
		return 0, "", fmt.Errorf("sync: %w", err)
	}
	return size, mimeType, nil
}

// Open opens a stored artifact for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := artifact.CleanKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", artifact.ErrStorage, err)
	}
	return f, nil
}

// SaveWithKey writes the reader to disk at a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	clean, err := artifact.CleanKey(key)
	if err != nil {
		return 0, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("%w: mkdir: %w", artifact.ErrStorage, err)
	}

	// Write to a sibling temp file so readers never observe a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp: %w", artifact.ErrStorage, err)
	}
	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("%w: write body: %w", artifact.ErrStorage, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("%w: chmod: %w", artifact.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("%w: rename: %w", artifact.ErrStorage, err)
	}
	_ = contentType
	return written, nil
}

// Delete removes a stored artifact. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(clean))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove: %w", artifact.ErrStorage, err)
	}
	return nil
}

// List returns every stored file whose key starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]artifact.Object, error) {
	var out []artifact.Object
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.baseDir {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, artifact.Object{Key: key, SizeBytes: info.Size(), ModifiedAt: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", artifact.ErrStorage, err)
	}
	return out, nil
}

// URL returns the public URL under which the static route serves key.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := artifact.CleanKey(key)
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + path.Clean(clean), nil
}

var _ artifact.Store = (*Store)(nil)
