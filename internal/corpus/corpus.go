// Package corpus opens reference corpora (database dumps, SQLite files)
// and turns them into an orphan.ReferenceSet.
package corpus

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/wpimg-cli/internal/orphan"
)

var (
	// ErrMissingCorpusFile is returned when the corpus path does not exist.
	ErrMissingCorpusFile = errors.New("corpus file not found")
	// ErrUnreadableCorpus is returned when the corpus exists but cannot be
	// opened, decompressed, or read to the end.
	ErrUnreadableCorpus = errors.New("corpus unreadable")
)

// Kind identifies how a corpus file is read.
type Kind string

const (
	KindText   Kind = "text"
	KindGzip   Kind = "gzip"
	KindSQLite Kind = "sqlite"
)

// DetectKind picks the corpus reader from the file extension.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return KindGzip
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	default:
		return KindText
	}
}

// Load reads the corpus at path and returns the complete, frozen
// reference set. No partial set is returned on error.
func Load(ctx context.Context, path string) (*orphan.ReferenceSet, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	b := orphan.NewBuilder()
	kind := DetectKind(path)
	slog.Debug("loading corpus", "path", path, "kind", kind)

	switch kind {
	case KindSQLite:
		if err := ScanSQLite(ctx, path, b); err != nil {
			return nil, err
		}
	default:
		rc, err := Open(path)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		if err := b.Scan(rc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableCorpus, path, err)
		}
	}

	refs := b.Set()
	slog.Debug("corpus loaded", "path", path, "references", refs.Len())
	return refs, nil
}

// Open returns a stream over a text corpus, transparently decompressing
// gzip files. The caller must close it.
func Open(path string) (io.ReadCloser, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableCorpus, err)
	}
	if DetectKind(path) != KindGzip {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableCorpus, path, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.f.Close())
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrMissingCorpusFile, path)
	case err != nil:
		return fmt.Errorf("%w: %v", ErrUnreadableCorpus, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrUnreadableCorpus, path)
	}
	return nil
}
