// Package fsutil writes files so readers never observe partial content.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	var b Batch
	b.Add(path, data, perm)
	return b.Commit()
}

type pending struct {
	path string
	data []byte
	perm os.FileMode
}

// Batch stages several files and publishes them together. Every file is
// fully written to a temp sibling before the first rename, so a write
// failure leaves all destinations untouched.
type Batch struct {
	files []pending
}

// Add queues data for path.
func (b *Batch) Add(path string, data []byte, perm os.FileMode) {
	b.files = append(b.files, pending{path: path, data: data, perm: perm})
}

// Len is the number of queued files.
func (b *Batch) Len() int { return len(b.files) }

// Commit writes all queued files. Temp files are removed on every exit
// path.
func (b *Batch) Commit() error {
	tmps := make([]string, 0, len(b.files))
	defer func() {
		for _, t := range tmps {
			os.Remove(t)
		}
	}()

	for _, f := range b.files {
		tmp, err := stage(f)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		tmps = append(tmps, tmp)
	}

	var errs []error
	for i, f := range b.files {
		if err := os.Rename(tmps[i], f.path); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", f.path, err))
		}
	}
	return errors.Join(errs...)
}

func stage(f pending) (string, error) {
	info, err := os.Stat(f.path)
	if err == nil && info.IsDir() {
		return "", errors.New("is a directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	if _, err := tmp.Write(f.data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Chmod(f.perm); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
