// Package scanner enumerates image files under a WordPress uploads root.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingInputDirectory is returned when the uploads root is absent.
var ErrMissingInputDirectory = errors.New("uploads directory not found")

// PurgeExtensions are the extensions considered by orphan detection.
var PurgeExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}

// ConvertExtensions are the raster formats the conversion pipeline decodes.
var ConvertExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "tif", "tiff"}

// File is one image discovered under the root.
type File struct {
	// AbsPath is the path on disk.
	AbsPath string
	// RelPath is relative to the root, slash-separated.
	RelPath string
	// Ext is the lower-case extension without the dot.
	Ext  string
	Size int64
}

// Scan walks root and returns every regular file whose extension is in
// exts (case-insensitive), in lexical walk order. Hidden directories are
// skipped, as are paths containing line breaks. Any walk error aborts the scan.
func Scan(root string, exts []string) ([]File, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInputDirectory, root)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingInputDirectory, root)
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := Ext(path)
		if !allowed[ext] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if strings.ContainsAny(rel, "\r\n") {
			slog.Warn("skipping file with a line break in its path", "path", rel)
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, File{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			Ext:     ext,
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// RelPaths returns the RelPath of every file, preserving order.
func RelPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

// Ext returns the lower-case extension of path without the dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
