// Package purge deletes files named in a purge list. Deletion is always
// gated behind an explicit confirmation supplied by the caller.
package purge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotConfirmed is returned when the user declines a destructive action.
var ErrNotConfirmed = errors.New("deletion not confirmed")

// Result counts the outcome of a Remove call.
type Result struct {
	Removed int
	Missing int
	Failed  int
	// Bytes is the total size of removed files.
	Bytes int64
}

// Confirm writes prompt to out and reads one line from in. Only "y" or
// "yes" (any case) confirm; anything else, including EOF, declines.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Remove deletes each relative path under root. Paths that no longer
// exist are skipped with a warning. Paths that resolve outside root, and
// directories, are refused. All other failures are collected and
// returned together after every path has been attempted.
func Remove(root string, paths []string) (Result, error) {
	var res Result
	var errs []error

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return res, fmt.Errorf("resolve root: %w", err)
	}

	for _, rel := range paths {
		target, err := resolve(absRoot, rel)
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}

		info, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("already gone, skipping", "path", rel)
			res.Missing++
			continue
		}
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("stat %s: %w", rel, err))
			continue
		}
		if info.IsDir() {
			res.Failed++
			errs = append(errs, fmt.Errorf("refusing to remove directory %s", rel))
			continue
		}

		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("already gone, skipping", "path", rel)
				res.Missing++
				continue
			}
			res.Failed++
			errs = append(errs, fmt.Errorf("remove %s: %w", rel, err))
			continue
		}
		slog.Debug("removed", "path", rel, "bytes", info.Size())
		res.Removed++
		res.Bytes += info.Size()
	}
	return res, errors.Join(errs...)
}

// resolve joins rel onto root and rejects results that escape root.
func resolve(absRoot, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid path %q: must be relative to the uploads root", rel)
	}
	target := filepath.Join(absRoot, filepath.FromSlash(rel))
	r, err := filepath.Rel(absRoot, target)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path %q: outside the uploads root", rel)
	}
	return target, nil
}

// ReadList reads a purge list: one relative path per line. Blank and
// whitespace-only lines are ignored; every other line is a path, verbatim
// apart from a trailing carriage return.
func ReadList(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read purge list: %w", err)
	}
	return paths, nil
}

// ErrUnlistablePath is returned by WriteList for a path that cannot be
// represented on a single line.
var ErrUnlistablePath = errors.New("path contains a line break")

// WriteList writes paths one per line. Nothing is written if any path
// contains a line break.
func WriteList(w io.Writer, paths []string) error {
	for _, p := range paths {
		if strings.ContainsAny(p, "\r\n") {
			return fmt.Errorf("%w: %q", ErrUnlistablePath, p)
		}
	}
	bw := bufio.NewWriter(w)
	for _, p := range paths {
		if _, err := bw.WriteString(p + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
