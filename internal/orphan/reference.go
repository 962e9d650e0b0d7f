package orphan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// referencePattern finds filenames embedded in raw corpus text. A match
// starts right after the nearest quote or slash and ends with a known image
// extension that is followed by a non-alphanumeric byte or end of line.
// Group 1 is the filename itself.
//
// This is a heuristic over unstructured text: names inside escaped or
// serialized content can be over- or under-matched. A missed reference
// leaves the original in the purge list, which is the accepted failure mode.
var referencePattern = regexp.MustCompile(`(?i)([^"'/\n]+\.(?:jpe?g|png|gif|webp|svg))(?:[^a-z0-9]|$)`)

// ReferenceSet is an immutable, case-insensitive set of bare filenames.
// The zero value is an empty set.
type ReferenceSet struct {
	names map[string]struct{}
}

// Contains reports whether name (a bare filename) is referenced.
func (s *ReferenceSet) Contains(name string) bool {
	if s == nil || s.names == nil {
		return false
	}
	_, ok := s.names[normalize(name)]
	return ok
}

// Len returns the number of distinct names in the set.
func (s *ReferenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Builder accumulates references from one or more corpus streams.
// It is not safe for concurrent use; call Set once all input is consumed.
type Builder struct {
	names map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// Add inserts a single filename.
func (b *Builder) Add(name string) {
	if name == "" {
		return
	}
	b.names[normalize(name)] = struct{}{}
}

// AddText extracts every filename reference from a chunk of text.
// Lines are not joined: a newline always ends a candidate match.
func (b *Builder) AddText(text []byte) {
	for len(text) > 0 {
		line := text
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = nil
		}
		for _, m := range referencePattern.FindAllSubmatchIndex(line, -1) {
			b.Add(string(line[m[2]:m[3]]))
		}
	}
}

// Scan reads r line by line and extracts references from every line.
// Arbitrarily long lines (single-row SQL INSERTs) are supported.
func (b *Builder) Scan(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1<<20)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// Overlong line: accumulate it in full before matching.
			buf := append([]byte(nil), line...)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = br.ReadSlice('\n')
				buf = append(buf, line...)
			}
			line = buf
		}
		if len(line) > 0 {
			b.AddText(line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}
	}
}

// Set freezes the accumulated names. The builder must not be used
// afterwards.
func (b *Builder) Set() *ReferenceSet {
	s := &ReferenceSet{names: b.names}
	b.names = nil
	return s
}

// Extract builds a ReferenceSet from a complete corpus stream.
func Extract(r io.Reader) (*ReferenceSet, error) {
	b := NewBuilder()
	if err := b.Scan(r); err != nil {
		return nil, err
	}
	return b.Set(), nil
}

// normalize folds a filename for case-insensitive comparison. Invalid
// UTF-8 is folded byte-wise so distinct binary names stay distinct.
func normalize(name string) string {
	if utf8.ValidString(name) {
		return strings.ToLower(name)
	}
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
