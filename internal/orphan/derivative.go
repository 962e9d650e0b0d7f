// Package orphan decides which files in a WordPress uploads directory are
// safe to purge: generated derivatives (thumbnails, -scaled copies) and
// originals that no longer appear anywhere in a reference corpus.
package orphan

import (
	"path"
	"regexp"
	"strings"
)

// derivativePattern matches WordPress-generated size variants
// (photo-150x150.jpg) and big-image-threshold copies (photo-scaled.jpg).
// RE2 guarantees linear time in the filename length.
var derivativePattern = regexp.MustCompile(`-[0-9]+x[0-9]+\.|-scaled\.`)

// IsDerivative reports whether a base filename looks like a generated
// derivative. The match is case-sensitive on "x" and "-scaled.".
func IsDerivative(name string) bool {
	return derivativePattern.MatchString(name)
}

// BaseName returns the path component after the last separator.
// Both slash and backslash count as separators so listings produced
// on Windows classify the same way.
func BaseName(p string) string {
	if i := strings.LastIndexByte(p, '\\'); i >= 0 {
		p = p[i+1:]
	}
	return path.Base(p)
}
