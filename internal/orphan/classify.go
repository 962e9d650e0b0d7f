package orphan

import "errors"

// ErrEmptyImageSet signals that the disk listing contained no images.
// It is not a failure: callers report it and finish with a zero summary.
var ErrEmptyImageSet = errors.New("no images found")

// Class is the classification of one image path.
type Class int

const (
	Derivative Class = iota
	OriginalReferenced
	OriginalUnreferenced
)

func (c Class) String() string {
	switch c {
	case Derivative:
		return "DERIVATIVE"
	case OriginalReferenced:
		return "ORIGINAL_REFERENCED"
	case OriginalUnreferenced:
		return "ORIGINAL_UNREFERENCED"
	default:
		return "UNKNOWN"
	}
}

// Purgeable reports whether paths of this class belong to the purge set.
func (c Class) Purgeable() bool {
	return c != OriginalReferenced
}

// Classify returns the class of a single path. It is a pure function of
// the base filename and refs, so it may be called concurrently once refs
// is built.
func Classify(p string, refs *ReferenceSet) Class {
	name := BaseName(p)
	if IsDerivative(name) {
		return Derivative
	}
	if refs.Contains(name) {
		return OriginalReferenced
	}
	return OriginalUnreferenced
}

// Result is the outcome of partitioning a disk listing.
type Result struct {
	// Purge lists derivatives first, then unreferenced originals, each
	// group in disk-listing order.
	Purge []string
	// Keep lists referenced originals in disk-listing order.
	Keep []string
	// Classes holds the class of every input path, index-aligned with it.
	Classes []Class
	Summary Summary
}

// Empty reports whether the listing contained no images at all.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0
}

// Partition classifies every path of the listing against refs. Duplicate
// paths are classified independently and appear once per occurrence.
func Partition(paths []string, refs *ReferenceSet) *Result {
	res := &Result{Classes: make([]Class, len(paths))}

	var unreferenced []string
	for i, p := range paths {
		c := Classify(p, refs)
		res.Classes[i] = c
		switch c {
		case Derivative:
			res.Purge = append(res.Purge, p)
		case OriginalUnreferenced:
			unreferenced = append(unreferenced, p)
		default:
			res.Keep = append(res.Keep, p)
		}
	}
	res.Purge = append(res.Purge, unreferenced...)
	res.Summary = NewSummary(len(paths), len(res.Purge))
	return res
}
