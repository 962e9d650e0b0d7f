// Package report summarizes how much space converted images save compared
// with the originals they were produced from.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/wpimg-cli/internal/orphan"
	"github.com/AnyUserName/wpimg-cli/internal/pipeline"
	"github.com/AnyUserName/wpimg-cli/internal/scanner"
)

// DefaultPercentiles are reported when none are requested.
var DefaultPercentiles = []int{10, 25, 50, 75, 90}

// Pair is an original and its converted counterpart.
type Pair struct {
	Original      string  `json:"original"`
	Converted     string  `json:"converted"`
	OriginalSize  int64   `json:"original_size"`
	ConvertedSize int64   `json:"converted_size"`
	Savings       float64 `json:"savings_percent"`
}

// Percentile is the savings value at rank P of the sorted pairs.
type Percentile struct {
	P       int     `json:"p"`
	Savings float64 `json:"savings_percent"`
}

// Report aggregates a directory's conversion results.
type Report struct {
	Format              string       `json:"format"`
	Pairs               []Pair       `json:"pairs"`
	Unconverted         []string     `json:"unconverted"`
	TotalOriginalBytes  int64        `json:"total_original_bytes"`
	TotalConvertedBytes int64        `json:"total_converted_bytes"`
	SavingsPercent      string       `json:"savings_percent"`
	ConvertedPercent    string       `json:"converted_percent"`
	Percentiles         []Percentile `json:"percentiles"`
}

// Options select where converted files live and which percentiles to
// compute.
type Options struct {
	// Format is the converted extension, e.g. "avif".
	Format string
	// ConvertedDir holds the converted tree; defaults to the uploads root.
	ConvertedDir string
	Percentiles  []int
}

// Build pairs every convertible original under root with its converted
// file and computes totals and percentiles. Output names are assigned as
// the conversion pipeline assigns them, so an original whose output name
// belongs to another source is reported unconverted. An empty tree yields a zero
// report.
func Build(root string, opts Options) (*Report, error) {
	if opts.ConvertedDir == "" {
		opts.ConvertedDir = root
	}
	if opts.Percentiles == nil {
		opts.Percentiles = DefaultPercentiles
	}

	files, err := scanner.Scan(root, scanner.ConvertExtensions)
	if err != nil {
		return nil, err
	}

	r := &Report{Format: opts.Format, Pairs: []Pair{}, Unconverted: []string{}}
	for _, t := range pipeline.Targets(files, opts.Format) {
		// A claimed output was converted from another source.
		if t.ClaimedBy != "" {
			r.Unconverted = append(r.Unconverted, t.Source.RelPath)
			continue
		}
		info, err := os.Stat(filepath.Join(opts.ConvertedDir, filepath.FromSlash(t.Output)))
		if errors.Is(err, fs.ErrNotExist) {
			r.Unconverted = append(r.Unconverted, t.Source.RelPath)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", t.Output, err)
		}
		r.Pairs = append(r.Pairs, Pair{
			Original:      t.Source.RelPath,
			Converted:     t.Output,
			OriginalSize:  t.Source.Size,
			ConvertedSize: info.Size(),
			Savings:       Savings(t.Source.Size, info.Size()),
		})
	}

	r.summarize(opts.Percentiles)
	return r, nil
}

func (r *Report) summarize(ps []int) {
	savings := make([]float64, len(r.Pairs))
	for i, p := range r.Pairs {
		r.TotalOriginalBytes += p.OriginalSize
		r.TotalConvertedBytes += p.ConvertedSize
		savings[i] = p.Savings
	}
	sort.Float64s(savings)

	r.SavingsPercent = fmt.Sprintf("%.2f", Savings(r.TotalOriginalBytes, r.TotalConvertedBytes))
	r.ConvertedPercent = orphan.Percent(len(r.Pairs), len(r.Pairs)+len(r.Unconverted))

	r.Percentiles = []Percentile{}
	if len(savings) == 0 {
		return
	}
	for _, p := range ps {
		r.Percentiles = append(r.Percentiles, Percentile{P: p, Savings: NearestRank(savings, p)})
	}
}

// Originals returns the original paths of every pair.
func (r *Report) Originals() []string {
	out := make([]string, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = p.Original
	}
	return out
}

// Savings is the percentage of original bytes saved by the converted
// size. A zero original saves nothing; a larger output is negative.
func Savings(original, converted int64) float64 {
	if original <= 0 {
		return 0
	}
	return (1 - float64(converted)/float64(original)) * 100
}

// NearestRank returns the p-th percentile of sorted (ascending) using the
// nearest-rank method. sorted must be non-empty.
func NearestRank(sorted []float64, p int) float64 {
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(float64(p) / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
