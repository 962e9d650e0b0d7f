package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/AnyUserName/wpimg-cli/internal/encoder"
	"github.com/AnyUserName/wpimg-cli/internal/manifest"
	"github.com/AnyUserName/wpimg-cli/internal/profile"
	"github.com/AnyUserName/wpimg-cli/internal/scanner"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Config holds all parameters for a conversion run.
type Config struct {
	InputDir      string
	OutputDir     string // defaults to InputDir (convert in place)
	Profile       profile.Profile
	Encoder       encoder.Encoder // may be nil when only planning
	Workers       int
	Force         bool // re-encode even when the output already exists
	NoRegressSize bool // skip outputs not smaller than the source
	Progress      io.Writer
}

// Job is one planned conversion.
type Job struct {
	Source scanner.File
	// Output is relative to the output root, slash-separated.
	Output string
	// Skip, when set, is the status recorded without encoding.
	Skip   manifest.Status
	Reason string
}

// Pipeline orchestrates image conversion.
type Pipeline struct {
	cfg Config
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	return &Pipeline{cfg: cfg}
}

// OutputName maps a source path to its converted path by replacing the
// extension: 2024/01/photo.jpg -> 2024/01/photo.avif.
func OutputName(rel, ext string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + "." + ext
}

// Scan lists the convertible sources under the input directory.
func (p *Pipeline) Scan() ([]scanner.File, error) {
	files, err := scanner.Scan(p.cfg.InputDir, scanner.ConvertExtensions)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return files, nil
}

// Target is a source's output mapping.
type Target struct {
	Source scanner.File
	Output string
	// ClaimedBy is the source that already owns Output, empty when this
	// source owns it.
	ClaimedBy string
}

// Targets maps sources to outputs with extension ext. Sources already in
// ext are not targets but reserve their own names first, so no output
// ever lands on an existing original. Names compare case-insensitively;
// the first source in walk order owns an output and later ones carry
// ClaimedBy.
func Targets(files []scanner.File, ext string) []Target {
	claimed := make(map[string]string, len(files))
	for _, f := range files {
		if f.Ext == ext {
			claimed[strings.ToLower(f.RelPath)] = f.RelPath
		}
	}

	targets := make([]Target, 0, len(files))
	for _, f := range files {
		if f.Ext == ext {
			continue
		}
		t := Target{Source: f, Output: OutputName(f.RelPath, ext)}
		key := strings.ToLower(t.Output)
		if owner, ok := claimed[key]; ok {
			t.ClaimedBy = owner
		} else {
			claimed[key] = f.RelPath
		}
		targets = append(targets, t)
	}
	return targets
}

// Plan maps sources to outputs. Sources already in the target format are
// dropped; a source whose output is claimed by another source is marked
// failed, and existing outputs are skipped unless Force is set.
func (p *Pipeline) Plan(files []scanner.File) []Job {
	targets := Targets(files, p.extension())
	jobs := make([]Job, 0, len(targets))

	for _, t := range targets {
		job := Job{Source: t.Source, Output: t.Output}
		switch {
		case t.ClaimedBy != "":
			job.Skip = manifest.StatusFailed
			job.Reason = fmt.Sprintf("output %s already claimed by %s", t.Output, t.ClaimedBy)
		case !p.cfg.Force && exists(filepath.Join(p.cfg.OutputDir, filepath.FromSlash(t.Output))):
			job.Skip = manifest.StatusSkippedExists
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// Run scans, plans and converts. Results keep the planned order. On
// cancellation the manifest covers the jobs that finished and the context
// error is returned alongside it.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	if p.cfg.Encoder == nil {
		return nil, errors.New("pipeline: no encoder configured")
	}
	slog.Debug("pipeline start", "input", p.cfg.InputDir, "output", p.cfg.OutputDir,
		"format", p.cfg.Encoder.Format(), "workers", p.cfg.Workers)

	files, err := p.Scan()
	if err != nil {
		return nil, err
	}
	jobs := p.Plan(files)
	slog.Debug("planned conversions", "sources", len(files), "jobs", len(jobs))

	m := manifest.New(p.cfg.Profile.Name, p.cfg.Encoder.Format())
	m.BuildInfo = &manifest.BuildInfo{
		Workers: p.cfg.Workers,
		Quality: p.cfg.Profile.Quality,
		Speed:   p.cfg.Profile.Speed,
		Threads: p.cfg.Profile.Threads,
		MaxDim:  p.cfg.Profile.MaxDim,
	}
	if len(jobs) == 0 {
		m.ComputeStats()
		return m, nil
	}

	bar := p.newProgressBar(len(jobs))
	results := make([]manifest.Entry, len(jobs))
	done := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, job := i, job
		g.Go(func() error {
			results[i] = p.process(gctx, job)
			done[i] = true
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	if bar != nil {
		bar.Finish()
	}

	for i, e := range results {
		if done[i] {
			m.Entries = append(m.Entries, e)
		}
	}
	m.ComputeStats()

	if err := ctx.Err(); err != nil {
		return m, fmt.Errorf("conversion interrupted: %w", err)
	}
	return m, nil
}

func (p *Pipeline) newProgressBar(n int) *progressbar.ProgressBar {
	if p.cfg.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.cfg.Progress),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.cfg.Progress) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// extension is the output extension: the encoder's when one is set,
// otherwise the profile format.
func (p *Pipeline) extension() string {
	if p.cfg.Encoder != nil {
		return p.cfg.Encoder.Extension()
	}
	return p.cfg.Profile.Format
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
