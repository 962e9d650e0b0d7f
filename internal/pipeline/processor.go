package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AnyUserName/wpimg-cli/internal/fsutil"
	"github.com/AnyUserName/wpimg-cli/internal/hasher"
	"github.com/AnyUserName/wpimg-cli/internal/manifest"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// process converts a single source image: decode, bound, encode, write.
// Failures are recorded on the entry rather than aborting the run.
func (p *Pipeline) process(ctx context.Context, job Job) manifest.Entry {
	src := job.Source
	entry := manifest.Entry{
		Source:     src.RelPath,
		Output:     job.Output,
		SourceSize: src.Size,
		Status:     job.Skip,
		Error:      job.Reason,
	}
	if job.Skip != "" {
		if job.Skip == manifest.StatusFailed {
			slog.Warn("skipping source", "source", src.RelPath, "reason", job.Reason)
		}
		return entry
	}

	fail := func(err error) manifest.Entry {
		slog.Warn("conversion failed", "source", src.RelPath, "error", err)
		entry.Status = manifest.StatusFailed
		entry.Error = err.Error()
		return entry
	}

	img, err := decode(src.AbsPath)
	if err != nil {
		return fail(err)
	}

	bounds := img.Bounds()
	entry.Width, entry.Height = bounds.Dx(), bounds.Dy()
	if w, h, ok := p.cfg.Profile.Bound(entry.Width, entry.Height); ok {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
		entry.Resized = true
	}
	entry.OutWidth, entry.OutHeight = img.Bounds().Dx(), img.Bounds().Dy()

	data, err := p.cfg.Encoder.Encode(ctx, img, p.cfg.Profile.EncodeOptions())
	if err != nil {
		return fail(fmt.Errorf("encode %s: %w", src.RelPath, err))
	}

	if p.cfg.NoRegressSize && int64(len(data)) >= src.Size {
		slog.Debug("skip: encoded not smaller than source", "source", src.RelPath,
			"encoded", len(data), "original", src.Size)
		entry.Status = manifest.StatusSkippedRegress
		return entry
	}

	outPath := filepath.Join(p.cfg.OutputDir, filepath.FromSlash(job.Output))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fail(fmt.Errorf("create output dir: %w", err))
	}
	if err := fsutil.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return fail(fmt.Errorf("write %s: %w", job.Output, err))
	}

	entry.Status = manifest.StatusConverted
	entry.OutputSize = int64(len(data))
	entry.Hash = hasher.Sum(data)
	slog.Debug("converted", "source", src.RelPath, "output", job.Output,
		"bytes", entry.OutputSize, "resized", entry.Resized)
	return entry
}

// decode opens and decodes an image. Animated GIFs yield their first frame.
func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
