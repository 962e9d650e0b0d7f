package encoder

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// binary locates an external encoder once per process.
type binary struct {
	name string
	once sync.Once
	path string
}

func (b *binary) lookup() (string, bool) {
	b.once.Do(func() {
		if p, err := exec.LookPath(b.name); err == nil {
			b.path = p
		}
	})
	return b.path, b.path != ""
}

// runExternal writes img as a lossless PNG to a temp file, runs the
// encoder with args built from the source and destination paths, and
// returns the encoded bytes. Both temp files are removed on every path.
func runExternal(ctx context.Context, bin, ext string, img image.Image, args func(src, dst string) []string) ([]byte, error) {
	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("wpimg_src_%d_*.png", id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	dstFile, err := os.CreateTemp("", fmt.Sprintf("wpimg_dst_%d_*.%s", id, ext))
	if err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, args(srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", bin, err, string(out))
	}
	return os.ReadFile(dstPath)
}

// AVIFEncoder encodes images to AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	bin binary
}

// NewAVIFEncoder returns an encoder that runs avifenc from PATH.
func NewAVIFEncoder() *AVIFEncoder {
	return &AVIFEncoder{bin: binary{name: "avifenc"}}
}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }

func (e *AVIFEncoder) Available() bool {
	_, ok := e.bin.lookup()
	return ok
}

func (e *AVIFEncoder) Encode(ctx context.Context, img image.Image, opts Options) ([]byte, error) {
	path, ok := e.bin.lookup()
	if !ok {
		return nil, fmt.Errorf("avifenc not found in PATH; install with: apt install libavif-bin")
	}
	return runExternal(ctx, path, e.Extension(), img, func(src, dst string) []string {
		return AVIFArgs(opts, src, dst)
	})
}

// AVIFArgs builds the avifenc command line. avifenc quantizers run 0-63
// with lower meaning better, so quality 1-100 is mapped onto that range.
func AVIFArgs(opts Options, src, dst string) []string {
	q := strconv.Itoa(63 - (opts.quality() * 63 / 100))
	jobs := "all"
	if opts.Threads > 0 {
		jobs = strconv.Itoa(opts.Threads)
	}
	return []string{
		"--min", q,
		"--max", q,
		"--speed", strconv.Itoa(opts.speed()),
		"--jobs", jobs,
		src,
		dst,
	}
}

// WebPEncoder encodes images to WebP by shelling out to cwebp.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	bin binary
}

// NewWebPEncoder returns an encoder that runs cwebp from PATH.
func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{bin: binary{name: "cwebp"}}
}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }

func (e *WebPEncoder) Available() bool {
	_, ok := e.bin.lookup()
	return ok
}

func (e *WebPEncoder) Encode(ctx context.Context, img image.Image, opts Options) ([]byte, error) {
	path, ok := e.bin.lookup()
	if !ok {
		return nil, fmt.Errorf("cwebp not found in PATH; install with: apt install webp")
	}
	return runExternal(ctx, path, e.Extension(), img, func(src, dst string) []string {
		return WebPArgs(opts, src, dst)
	})
}

// WebPArgs builds the cwebp command line. cwebp's -m method runs 0-6 with
// 6 being slowest, so speed 0-10 is inverted onto it.
func WebPArgs(opts Options, src, dst string) []string {
	method := 6 - opts.speed()*6/10
	args := []string{
		"-q", strconv.Itoa(opts.quality()),
		"-m", strconv.Itoa(method),
		"-quiet",
	}
	if opts.Threads != 1 {
		args = append(args, "-mt")
	}
	return append(args, src, "-o", dst)
}
