package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/AnyUserName/wpimg-cli/internal/encoder"
	"github.com/AnyUserName/wpimg-cli/internal/hasher"
	"github.com/AnyUserName/wpimg-cli/internal/manifest"
	"github.com/AnyUserName/wpimg-cli/internal/profile"
	"github.com/AnyUserName/wpimg-cli/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder returns a fixed payload and counts calls.
type fakeEncoder struct {
	payload []byte
	format  string // "avif" when empty
	calls   atomic.Int64
}

func (f *fakeEncoder) Format() string {
	if f.format == "" {
		return "avif"
	}
	return f.format
}
func (f *fakeEncoder) Extension() string { return f.Format() }
func (f *fakeEncoder) Available() bool   { return true }
func (f *fakeEncoder) Encode(context.Context, image.Image, encoder.Options) ([]byte, error) {
	f.calls.Add(1)
	return f.payload, nil
}

func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
}

func newTestPipeline(in, out string, enc encoder.Encoder, maxDim int) *Pipeline {
	prof := profile.Get("wordpress")
	prof.MaxDim = maxDim
	return New(Config{
		InputDir:      in,
		OutputDir:     out,
		Profile:       prof,
		Encoder:       enc,
		Workers:       2,
		NoRegressSize: true,
	})
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "2024/01/photo.avif", OutputName("2024/01/photo.jpg", "avif"))
	assert.Equal(t, "a.b.webp", OutputName("a.b.PNG", "webp"))
}

func TestRun_ConvertsAndResizes(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "2024/01/big.png", 64, 32)
	writePNG(t, in, "small.png", 16, 16)

	enc := &fakeEncoder{payload: []byte("AVIF")}
	m, err := newTestPipeline(in, "", enc, 32).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, m.Entries, 2)
	big := m.Entries[0]
	assert.Equal(t, "2024/01/big.png", big.Source)
	assert.Equal(t, "2024/01/big.avif", big.Output)
	assert.Equal(t, manifest.StatusConverted, big.Status)
	assert.True(t, big.Resized)
	assert.Equal(t, 64, big.Width)
	assert.Equal(t, 32, big.OutWidth)
	assert.Equal(t, 16, big.OutHeight)
	assert.Equal(t, hasher.Sum([]byte("AVIF")), big.Hash)

	small := m.Entries[1]
	assert.False(t, small.Resized)
	assert.Equal(t, 16, small.OutWidth)

	data, err := os.ReadFile(filepath.Join(in, "2024", "01", "big.avif"))
	require.NoError(t, err)
	assert.Equal(t, []byte("AVIF"), data)

	assert.Equal(t, 2, m.Stats.Converted)
	assert.Equal(t, 1, m.Stats.Resized)
	assert.EqualValues(t, 8, m.Stats.TotalOutputBytes)
}

func TestRun_SeparateOutputDir(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, in, "a/b.png", 8, 8)

	_, err := newTestPipeline(in, out, &fakeEncoder{payload: []byte("x")}, 0).Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "a", "b.avif"))
	assert.NoFileExists(t, filepath.Join(in, "a", "b.avif"))
}

func TestRun_SkipsExistingUnlessForced(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.avif"), []byte("old"), 0o644))

	enc := &fakeEncoder{payload: []byte("new")}
	p := newTestPipeline(in, "", enc, 0)
	m, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest.StatusSkippedExists, m.Entries[0].Status)
	assert.EqualValues(t, 0, enc.calls.Load())

	p.cfg.Force = true
	m, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest.StatusConverted, m.Entries[0].Status)
	data, _ := os.ReadFile(filepath.Join(in, "a.avif"))
	assert.Equal(t, []byte("new"), data)
}

func TestRun_RegressSkipped(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 4, 4)

	enc := &fakeEncoder{payload: bytes.Repeat([]byte{1}, 1<<16)}
	m, err := newTestPipeline(in, "", enc, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest.StatusSkippedRegress, m.Entries[0].Status)
	assert.NoFileExists(t, filepath.Join(in, "a.avif"))
	assert.Equal(t, 1, m.Stats.SkippedRegress)
}

func TestPlan_Collision(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.jpg"), []byte("jpeg"), 0o644))

	p := newTestPipeline(in, "", &fakeEncoder{}, 0)
	files, err := p.Scan()
	require.NoError(t, err)

	jobs := p.Plan(files)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a.jpg", jobs[0].Source.RelPath)
	assert.Empty(t, jobs[0].Skip)
	assert.Equal(t, "a.png", jobs[1].Source.RelPath)
	assert.Equal(t, manifest.StatusFailed, jobs[1].Skip)
	assert.Contains(t, jobs[1].Reason, "already claimed by a.jpg")
}

func TestPlan_SameFormatOriginalIsNeverOverwritten(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.webp"), []byte("original"), 0o644))
	writePNG(t, in, "B.png", 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.webp"), []byte("original"), 0o644))
	writePNG(t, in, "c.png", 4, 4)

	enc := &fakeEncoder{payload: []byte("x"), format: "webp"}
	p := New(Config{InputDir: in, Profile: profile.Get("webp"), Encoder: enc, Workers: 1, Force: true})
	files, err := p.Scan()
	require.NoError(t, err)

	jobs := p.Plan(files)
	require.Len(t, jobs, 3)
	assert.Equal(t, "B.png", jobs[0].Source.RelPath)
	assert.Equal(t, manifest.StatusFailed, jobs[0].Skip)
	assert.Contains(t, jobs[0].Reason, "already claimed by b.webp")
	assert.Equal(t, manifest.StatusFailed, jobs[1].Skip)
	assert.Contains(t, jobs[1].Reason, "already claimed by a.webp")
	assert.Empty(t, jobs[2].Skip)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	for _, name := range []string{"a.webp", "b.webp"} {
		data, err := os.ReadFile(filepath.Join(in, name))
		require.NoError(t, err)
		assert.Equal(t, "original", string(data), name)
	}
	assert.EqualValues(t, 1, enc.calls.Load())
	assert.FileExists(t, filepath.Join(in, "c.webp"))
}

func TestTargets(t *testing.T) {
	files := []scanner.File{
		{RelPath: "a.jpg", Ext: "jpg"},
		{RelPath: "A.png", Ext: "png"},
		{RelPath: "b.gif", Ext: "gif"},
		{RelPath: "b.avif", Ext: "avif"},
	}
	got := Targets(files, "avif")
	require.Len(t, got, 3)
	assert.Equal(t, "a.avif", got[0].Output)
	assert.Empty(t, got[0].ClaimedBy)
	assert.Equal(t, "a.jpg", got[1].ClaimedBy)
	assert.Equal(t, "b.avif", got[2].ClaimedBy)
}

func TestRun_DecodeFailureIsRecorded(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.jpg"), []byte("not a jpeg"), 0o644))
	writePNG(t, in, "ok.png", 4, 4)

	m, err := newTestPipeline(in, "", &fakeEncoder{payload: []byte("x")}, 0).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, manifest.StatusFailed, m.Entries[0].Status)
	assert.Contains(t, m.Entries[0].Error, "decode")
	assert.Equal(t, manifest.StatusConverted, m.Entries[1].Status)
}

func TestRun_Empty(t *testing.T) {
	m, err := newTestPipeline(t.TempDir(), "", &fakeEncoder{}, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
	assert.Equal(t, 0, m.Stats.TotalSources)
}

func TestRun_Canceled(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := newTestPipeline(in, "", &fakeEncoder{payload: []byte("x")}, 0).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, m)
	assert.Empty(t, m.Entries)
}

func TestPlan_WithoutEncoderUsesProfileFormat(t *testing.T) {
	in := t.TempDir()
	writePNG(t, in, "a.png", 4, 4)

	require.NoError(t, os.WriteFile(filepath.Join(in, "b.webp"), []byte("riff"), 0o644))

	p := New(Config{InputDir: in, Profile: profile.Get("webp")})
	files, err := p.Scan()
	require.NoError(t, err)
	jobs := p.Plan(files)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a.webp", jobs[0].Output)

	_, err = p.Run(context.Background())
	assert.Error(t, err)
}
