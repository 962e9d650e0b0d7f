package encoder

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEncoder struct {
	format    string
	available bool
}

func (s stubEncoder) Format() string    { return s.format }
func (s stubEncoder) Extension() string { return s.format }
func (s stubEncoder) Available() bool   { return s.available }
func (s stubEncoder) Encode(context.Context, image.Image, Options) ([]byte, error) {
	return []byte(s.format), nil
}

func TestAVIFArgs(t *testing.T) {
	args := AVIFArgs(Options{Quality: 100, Speed: 6, Threads: 4}, "in.png", "out.avif")
	assert.Equal(t, []string{"--min", "0", "--max", "0", "--speed", "6", "--jobs", "4", "in.png", "out.avif"}, args)

	args = AVIFArgs(Options{}, "in.png", "out.avif")
	assert.Equal(t, []string{"--min", "26", "--max", "26", "--speed", "0", "--jobs", "all", "in.png", "out.avif"}, args)

	args = AVIFArgs(Options{Quality: 500, Speed: 42}, "a", "b")
	assert.Equal(t, "26", args[1])
	assert.Equal(t, "10", args[5])
}

func TestWebPArgs(t *testing.T) {
	args := WebPArgs(Options{Quality: 80, Speed: 10}, "in.png", "out.webp")
	assert.Equal(t, []string{"-q", "80", "-m", "0", "-quiet", "-mt", "in.png", "-o", "out.webp"}, args)

	args = WebPArgs(Options{Quality: 80, Speed: 0, Threads: 1}, "in.png", "out.webp")
	assert.Equal(t, []string{"-q", "80", "-m", "6", "-quiet", "in.png", "-o", "out.webp"}, args)
}

func TestRegistry(t *testing.T) {
	r := NewRegistryWith(
		stubEncoder{format: "avif", available: true},
		stubEncoder{format: "webp", available: false},
	)

	assert.Equal(t, []string{"avif"}, r.Available())
	assert.NotNil(t, r.Get("AVIF"))
	assert.Nil(t, r.Get("webp"))
	assert.Equal(t, "encoders: avif", r.String())

	_, err := r.Lookup("webp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no webp encoder")
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistryWith()
	assert.Equal(t, "no encoders available", r.String())
}
