package encoder

import (
	"context"
	"image"
)

// Options control a single encode.
type Options struct {
	// Quality is 1-100, higher is better. 0 selects the encoder default.
	Quality int
	// Speed is 0 (slowest, smallest) to 10 (fastest).
	Speed int
	// Threads caps encoder threads; 0 lets the encoder use all cores.
	Threads int
}

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name ("avif", "webp").
	Format() string

	// Encode converts the image to bytes.
	Encode(ctx context.Context, img image.Image, opts Options) ([]byte, error)

	// Available returns true if the encoder binary is installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

const defaultQuality = 60

func (o Options) quality() int {
	if o.Quality <= 0 || o.Quality > 100 {
		return defaultQuality
	}
	return o.Quality
}

func (o Options) speed() int {
	switch {
	case o.Speed < 0:
		return 0
	case o.Speed > 10:
		return 10
	}
	return o.Speed
}
