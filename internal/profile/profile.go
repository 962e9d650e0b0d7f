package profile

import (
	"sort"

	"github.com/AnyUserName/wpimg-cli/internal/encoder"
)

// Profile defines conversion parameters for a class of sites.
type Profile struct {
	Name    string
	Format  string // output format: "avif" or "webp"
	Quality int    // encoding quality 1-100
	Speed   int    // encoder speed 0-10
	Threads int    // encoder threads per image, 0 = all
	MaxDim  int    // longest edge bound in px, 0 = never resize
}

// DefaultName is used when no profile is requested.
const DefaultName = "wordpress"

// Built-in profiles. 2560 matches WordPress' big image threshold.
var profiles = map[string]Profile{
	"wordpress": {
		Name:    "wordpress",
		Format:  "avif",
		Quality: 60,
		Speed:   6,
		MaxDim:  2560,
	},
	"archive": {
		Name:    "archive",
		Format:  "avif",
		Quality: 80,
		Speed:   4,
		MaxDim:  0,
	},
	"fast": {
		Name:    "fast",
		Format:  "avif",
		Quality: 55,
		Speed:   9,
		MaxDim:  1920,
	},
	"webp": {
		Name:    "webp",
		Format:  "webp",
		Quality: 80,
		Speed:   4,
		MaxDim:  2560,
	},
}

// Get returns a profile by name. Falls back to wordpress if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Names lists the built-in profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EncodeOptions returns the encoder options for this profile.
func (p Profile) EncodeOptions() encoder.Options {
	return encoder.Options{Quality: p.Quality, Speed: p.Speed, Threads: p.Threads}
}

// Bound returns the target size for a w×h image so that neither edge
// exceeds MaxDim, preserving aspect ratio. Images are never upscaled; ok
// is false when no resize is needed.
func (p Profile) Bound(w, h int) (nw, nh int, ok bool) {
	if p.MaxDim <= 0 || (w <= p.MaxDim && h <= p.MaxDim) || w <= 0 || h <= 0 {
		return w, h, false
	}
	if w >= h {
		nw = p.MaxDim
		nh = int(float64(h) * float64(p.MaxDim) / float64(w))
	} else {
		nh = p.MaxDim
		nw = int(float64(w) * float64(p.MaxDim) / float64(h))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh, true
}
