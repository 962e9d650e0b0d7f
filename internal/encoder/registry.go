package encoder

import (
	"fmt"
	"strings"
)

// Registry holds the installed encoders keyed by format.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing the external encoders.
func NewRegistry() *Registry {
	return NewRegistryWith(NewAVIFEncoder(), NewWebPEncoder())
}

// NewRegistryWith registers the given encoders. Only available ones are
// kept.
func NewRegistryWith(all ...Encoder) *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// Lookup is Get with an error that names the missing format.
func (r *Registry) Lookup(format string) (Encoder, error) {
	if enc := r.Get(format); enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("no %s encoder available (%s)", format, r)
}

// Available returns all available format names in priority order.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range []string{"avif", "webp"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
