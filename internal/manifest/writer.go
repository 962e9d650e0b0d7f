package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AnyUserName/wpimg-cli/internal/fsutil"
	"github.com/google/uuid"
)

// New creates an empty manifest with a fresh run id.
func New(profileName, format string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		Format:      format,
		Entries:     []Entry{},
	}
}

// ComputeStats recalculates aggregate statistics from entries. Byte
// totals only cover converted entries so the ratio compares like with like.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalSources = len(m.Entries)
	for _, e := range m.Entries {
		switch e.Status {
		case StatusConverted:
			s.Converted++
			s.TotalInputBytes += e.SourceSize
			s.TotalOutputBytes += e.OutputSize
			if e.Resized {
				s.Resized++
			}
		case StatusSkippedExists:
			s.SkippedExists++
		case StatusSkippedRegress:
			s.SkippedRegress++
		case StatusFailed:
			s.Failed++
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to path, replacing any previous file
// atomically.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// ReadJSON loads a manifest from path.
func ReadJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
