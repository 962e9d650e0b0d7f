package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestManifestRoundtrip(t *testing.T) {
	m := New("wordpress", "avif")
	m.BuildInfo = &BuildInfo{Workers: 4, Quality: 60, Speed: 6, MaxDim: 2560}
	m.Entries = append(m.Entries,
		Entry{
			Source: "2024/01/hero.jpg", Output: "2024/01/hero.avif",
			SourceSize: 100000, OutputSize: 20000,
			Width: 4000, Height: 3000, OutWidth: 2560, OutHeight: 1920,
			Resized: true, Hash: "abcd1234abcd1234", Status: StatusConverted,
		},
		Entry{Source: "2024/01/tiny.png", Output: "2024/01/tiny.avif", SourceSize: 90, Status: StatusSkippedRegress},
		Entry{Source: "2024/01/old.jpg", Output: "2024/01/old.avif", SourceSize: 50, Status: StatusSkippedExists},
		Entry{Source: "2024/01/bad.gif", Output: "2024/01/bad.avif", SourceSize: 10, Status: StatusFailed, Error: "decode"},
	)

	dir := t.TempDir()
	path := filepath.Join(dir, Filename)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	m2, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if m2.Version != SupportedManifestVersion {
		t.Errorf("version: got %d, want %d", m2.Version, SupportedManifestVersion)
	}
	if m2.RunID == "" || m2.RunID != m.RunID {
		t.Errorf("run_id: got %q, want %q", m2.RunID, m.RunID)
	}
	if m2.BuildInfo == nil || m2.BuildInfo.MaxDim != 2560 {
		t.Fatal("build_info not preserved")
	}
	if len(m2.Entries) != 4 || !m2.Entries[0].Resized {
		t.Fatalf("entries not preserved: %+v", m2.Entries)
	}

	s := m2.Stats
	if s.TotalSources != 4 || s.Converted != 1 || s.SkippedRegress != 1 || s.SkippedExists != 1 || s.Failed != 1 {
		t.Errorf("status counts wrong: %+v", s)
	}
	if s.TotalInputBytes != 100000 || s.TotalOutputBytes != 20000 {
		t.Errorf("byte totals should only cover converted entries: %+v", s)
	}
	if s.Resized != 1 {
		t.Errorf("resized: got %d", s.Resized)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the manifest in %s, found %d entries", dir, len(entries))
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"version": 1,
		"run_id": "x",
		"generated_at": "2025-01-01T00:00:00Z",
		"profile": "wordpress",
		"format": "avif",
		"future_field": "should be ignored",
		"build_info": { "workers": 8, "new_flag": true },
		"entries": [],
		"stats": { "total_sources": 0, "new_stat": 42 }
	}`

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if m.BuildInfo == nil || m.BuildInfo.Workers != 8 {
		t.Error("build_info not parsed correctly")
	}
}

func TestReadJSON_Missing(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), Filename)); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
