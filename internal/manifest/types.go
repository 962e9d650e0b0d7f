package manifest

// Manifest is the record of one conversion run.
type Manifest struct {
	Version     int        `json:"version"`
	RunID       string     `json:"run_id"`
	GeneratedAt string     `json:"generated_at"`
	Profile     string     `json:"profile"`
	Format      string     `json:"format"`
	BuildInfo   *BuildInfo `json:"build_info,omitempty"`
	Entries     []Entry    `json:"entries"`
	Stats       Stats      `json:"stats"`
}

// BuildInfo captures run-time parameters for diagnostics.
type BuildInfo struct {
	Workers int `json:"workers"`
	Quality int `json:"quality"`
	Speed   int `json:"speed"`
	Threads int `json:"threads"`
	MaxDim  int `json:"max_dim"`
}

// Status of a single conversion.
type Status string

const (
	StatusConverted      Status = "converted"
	StatusSkippedExists  Status = "skipped-exists"
	StatusSkippedRegress Status = "skipped-regress"
	StatusFailed         Status = "failed"
)

// Entry describes one source image and its converted output.
type Entry struct {
	Source     string `json:"source"`           // relative to the uploads root
	Output     string `json:"output"`           // relative to the output root
	SourceSize int64  `json:"source_size"`
	OutputSize int64  `json:"output_size,omitempty"`
	Width      int    `json:"width,omitempty"`  // source dimensions
	Height     int    `json:"height,omitempty"`
	OutWidth   int    `json:"out_width,omitempty"`
	OutHeight  int    `json:"out_height,omitempty"`
	Resized    bool   `json:"resized,omitempty"`
	Hash       string `json:"hash,omitempty"`   // xxhash64 of the output bytes
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Stats aggregates run metrics over converted entries.
type Stats struct {
	TotalSources     int   `json:"total_sources"`
	Converted        int   `json:"converted"`
	SkippedExists    int   `json:"skipped_exists"`
	SkippedRegress   int   `json:"skipped_regress"`
	Failed           int   `json:"failed"`
	Resized          int   `json:"resized"`
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// Filename is the manifest's name inside the output root.
const Filename = "wpimg.convert.json"
