package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/wpimg-cli/internal/encoder"
	"github.com/AnyUserName/wpimg-cli/internal/manifest"
	"github.com/AnyUserName/wpimg-cli/internal/pipeline"
	"github.com/AnyUserName/wpimg-cli/internal/profile"
	"github.com/spf13/cobra"
)

var (
	convertOutDir    string
	convertProfile   string
	convertFormat    string
	convertQuality   int
	convertSpeed     int
	convertThreads   int
	convertMaxDim    int
	convertWorkers   int
	convertForce     bool
	convertNoRegress bool
	convertDryRun    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [uploads_dir]",
	Short: "Convert images to AVIF (or WebP), resizing oversized originals",
	Long: `Scans the uploads directory for images (jpg, jpeg, png, gif, webp, bmp,
tif, tiff) and encodes each one next to the original, or under --out,
keeping the relative path and replacing the extension:

  2024/01/photo.jpg -> 2024/01/photo.avif

Images larger than the profile's max dimension are downscaled first.
Encoding shells out to avifenc (libavif) or cwebp (libwebp), which must be
on PATH. A manifest (wpimg.convert.json) is written to the output root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertOutDir, "out", "o", "", "output directory (default: alongside the originals)")
	f.StringVarP(&convertProfile, "profile", "p", profile.DefaultName,
		"conversion profile ("+strings.Join(profile.Names(), ", ")+")")
	f.StringVarP(&convertFormat, "format", "f", "", "output format: avif or webp (default: profile's)")
	f.IntVarP(&convertQuality, "quality", "q", 0, "quality 1-100 (0 = profile default)")
	f.IntVar(&convertSpeed, "speed", 0, "encoder speed 0-10, higher is faster")
	f.IntVar(&convertThreads, "threads", 0, "encoder threads per image (0 = all)")
	f.IntVar(&convertMaxDim, "max-dim", 0, "bound the longest edge in px (0 = never resize)")
	f.IntVarP(&convertWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	f.BoolVar(&convertForce, "force", false, "re-encode even when the output exists")
	f.BoolVar(&convertNoRegress, "no-regress-size", true, "skip outputs not smaller than the original")
	f.BoolVar(&convertDryRun, "dry-run", false, "list planned conversions without encoding")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	start := time.Now()
	out := cmd.OutOrStdout()

	inputDir, err := uploadsDir(args)
	if err != nil {
		return err
	}
	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	prof, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	workers := fileCfg.Convert.Workers
	if cmd.Flags().Changed("workers") {
		workers = convertWorkers
	}

	outDir := fileCfg.Convert.Out
	if cmd.Flags().Changed("out") {
		outDir = convertOutDir
	}
	absOutput := absInput
	if outDir != "" {
		if absOutput, err = filepath.Abs(outDir); err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
	}

	slog.Debug("convert", "input", absInput, "output", absOutput, "profile", prof.Name,
		"format", prof.Format, "quality", prof.Quality, "speed", prof.Speed, "max_dim", prof.MaxDim)

	cfg := pipeline.Config{
		InputDir:      absInput,
		OutputDir:     absOutput,
		Profile:       prof,
		Workers:       workers,
		Force:         convertForce,
		NoRegressSize: convertNoRegress,
	}

	if convertDryRun {
		p := pipeline.New(cfg)
		files, err := p.Scan()
		if err != nil {
			return err
		}
		printPlan(out, p.Plan(files))
		return nil
	}

	enc, err := encoder.NewRegistry().Lookup(prof.Format)
	if err != nil {
		return err
	}
	cfg.Encoder = enc
	if !verbose {
		cfg.Progress = cmd.ErrOrStderr()
	}

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	m, runErr := pipeline.New(cfg).Run(cmd.Context())
	if m == nil {
		return fmt.Errorf("pipeline: %w", runErr)
	}

	// An interrupted run still records what it finished.
	manifestPath := filepath.Join(absOutput, manifest.Filename)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return errors.Join(runErr, fmt.Errorf("write manifest: %w", err))
	}

	printConvertReport(out, m, manifestPath, time.Since(start))
	if runErr != nil {
		return runErr
	}
	if m.Stats.Failed > 0 {
		return fmt.Errorf("%d of %d images failed to convert", m.Stats.Failed, m.Stats.TotalSources)
	}
	return nil
}

// resolveProfile layers the config file and then explicit flags over the
// selected built-in profile.
func resolveProfile(cmd *cobra.Command) (profile.Profile, error) {
	flags := cmd.Flags()
	cv := fileCfg.Convert

	name := profile.DefaultName
	if cv.Profile != "" {
		name = cv.Profile
	}
	if flags.Changed("profile") {
		name = convertProfile
	}
	if !slices.Contains(profile.Names(), name) {
		return profile.Profile{}, fmt.Errorf("unknown profile %q (have %s)",
			name, strings.Join(profile.Names(), ", "))
	}
	prof := profile.Get(name)

	if cv.Format != "" {
		prof.Format = cv.Format
	}
	if cv.Quality > 0 {
		prof.Quality = cv.Quality
	}
	if cv.Speed != nil {
		prof.Speed = *cv.Speed
	}
	if cv.Threads > 0 {
		prof.Threads = cv.Threads
	}
	if cv.MaxDim != nil {
		prof.MaxDim = *cv.MaxDim
	}

	if flags.Changed("format") {
		prof.Format = strings.ToLower(convertFormat)
	}
	if flags.Changed("quality") && convertQuality > 0 {
		prof.Quality = convertQuality
	}
	if flags.Changed("speed") {
		prof.Speed = convertSpeed
	}
	if flags.Changed("threads") {
		prof.Threads = convertThreads
	}
	if flags.Changed("max-dim") {
		prof.MaxDim = convertMaxDim
	}

	switch {
	case prof.Format != "avif" && prof.Format != "webp":
		return prof, fmt.Errorf("unsupported format %q (avif or webp)", prof.Format)
	case prof.Quality < 1 || prof.Quality > 100:
		return prof, fmt.Errorf("quality must be 1-100, got %d", prof.Quality)
	case prof.Speed < 0 || prof.Speed > 10:
		return prof, fmt.Errorf("speed must be 0-10, got %d", prof.Speed)
	case prof.MaxDim < 0:
		return prof, fmt.Errorf("max-dim must be >= 0, got %d", prof.MaxDim)
	case prof.Threads < 0:
		return prof, fmt.Errorf("threads must be >= 0, got %d", prof.Threads)
	}
	return prof, nil
}

func printPlan(w io.Writer, jobs []pipeline.Job) {
	var todo int
	fmt.Fprintln(w)
	for _, j := range jobs {
		switch j.Skip {
		case "":
			todo++
			fmt.Fprintf(w, "  %s -> %s\n", j.Source.RelPath, j.Output)
		case manifest.StatusFailed:
			fmt.Fprintf(w, "  %s: %s\n", j.Source.RelPath, j.Reason)
		default:
			fmt.Fprintf(w, "  %s (%s)\n", j.Source.RelPath, j.Skip)
		}
	}
	fmt.Fprintf(w, "\n  %d of %d sources would be converted\n\n", todo, len(jobs))
}

func printConvertReport(w io.Writer, m *manifest.Manifest, manifestPath string, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║              wpimg convert complete              ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	s := m.Stats
	ratio := float64(0)
	if s.TotalInputBytes > 0 {
		ratio = float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
	}

	fmt.Fprintf(w, "  Sources:     %d\n", s.TotalSources)
	fmt.Fprintf(w, "  Converted:   %d (%d resized) to %s\n", s.Converted, s.Resized, m.Format)
	fmt.Fprintf(w, "  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	if s.SkippedExists > 0 {
		fmt.Fprintf(w, "  Existing:    %d (use --force to re-encode)\n", s.SkippedExists)
	}
	if s.SkippedRegress > 0 {
		fmt.Fprintf(w, "  Skipped:     %d (not smaller than original)\n", s.SkippedRegress)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:      %d\n", s.Failed)
	}
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Workers:     %d\n", m.BuildInfo.Workers)
	}
	fmt.Fprintln(w)

	// Top 10 heaviest converted sources.
	var items []manifest.Entry
	for _, e := range m.Entries {
		if e.Status == manifest.StatusConverted {
			items = append(items, e)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SourceSize > items[j].SourceSize
	})
	if n := min(len(items), 10); n > 0 {
		fmt.Fprintf(w, "  Top %d heaviest (original → converted):\n", n)
		for _, e := range items[:n] {
			fmt.Fprintf(w, "    %-40s %8s → %8s  (−%.0f%%)\n",
				truncKey(e.Source, 40),
				formatBytes(e.SourceSize),
				formatBytes(e.OutputSize),
				(1-float64(e.OutputSize)/float64(max(e.SourceSize, 1)))*100,
			)
		}
		fmt.Fprintln(w)
	}

	var failed []manifest.Entry
	for _, e := range m.Entries {
		if e.Status == manifest.StatusFailed {
			failed = append(failed, e)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(w, "  Failures (%d):\n", len(failed))
		for _, e := range failed {
			fmt.Fprintf(w, "    ✗ %s: %s\n", e.Source, e.Error)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Manifest:    %s\n", manifestPath)
	fmt.Fprintln(w)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
