package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/wpimg-cli/internal/hasher"
	"github.com/AnyUserName/wpimg-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var validateNoHash bool

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_or_out_dir>",
	Short: "Validate a conversion manifest and check converted files",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoHash, "no-hash", false, "skip re-hashing converted files")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	manifestPath := args[0]

	// If path is a directory, look for the manifest inside.
	if info, err := os.Stat(manifestPath); err == nil && info.IsDir() {
		manifestPath = filepath.Join(manifestPath, manifest.Filename)
	}

	m, err := manifest.ReadJSON(manifestPath)
	if err != nil {
		return err
	}

	errs := validateManifest(m, filepath.Dir(manifestPath), !validateNoHash)
	if len(errs) == 0 {
		fmt.Fprintln(out, "  ✓ Manifest is valid")
		fmt.Fprintf(out, "  ✓ %d sources, %d converted, all files present\n", m.Stats.TotalSources, m.Stats.Converted)
		return nil
	}

	fmt.Fprintf(out, "  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *manifest.Manifest, baseDir string, checkHash bool) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	seenOutputs := map[string]bool{}
	for i, e := range m.Entries {
		if e.Source == "" {
			errs = append(errs, fmt.Sprintf("entry[%d]: missing source", i))
		}
		if e.Output == "" {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: missing output", i, e.Source))
			continue
		}

		key := strings.ToLower(e.Output)
		if seenOutputs[key] {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: duplicate output %q", i, e.Source, e.Output))
		}
		seenOutputs[key] = true

		switch e.Status {
		case manifest.StatusConverted:
		case manifest.StatusSkippedExists, manifest.StatusSkippedRegress, manifest.StatusFailed:
			continue
		default:
			errs = append(errs, fmt.Sprintf("entry[%d] %q: unknown status %q", i, e.Source, e.Status))
			continue
		}

		if e.OutWidth <= 0 || e.OutHeight <= 0 {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: invalid output dimensions %dx%d",
				i, e.Source, e.OutWidth, e.OutHeight))
		}
		if e.Hash == "" {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: missing hash", i, e.Source))
		}

		fullPath := filepath.Join(baseDir, filepath.FromSlash(e.Output))
		info, err := os.Stat(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: file not found: %s", i, e.Source, e.Output))
			continue
		}
		if info.Size() != e.OutputSize {
			errs = append(errs, fmt.Sprintf("entry[%d] %q: size mismatch: manifest=%d, disk=%d",
				i, e.Source, e.OutputSize, info.Size()))
			continue
		}
		if checkHash && e.Hash != "" {
			sum, err := hasher.SumFile(fullPath)
			if err != nil {
				errs = append(errs, fmt.Sprintf("entry[%d] %q: hash: %v", i, e.Source, err))
			} else if sum != e.Hash {
				errs = append(errs, fmt.Sprintf("entry[%d] %q: hash mismatch: manifest=%s, disk=%s",
					i, e.Source, e.Hash, sum))
			}
		}
	}

	// Verify stats consistency.
	recomputed := manifest.Manifest{Entries: m.Entries}
	recomputed.ComputeStats()
	if recomputed.Stats != m.Stats {
		errs = append(errs, fmt.Sprintf("stats mismatch: manifest=%+v, entries=%+v", m.Stats, recomputed.Stats))
	}

	return errs
}
