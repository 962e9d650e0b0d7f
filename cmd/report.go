package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AnyUserName/wpimg-cli/internal/purge"
	"github.com/AnyUserName/wpimg-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportFormat       string
	reportConvertedDir string
	reportJSON         bool
	reportDelete       bool
	reportYes          bool
)

var reportCmd = &cobra.Command{
	Use:   "report [uploads_dir]",
	Short: "Compare originals with their converted files and report savings",
	Long: `Pairs every original under the uploads directory with its converted
counterpart (same path, --format extension) and reports total savings and
the distribution of per-image savings.

With --delete-originals, originals that have a converted counterpart are
removed after confirmation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "avif", "converted format to pair with")
	reportCmd.Flags().StringVar(&reportConvertedDir, "converted-dir", "", "where converted files live (default: uploads dir)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	reportCmd.Flags().BoolVar(&reportDelete, "delete-originals", false, "delete originals that have a converted counterpart")
	reportCmd.Flags().BoolVarP(&reportYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root, err := uploadsDir(args)
	if err != nil {
		return err
	}
	convertedDir := reportConvertedDir
	if convertedDir == "" {
		convertedDir = fileCfg.Convert.Out
	}

	r, err := report.Build(root, report.Options{
		Format:       strings.ToLower(reportFormat),
		ConvertedDir: convertedDir,
	})
	if err != nil {
		return err
	}

	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else {
		printReport(out, r)
	}

	if !reportDelete || len(r.Pairs) == 0 {
		return nil
	}
	prompt := fmt.Sprintf("Delete %d originals (%s) that have a %s counterpart?",
		len(r.Pairs), formatBytes(r.TotalOriginalBytes), r.Format)
	if !reportYes && !purge.Confirm(cmd.InOrStdin(), out, prompt) {
		return purge.ErrNotConfirmed
	}
	res, err := purge.Remove(root, r.Originals())
	printRemoveResult(cmd, res)
	if err != nil {
		return fmt.Errorf("delete originals: %w", err)
	}
	return nil
}

func printReport(w io.Writer, r *report.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Format:           %s\n", r.Format)
	fmt.Fprintf(w, "  Converted:        %d of %d (%s%%)\n",
		len(r.Pairs), len(r.Pairs)+len(r.Unconverted), r.ConvertedPercent)
	fmt.Fprintf(w, "  Originals:        %s\n", formatBytes(r.TotalOriginalBytes))
	fmt.Fprintf(w, "  Converted size:   %s\n", formatBytes(r.TotalConvertedBytes))
	fmt.Fprintf(w, "  Savings:          %s%%\n", r.SavingsPercent)
	fmt.Fprintln(w)

	if len(r.Percentiles) > 0 {
		fmt.Fprintln(w, "  Per-image savings:")
		for _, p := range r.Percentiles {
			fmt.Fprintf(w, "    p%-3d  %6.1f%%\n", p.P, p.Savings)
		}
		fmt.Fprintln(w)
	}

	// Converted files larger than their originals.
	var warnings []string
	for _, p := range r.Pairs {
		if p.Savings < 0 {
			warnings = append(warnings, fmt.Sprintf("%s is %.0f%% larger than %s",
				p.Converted, -p.Savings, p.Original))
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintf(w, "  Warnings (%d):\n", len(warnings))
		for _, msg := range warnings {
			fmt.Fprintf(w, "    ⚠ %s\n", msg)
		}
		fmt.Fprintln(w)
	}
}
