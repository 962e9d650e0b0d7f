package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/AnyUserName/wpimg-cli/internal/corpus"
	"github.com/AnyUserName/wpimg-cli/internal/fsutil"
	"github.com/AnyUserName/wpimg-cli/internal/orphan"
	"github.com/AnyUserName/wpimg-cli/internal/purge"
	"github.com/AnyUserName/wpimg-cli/internal/scanner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	listCorpus  string
	listOut     string
	listSummary string
	listKeep    string
)

var purgeListCmd = &cobra.Command{
	Use:   "purge-list [uploads_dir]",
	Short: "List derivatives and unreferenced originals that can be purged",
	Long: `Scans the uploads directory for images (jpg, jpeg, png, gif, webp, svg)
and classifies each one:

  derivative     -150x150 / -scaled copies WordPress can regenerate
  referenced     original whose filename appears in the corpus
  unreferenced   original nothing in the corpus mentions

Derivatives and unreferenced originals go to the purge list (derivatives
first), one path per line relative to the uploads directory. The corpus is
a database export (.sql, .sql.gz) or a SQLite database (.db, .sqlite).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPurgeList,
}

func init() {
	purgeListCmd.Flags().StringVarP(&listCorpus, "corpus", "c", "", "database dump or SQLite file to search for references")
	purgeListCmd.Flags().StringVarP(&listOut, "out", "o", "purge-list.txt", "purge list output")
	purgeListCmd.Flags().StringVar(&listSummary, "summary", "purge-summary.json", "summary output (empty to skip)")
	purgeListCmd.Flags().StringVar(&listKeep, "keep", "", "also write the keep list here")
	rootCmd.AddCommand(purgeListCmd)
}

// listReport is the JSON summary artifact of a purge-list run.
type listReport struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	UploadsDir  string `json:"uploads_dir"`
	Corpus      string `json:"corpus"`
	References  int    `json:"references"`
	orphan.Summary
}

func runPurgeList(cmd *cobra.Command, args []string) error {
	start := time.Now()
	out := cmd.OutOrStdout()

	root, err := uploadsDir(args)
	if err != nil {
		return err
	}
	corpusPath := listCorpus
	if corpusPath == "" {
		corpusPath = fileCfg.Corpus
	}
	if corpusPath == "" {
		return fmt.Errorf("--corpus is required")
	}

	files, err := scanner.Scan(root, scanner.PurgeExtensions)
	if err != nil {
		return err
	}
	paths := scanner.RelPaths(files)
	slog.Debug("scanned uploads", "root", root, "images", len(paths))

	report := listReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		UploadsDir:  root,
		Corpus:      corpusPath,
	}

	var res *orphan.Result
	if len(paths) == 0 {
		res = orphan.Partition(nil, nil)
	} else {
		refs, err := corpus.Load(cmd.Context(), corpusPath)
		if err != nil {
			return err
		}
		report.References = refs.Len()
		res = orphan.Partition(paths, refs)
	}
	report.Summary = res.Summary

	// Artifacts are only written once classification has fully succeeded,
	// and either all of them are published or none.
	var batch fsutil.Batch
	if err := addList(&batch, listOut, res.Purge); err != nil {
		return err
	}
	if listKeep != "" {
		if err := addList(&batch, listKeep, res.Keep); err != nil {
			return err
		}
	}
	if listSummary != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		batch.Add(listSummary, append(data, '\n'), 0o644)
	}
	if err := batch.Commit(); err != nil {
		return err
	}

	if res.Empty() {
		slog.Info(orphan.ErrEmptyImageSet.Error(), "root", root)
	}
	printPurgeSummary(out, res, report, time.Since(start))
	return nil
}

func addList(b *fsutil.Batch, path string, paths []string) error {
	var buf bytes.Buffer
	if err := purge.WriteList(&buf, paths); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	b.Add(path, buf.Bytes(), 0o644)
	return nil
}

func printPurgeSummary(w io.Writer, res *orphan.Result, r listReport, elapsed time.Duration) {
	fmt.Fprintln(w)
	if res.Empty() {
		fmt.Fprintf(w, "  No images found in %s\n", r.UploadsDir)
		fmt.Fprintf(w, "  Kept:        0.00%%\n")
		fmt.Fprintln(w)
		return
	}

	var derivatives int
	for _, c := range res.Classes {
		if c == orphan.Derivative {
			derivatives++
		}
	}

	s := res.Summary
	fmt.Fprintf(w, "  Images:      %d\n", s.Total)
	fmt.Fprintf(w, "  References:  %d distinct filenames in corpus\n", r.References)
	fmt.Fprintf(w, "  Kept:        %d (%s%%)\n", s.Kept, s.KeptPercentage)
	fmt.Fprintf(w, "  Purgeable:   %d (%d derivatives, %d unreferenced)\n",
		s.Purgeable, derivatives, s.Purgeable-derivatives)
	fmt.Fprintf(w, "  Purge list:  %s\n", listOut)
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(w)
}
