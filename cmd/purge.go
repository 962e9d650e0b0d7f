package cmd

import (
	"fmt"
	"os"

	"github.com/AnyUserName/wpimg-cli/internal/purge"
	"github.com/spf13/cobra"
)

var (
	purgeRoot   string
	purgeYes    bool
	purgeDryRun bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge <purge_list>",
	Short: "Delete the files named in a purge list",
	Long: `Deletes every path listed in a purge list (one path per line, relative
to --root). Asks for confirmation unless --yes is given. Files that are
already gone are skipped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVarP(&purgeRoot, "root", "r", "", "uploads directory the list is relative to")
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "do not ask for confirmation")
	purgeCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "print what would be deleted")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root := purgeRoot
	if root == "" {
		root = fileCfg.Uploads
	}
	if root == "" {
		return fmt.Errorf("--root is required")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open purge list: %w", err)
	}
	paths, err := purge.ReadList(f)
	f.Close()
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		fmt.Fprintln(out, "  Purge list is empty, nothing to delete")
		return nil
	}

	if purgeDryRun {
		for _, p := range paths {
			fmt.Fprintf(out, "  would delete %s\n", p)
		}
		fmt.Fprintf(out, "  %d files\n", len(paths))
		return nil
	}

	prompt := fmt.Sprintf("Delete %d files under %s?", len(paths), root)
	if !purgeYes && !purge.Confirm(cmd.InOrStdin(), out, prompt) {
		return purge.ErrNotConfirmed
	}

	res, err := purge.Remove(root, paths)
	printRemoveResult(cmd, res)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	return nil
}

func printRemoveResult(cmd *cobra.Command, res purge.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Removed:     %d (%s)\n", res.Removed, formatBytes(res.Bytes))
	if res.Missing > 0 {
		fmt.Fprintf(out, "  Missing:     %d (already gone)\n", res.Missing)
	}
	if res.Failed > 0 {
		fmt.Fprintf(out, "  Failed:      %d\n", res.Failed)
	}
	fmt.Fprintln(out)
}
