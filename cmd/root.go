package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/AnyUserName/wpimg-cli/internal/config"
	"github.com/AnyUserName/wpimg-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string
	logFile    string

	// fileCfg is the loaded --config file; empty when none was given.
	fileCfg  = &config.Config{}
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "wpimg",
	Short: "Find orphaned WordPress uploads and convert images to AVIF",
	Long: `Housekeeping for WordPress uploads directories.

Lists thumbnails and originals that nothing references any more so they
can be purged, batch-converts images to AVIF with resizing, and reports
how much space the conversion saved.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
// The log file is closed whether or not the command succeeded.
func Execute() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err != nil {
			slog.Error("command failed", "error", err)
		}
		cerr := closeLog()
		closeLog = func() error { return nil }
		if err == nil {
			err = cerr
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotating file")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"wpimg %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup loads the config file and installs the logger before any command.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fileCfg = cfg

	file := logFile
	if file == "" {
		file = cfg.LogFile
	}
	_, closeLog = logging.Setup(logging.Options{
		Verbose: verbose,
		File:    file,
		Stderr:  cmd.ErrOrStderr(),
	})
	return nil
}

// uploadsDir picks the uploads root from the first argument or the config.
func uploadsDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if fileCfg.Uploads != "" {
		return fileCfg.Uploads, nil
	}
	return "", fmt.Errorf("uploads directory required (argument or 'uploads' in --config)")
}
