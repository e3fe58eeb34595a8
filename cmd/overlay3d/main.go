package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
)

// options are the flags shared by every command.
type options struct {
	root       string
	configPath string
	dbPath     string
	workers    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "overlay3d",
		Short:        "Overlay3D instance-segmentation dataset adapter",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.root, "root", "r", ".", "dataset root containing **/rgb/*.png")
	flags.StringVarP(&opts.configPath, "config", "c", "", "trainer config JSON overlaid on the defaults")
	flags.StringVar(&opts.dbPath, "db", defaultDBPath(), "catalog database path")
	flags.IntVar(&opts.workers, "workers", 0, "decoding workers for indexing (default: number of CPUs)")

	cmd.AddCommand(
		newServeCommand(opts),
		newIndexCommand(opts),
		newStatsCommand(opts),
		newShowCommand(opts),
		newConfigCommand(opts),
	)
	return cmd
}

// defaultDBPath returns ~/.overlay3d/catalog.db, or a file in the working
// directory when there is no home directory.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "overlay3d.db"
	}
	return filepath.Join(homeDir, ".overlay3d", "catalog.db")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.overlay3d/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".overlay3d", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
