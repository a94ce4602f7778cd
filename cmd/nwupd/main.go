package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nightwatch-dev/nwupd/internal/buildinfo"
	"github.com/nightwatch-dev/nwupd/internal/log"
)

var (
	flagVerbose bool
	flagDebug   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "nwupd",
	Short: "Add-on installer and updater for the Night Watch game client",
	Long: `nwupd keeps optional game add-ons in sync with the published manifest.

It is meant to be run from inside the game installation directory (or with
NWUPD_GAME_DIR pointing at it). Installed state is always derived from the
directory contents on disk; there is no local database to corrupt.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

func configureLogging() {
	if flagQuiet {
		log.SetDefault(log.NewNoop())
		return
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelInfo
	}
	if flagDebug {
		level = slog.LevelDebug
	}
	log.SetDefault(log.NewText(os.Stderr, level))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable informational logging")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress all logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneral)
	}
}
