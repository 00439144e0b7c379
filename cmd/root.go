// Package cmd is the CLI surface over the provider: one thin subcommand
// per source-control operation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"assetbridge/internal/buildinfo"
)

// Global flags.
var (
	flagRepo    string
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "assetbridge",
	Short: "Bridge an editor's asset database to git + git-lfs",
	Long: `assetbridge keeps an editor's view of binary assets in sync with a
git + git-lfs repository: porcelain status parsing, lfs lock tracking,
divergence checks against tracked remote branches, and the usual
checkout/checkin/revert/sync operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assetbridge %s\n", buildinfo.VersionWithRevision())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "C", ".", "repository working directory")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to settings file (default <repo>/.assetbridge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "detailed output")

	rootCmd.AddCommand(
		versionCmd,
		statusCmd,
		checkoutCmd,
		checkinCmd,
		addCmd,
		copyCmd,
		deleteCmd,
		revertCmd,
		resolveCmd,
		syncCmd,
		locksCmd,
		historyCmd,
		stageCmd,
		watchCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
