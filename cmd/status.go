package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var statusForce bool

var statusCmd = &cobra.Command{
	Use:   "status [file...]",
	Short: "Reconcile and show file states",
	Long: `Runs a status sweep over the given files (or the configured content
roots) and prints the reconciled state of every known file: change kind,
index position, lfs lock, and remote divergence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		files, err := absTargets(args)
		if err != nil {
			return err
		}
		update := p.NewCommand(provider.OpUpdateStatus, files)
		update.Forced = statusForce
		if err := executeSync(p, update); err != nil {
			return err
		}

		paths := files
		if len(paths) == 0 {
			paths = p.CachedPaths()
			sort.Strings(paths)
		}
		printRecords(p.States(paths), p.RepoRoot())
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusForce, "force", false, "force a refresh of the selected paths")
}
