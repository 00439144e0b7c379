package cmd

import (
	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
	"assetbridge/internal/vcs"
)

var stageUnstage bool

var stageCmd = &cobra.Command{
	Use:   "stage <file>...",
	Short: "Move files between the staged and working sets",
	Long: `Stages the given files into the index, or with --unstage moves their
changes back to the working set.`,
	Args: cobra.MinimumNArgs(1),
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
		move := p.NewCommand(provider.OpMoveToChangelist, files)
		move.TargetChangelist = vcs.ChangelistStaged
		if stageUnstage {
			move.TargetChangelist = vcs.ChangelistWorking
		}
		return executeSync(p, move)
	},
}

func init() {
	stageCmd.Flags().BoolVar(&stageUnstage, "unstage", false, "move changes back to the working set")
}
