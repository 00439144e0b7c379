package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var revertAll bool

var revertCmd = &cobra.Command{
	Use:   "revert [file...]",
	Short: "Discard local changes",
	Long: `Discards local changes to the given files: staged additions are
unstaged, missing tracked files are removed from the index, modified
content is restored from HEAD. With --all the whole working copy is
reset and cleaned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !revertAll {
			return errors.New("pass files to revert, or --all for the whole working copy")
		}
		p, err := openProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		files, err := absTargets(args)
		if err != nil {
			return err
		}
		return executeSync(p, p.NewCommand(provider.OpRevert, files))
	},
}

func init() {
	revertCmd.Flags().BoolVar(&revertAll, "all", false, "revert the entire working copy")
}
