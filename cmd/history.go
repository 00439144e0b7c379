package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "Show a file's commit history",
	Args:  cobra.ExactArgs(1),
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
		update.UpdateHistory = true
		if err := executeSync(p, update); err != nil {
			return err
		}

		records := p.States(files)
		if len(records) == 0 || len(records[0].History) == 0 {
			fmt.Println("no history")
			return nil
		}
		for _, rev := range records[0].History {
			fmt.Printf("#%d %s %s %s %s\n",
				rev.RevisionNumber, rev.ShortCommitID, rev.Action,
				rev.Date.Format("2006-01-02 15:04"), rev.Author)
			for _, line := range strings.Split(strings.TrimRight(rev.Description, "\n"), "\n") {
				fmt.Printf("    %s\n", line)
			}
			if rev.BranchSource != nil {
				fmt.Printf("    from %s@%s\n", rev.BranchSource.Filename, rev.BranchSource.ShortCommitID)
			}
		}
		return nil
	},
}
