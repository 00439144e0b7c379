package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var checkinMessage string

var checkinCmd = &cobra.Command{
	Use:   "checkin <file>...",
	Short: "Commit and push files",
	Long: `Commits the given files and pushes the branch. A push rejected because
the remote moved on is recovered once with a fetch and rebase pull; lfs
locks held on the committed files are released on success.`,
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
		checkin := p.NewCommand(provider.OpCheckIn, files)
		checkin.Message = checkinMessage
		if err := executeSync(p, checkin); err != nil {
			return err
		}
		if checkin.CommitID != "" {
			fmt.Printf("committed %s: %s\n", checkin.CommitID[:min(8, len(checkin.CommitID))], checkin.CommitSummary)
		}
		return nil
	},
}

func init() {
	checkinCmd.Flags().StringVarP(&checkinMessage, "message", "m", "", "commit message")
}
