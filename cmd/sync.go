package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the latest changes from origin",
	Long: `Fetches and rebase-pulls the upstream branch. Refused when the remote
carries newer binaries than the running editor; restart first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		if err := executeSync(p, p.NewCommand(provider.OpSync, nil)); err != nil {
			return err
		}
		if id, summary := p.CommitInfo(); id != "" {
			fmt.Printf("now at %s: %s\n", id[:min(8, len(id))], summary)
		}
		return nil
	},
}
