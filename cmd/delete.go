package cmd

import (
	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file>...",
	Short: "Stage files for deletion",
	Args:  cobra.MinimumNArgs(1),
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
		return executeSync(p, p.NewCommand(provider.OpDelete, files))
	},
}
