package cmd

import (
	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <file>...",
	Short: "Take lfs locks on files",
	Long: `Takes an exclusive lfs lock on each lockable file so other users see
it as checked out. Requires the locking workflow to be enabled.`,
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
		return executeSync(p, p.NewCommand(provider.OpCheckOut, files))
	},
}
