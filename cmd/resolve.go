package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

var resolvePreview bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>...",
	Short: "Mark conflicted files as resolved",
	Long: `Stages the given files as they are on disk, clearing their unmerged
state. Resolve the content first; this only tells git the conflict is
settled. With --preview a diff against the common ancestor is shown
instead of resolving.`,
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
		if resolvePreview {
			// A status pass records the conflict stages the preview needs.
			if err := executeSync(p, p.NewCommand(provider.OpUpdateStatus, files)); err != nil {
				return err
			}
			for _, file := range files {
				diff, previewErr := p.ConflictPreview(file)
				if previewErr != nil {
					return previewErr
				}
				fmt.Print(diff)
			}
			return nil
		}
		return executeSync(p, p.NewCommand(provider.OpResolve, files))
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolvePreview, "preview", false, "show the diff against the common ancestor instead of resolving")
}
