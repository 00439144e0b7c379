package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var locksRefresh bool

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "List lfs locks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		locks, errs := p.Locks(locksRefresh)
		for _, line := range errs {
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
		paths := make([]string, 0, len(locks))
		for path := range locks {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		fmt.Printf("%-60s %s\n", "FILE", "OWNER")
		for _, path := range paths {
			fmt.Printf("%-60s %s\n", path, locks[path])
		}
		return nil
	},
}

func init() {
	locksCmd.Flags().BoolVar(&locksRefresh, "refresh", false, "bypass the lock cache and query the server")
}
