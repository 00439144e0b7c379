package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assetbridge/internal/provider"
)

// drainInterval paces the watch command's drain loop; a CLI host has no
// frame tick of its own.
const drainInterval = 100 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a long-lived status refresher",
	Long: `Keeps the state cache warm until interrupted: a fetch plus status sweep
on a fixed cadence, and an immediate sweep whenever the repository
changes underneath. Each refresh that changes any file state prints a
summary line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		p.OnStateChanged = func() {
			fmt.Printf("%s state updated (%d paths cached)\n",
				time.Now().Format("15:04:05"), len(p.CachedPaths()))
			if p.PendingRestart() {
				fmt.Println("upstream carries newer binaries; restart the editor before syncing")
			}
			for _, line := range p.LastErrors() {
				fmt.Fprintln(os.Stderr, line)
			}
		}

		p.StartDrainLoop(drainInterval)
		if err := p.StartBackgroundRefresh(); err != nil {
			return err
		}

		// Prime the cache before settling into the background cadence.
		if err := executeSync(p, p.NewCommand(provider.OpUpdateStatus, nil)); err != nil {
			slog.Warn("initial status sweep failed", slog.Any("error", err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	},
}
