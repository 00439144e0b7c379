package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"assetbridge/internal/config"
	"assetbridge/internal/provider"
	"assetbridge/internal/vcs"
)

// openProvider loads settings, connects the provider, and starts its
// worker pool.
func openProvider() (*provider.Provider, error) {
	repo, err := filepath.Abs(flagRepo)
	if err != nil {
		return nil, err
	}
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(repo, ".assetbridge.yaml")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	p := provider.New(cfg, repo)
	if err := p.Connect(); err != nil {
		return nil, err
	}
	p.StartWorkers()
	return p, nil
}

// executeSync runs the command to completion and turns a failure into a
// CLI error after printing the accumulated messages.
func executeSync(p *provider.Provider, cmd *provider.Command) error {
	status := p.ExecuteSync(cmd)
	for _, line := range cmd.Result.Info {
		fmt.Println(line)
	}
	for _, line := range cmd.Result.Errors {
		fmt.Fprintln(os.Stderr, line)
	}
	if status != provider.StatusSucceeded {
		return fmt.Errorf("%s %s", cmd.Op, status)
	}
	return nil
}

// absTargets resolves CLI path arguments against the working directory.
func absTargets(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// printRecords renders state records as a fixed-width table.
func printRecords(records []vcs.Record, root string) {
	fmt.Printf("%-50s %-10s %-12s %-16s %s\n", "FILE", "CHANGE", "TREE", "LOCK", "REMOTE")
	for _, rec := range records {
		name := rec.Path
		if rel, err := filepath.Rel(root, rec.Path); err == nil {
			name = rel
		}
		lock := rec.State.Lock.String()
		if rec.State.LockUser != "" {
			lock = fmt.Sprintf("%s (%s)", lock, rec.State.LockUser)
		}
		remote := rec.State.Remote.String()
		if rec.State.HeadBranch != "" {
			remote = fmt.Sprintf("%s (%s)", remote, rec.State.HeadBranch)
		}
		fmt.Printf("%-50s %-10s %-12s %-16s %s\n",
			name, rec.State.File, rec.State.Tree, lock, remote)
	}
}
