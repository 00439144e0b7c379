// Package gitcli spawns the git and git-lfs command-line tools and turns
// their output into line slices the rest of the module can parse.
package gitcli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// MaxFilesPerBatch bounds the number of pathspecs passed to a single git
// invocation so long file lists never exceed command-line length limits.
const MaxFilesPerBatch = 50

// Invocation describes one run of the git binary. It is a plain value:
// fill in the fields, hand it to a Runner, read the Result.
type Invocation struct {
	// Bin is the executable to spawn: git itself or a dedicated lfs helper.
	Bin string
	// Dir is the repository root, passed via -C when non-empty.
	Dir string
	// GlobalArgs are options that go before the subcommand,
	// e.g. --no-optional-locks.
	GlobalArgs []string
	// Command is the git subcommand ("status", "log", "push", ...).
	Command string
	// Args are the subcommand's options and positional arguments.
	Args []string
	// Files are pathspecs appended after a "--" separator.
	Files []string
	// ExpectedCode is the exit code treated as success. The zero value
	// keeps the usual convention of 0.
	ExpectedCode int
}

func (inv Invocation) argv() []string {
	args := make([]string, 0, 4+len(inv.GlobalArgs)+len(inv.Args)+len(inv.Files))
	if inv.Dir != "" {
		args = append(args, "-C", inv.Dir)
	}
	args = append(args, inv.GlobalArgs...)
	args = append(args, inv.Command)
	args = append(args, inv.Args...)
	if len(inv.Files) > 0 {
		args = append(args, "--")
		args = append(args, inv.Files...)
	}
	return args
}

// Result carries the exit code and the output of one invocation, already
// split into lines.
type Result struct {
	Code   int
	Stdout []string
	Stderr []string
}

// Ok reports whether the invocation exited with the expected code.
func (r Result) Ok(inv Invocation) bool { return r.Code == inv.ExpectedCode }

// Runner executes invocations. The production implementation spawns
// processes; tests substitute scripted runners.
type Runner interface {
	Run(inv Invocation) (Result, error)
}

// ExecRunner runs invocations with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(inv Invocation) (Result, error) {
	args := inv.argv()
	slog.Debug("run git command",
		slog.String("bin", inv.Bin),
		slog.String("args", strings.Join(args, " ")))

	cmd := exec.Command(inv.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return Result{Code: -1}, fmt.Errorf("run %s %s: %w", inv.Bin, inv.Command, err)
		}
		code = exitErr.ExitCode()
	}

	res := Result{
		Code:   code,
		Stdout: SplitLines(stdout.String()),
		Stderr: SplitLines(stderr.String()),
	}
	return mergeProgressOutput(inv, res), nil
}

// mergeProgressOutput folds stderr into stdout when the tool exited with the
// expected code. git writes push/pull progress to stderr even on success,
// and callers should see that text as information, not errors.
func mergeProgressOutput(inv Invocation, res Result) Result {
	if res.Code == inv.ExpectedCode && len(res.Stderr) > 0 {
		res.Stdout = append(res.Stdout, res.Stderr...)
		res.Stderr = nil
	}
	return res
}

// SplitLines splits tool output into lines, trimming trailing whitespace
// (including CR on Windows output) and dropping lines that end up empty.
// Leading whitespace is preserved: porcelain status columns and log message
// indentation are significant.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Exec runs the invocation through r, batching the file list so no single
// run carries more than MaxFilesPerBatch pathspecs. Output from every batch
// is concatenated; ok is true only when every batch exited with the
// expected code.
func Exec(r Runner, inv Invocation) (Result, bool, error) {
	if len(inv.Files) <= MaxFilesPerBatch {
		res, err := r.Run(inv)
		if err != nil {
			return res, false, err
		}
		return res, res.Ok(inv), nil
	}

	combined := Result{Code: inv.ExpectedCode}
	ok := true
	for start := 0; start < len(inv.Files); start += MaxFilesPerBatch {
		end := min(start+MaxFilesPerBatch, len(inv.Files))
		batch := inv
		batch.Files = inv.Files[start:end]
		res, err := r.Run(batch)
		if err != nil {
			return combined, false, err
		}
		combined.Stdout = append(combined.Stdout, res.Stdout...)
		combined.Stderr = append(combined.Stderr, res.Stderr...)
		if !res.Ok(batch) {
			combined.Code = res.Code
			ok = false
		}
	}
	return combined, ok, nil
}
