package gitcli

import (
	"strings"
	"testing"
)

func TestInvocationArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		inv  Invocation
		want string
	}{
		{
			name: "command_only",
			inv:  Invocation{Command: "version"},
			want: "version",
		},
		{
			name: "dir_and_args",
			inv:  Invocation{Dir: "/repo", Command: "log", Args: []string{"--max-count", "10"}},
			want: "-C /repo log --max-count 10",
		},
		{
			name: "global_args_precede_command",
			inv: Invocation{
				Dir:        "/repo",
				GlobalArgs: []string{"--no-optional-locks"},
				Command:    "status",
				Args:       []string{"--porcelain", "-uall"},
			},
			want: "-C /repo --no-optional-locks status --porcelain -uall",
		},
		{
			name: "files_after_separator",
			inv:  Invocation{Command: "add", Files: []string{"a.uasset", "b.uasset"}},
			want: "add -- a.uasset b.uasset",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := strings.Join(tt.inv.argv(), " ")
			if got != tt.want {
				t.Fatalf("argv = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "blank_lines_dropped", in: "a\n\nb\n", want: []string{"a", "b"}},
		{name: "crlf_trimmed", in: "one\r\ntwo\r\n", want: []string{"one", "two"}},
		{
			name: "leading_space_preserved",
			in:   " M Content/Map.umap\n    commit message body\n",
			want: []string{" M Content/Map.umap", "    commit message body"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitLines(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// scriptedRunner records every invocation and answers from a fixed script.
type scriptedRunner struct {
	calls   []Invocation
	respond func(inv Invocation) Result
}

func (r *scriptedRunner) Run(inv Invocation) (Result, error) {
	r.calls = append(r.calls, inv)
	if r.respond == nil {
		return Result{}, nil
	}
	return r.respond(inv), nil
}

func TestExecBatchesLongFileLists(t *testing.T) {
	t.Parallel()

	files := make([]string, 120)
	for i := range files {
		files[i] = "file" + string(rune('a'+i%26))
	}
	runner := &scriptedRunner{
		respond: func(inv Invocation) Result {
			return Result{Stdout: []string{"batch"}}
		},
	}

	res, ok, err := Exec(runner, Invocation{Command: "add", Files: files})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected success")
	}
	if len(runner.calls) != 3 {
		t.Fatalf("got %d invocations, want 3", len(runner.calls))
	}
	for i, call := range runner.calls[:2] {
		if len(call.Files) != MaxFilesPerBatch {
			t.Fatalf("batch %d carried %d files, want %d", i, len(call.Files), MaxFilesPerBatch)
		}
	}
	if last := runner.calls[2]; len(last.Files) != 20 {
		t.Fatalf("last batch carried %d files, want 20", len(last.Files))
	}
	if len(res.Stdout) != 3 {
		t.Fatalf("stdout lines = %d, want one per batch", len(res.Stdout))
	}
}

func TestExecFailsWhenAnyBatchFails(t *testing.T) {
	t.Parallel()

	files := make([]string, MaxFilesPerBatch+1)
	for i := range files {
		files[i] = "f"
	}
	n := 0
	runner := &scriptedRunner{
		respond: func(inv Invocation) Result {
			n++
			if n == 2 {
				return Result{Code: 128, Stderr: []string{"fatal: pathspec"}}
			}
			return Result{}
		},
	}

	res, ok, err := Exec(runner, Invocation{Command: "add", Files: files})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected failure when one batch fails")
	}
	if res.Code != 128 {
		t.Fatalf("code = %d, want 128", res.Code)
	}
	if len(res.Stderr) != 1 {
		t.Fatalf("stderr = %q, want the failing batch's error", res.Stderr)
	}
}

func TestMergeProgressOutput(t *testing.T) {
	t.Parallel()

	inv := Invocation{Command: "push"}

	merged := mergeProgressOutput(inv, Result{
		Code:   0,
		Stdout: []string{"Everything up-to-date"},
		Stderr: []string{"To origin", " * [new branch] main -> main"},
	})
	if len(merged.Stderr) != 0 {
		t.Fatalf("stderr not folded on success: %q", merged.Stderr)
	}
	if len(merged.Stdout) != 3 {
		t.Fatalf("stdout = %q, want stderr appended", merged.Stdout)
	}

	failed := mergeProgressOutput(inv, Result{
		Code:   1,
		Stderr: []string{"! [rejected] main -> main (non-fast-forward)"},
	})
	if len(failed.Stderr) != 1 {
		t.Fatalf("stderr must stay put on failure: %q", failed.Stderr)
	}
}
