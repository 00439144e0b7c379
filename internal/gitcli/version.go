package gitcli

import (
	"fmt"
	"strconv"
	"strings"
)

// minGitVersion is the oldest git supported. Restore and switch, which the
// revert path relies on, appeared in 2.23.
var minGitVersion = gitVersion{major: 2, minor: 23, patch: 0}

type gitVersion struct {
	major, minor, patch int
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(o gitVersion) bool {
	if v.major != o.major {
		return v.major < o.major
	}
	if v.minor != o.minor {
		return v.minor < o.minor
	}
	return v.patch < o.patch
}

// CheckAvailability probes bin with "git version" and verifies the binary
// exists, runs, and is recent enough.
func CheckAvailability(r Runner, bin string) error {
	res, err := r.Run(Invocation{Bin: bin, Command: "version"})
	if err != nil {
		return fmt.Errorf("probe git version: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("git version exited with code %d", res.Code)
	}
	return validateGitVersionOutput(strings.Join(res.Stdout, "\n"))
}

func validateGitVersionOutput(out string) error {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if got.less(minGitVersion) {
		return fmt.Errorf("git %s is too old; need git >= %s", got, minGitVersion)
	}
	return nil
}

// parseGitVersionOutput extracts the version triple from "git version"
// output, tolerating vendor suffixes such as "(Apple Git-146)" or
// "2.39.3.windows.1".
func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if s == "" {
		return gitVersion{}, false
	}
	s = strings.TrimPrefix(s, "git version ")

	// Find the first digit; some wrappers prepend their own banner.
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]

	// Keep only the leading numeric/dot portion.
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' {
			end++
			continue
		}
		break
	}
	s = strings.Trim(s[:end], ".")
	if s == "" {
		return gitVersion{}, false
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return gitVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return gitVersion{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return gitVersion{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return gitVersion{major: major, minor: minor, patch: patch}, true
}
