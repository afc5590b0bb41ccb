package history

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Minimum git version. Keep this aligned with the flags the log and diff
// invocations rely on (e.g. --no-show-signature and %aI).
var minGitVersion = gitVersion{major: 2, minor: 10, patch: 0}

type gitVersion struct {
	major int
	minor int
	patch int
}

// MinGitVersion returns the oldest git release the package works with.
func MinGitVersion() string {
	return minGitVersion.String()
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// parseGitVersionOutput understands "git version 2.44.0",
// "git version 2.39.3 (Apple Git-146)" and "git version 2.39.3.windows.1".
func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if idx := strings.Index(s, "git version"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("git version"):])
	}
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
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

func validateGitVersionOutput(out string) error {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("%w: unable to parse git version output %q", ErrUnsupportedGit, strings.TrimSpace(out))
	}
	if got.less(minGitVersion) {
		return fmt.Errorf("%w: git %s is older than %s", ErrUnsupportedGit, got, minGitVersion)
	}
	return nil
}

var versionChecks sync.Map // git binary -> error

func ensureMinGitVersion(ctx context.Context, bin string, logger *slog.Logger) error {
	if cached, ok := versionChecks.Load(bin); ok {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}
	out, err := runGit(ctx, bin, ".", []string{"--version"}, logger, false)
	if err != nil {
		// Spawn failures are not cached: the binary may appear later.
		return err
	}
	err = validateGitVersionOutput(string(out))
	if err == nil {
		versionChecks.Store(bin, nil)
		return nil
	}
	versionChecks.Store(bin, err)
	return err
}
