package history

import (
	"fmt"
	"strconv"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// parseFileMode parses an octal mode as printed by git --raw
// (e.g. "100644", "120000", "160000", "000000").
func parseFileMode(s string) (filemode.FileMode, error) {
	if s == "" {
		return filemode.Empty, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return filemode.Empty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return filemode.FileMode(v), nil
}

// isTrackedFile reports whether either side of a change is a regular file,
// an executable or a symlink. Gitlinks (submodules) and trees are not.
func isTrackedFile(src, dst filemode.FileMode) bool {
	return src.IsFile() || dst.IsFile()
}
