package history

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathFilter applies include/exclude glob patterns to enumerated file paths.
type pathFilter struct {
	include []string
	exclude []string
}

func newPathFilter(include, exclude []string) (pathFilter, error) {
	for _, set := range [][]string{include, exclude} {
		for _, pattern := range set {
			if !doublestar.ValidatePattern(pattern) {
				return pathFilter{}, fmt.Errorf("invalid glob pattern %q", pattern)
			}
		}
	}
	return pathFilter{include: include, exclude: exclude}, nil
}

// matches checks a path against the filters. Exclusions win over inclusions;
// an empty include list accepts everything.
func (f pathFilter) matches(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")

	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// matchesChange keeps a rename when either its old or its new path matches.
func (f pathFilter) matchesChange(path, oldPath string) bool {
	if f.matches(path) {
		return true
	}
	return oldPath != "" && f.matches(oldPath)
}
