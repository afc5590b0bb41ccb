// Package patch renders file changes as unified diffs.
package patch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/masmgr/gitstream/history"
)

const devNull = "/dev/null"

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified returns the unified diff of change, fetching both sides of it. Binary
// files yield a one-line notice; a rename without content changes yields "".
func Unified(ctx context.Context, change history.FileChange, lines int) (string, error) {
	before, err := change.OldContent(ctx)
	if err != nil && !errors.Is(err, history.ErrNoContent) {
		return "", err
	}
	after, err := change.Content(ctx)
	if err != nil && !errors.Is(err, history.ErrNoContent) {
		return "", err
	}
	return Diff(change, before, after, lines)
}

// Diff renders the unified diff between before and after for change without
// touching the repository.
func Diff(change history.FileChange, before, after []byte, lines int) (string, error) {
	from, to := "a/"+oldPath(change), "b/"+change.Path
	switch change.Kind {
	case history.ChangeKindAdded:
		from = devNull
	case history.ChangeKindDeleted:
		to = devNull
	}
	if change.Binary {
		return fmt.Sprintf("Binary files %s and %s differ\n", from, to), nil
	}
	if lines < 0 {
		lines = DefaultContext
	}
	ud := difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: from,
		ToFile:   to,
		Context:  lines,
	}
	return difflib.GetUnifiedDiffString(ud)
}

func oldPath(change history.FileChange) string {
	if change.OldPath != "" {
		return change.OldPath
	}
	return change.Path
}

// splitLines keeps the line terminators difflib expects. A missing final
// newline is not marked.
func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	return difflib.SplitLines(strings.TrimSuffix(string(b), "\n"))
}
