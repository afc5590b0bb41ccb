package history

import "context"

// CommitStream is a pull-based sequence of commits. Next returns io.EOF once
// the sequence is exhausted; Close releases the underlying process.
type CommitStream interface {
	Next() (*Commit, error)
	Close() error
}

// ChangeLister enumerates the files changed by a commit.
type ChangeLister interface {
	Files(ctx context.Context, c *Commit) ([]FileChange, error)
}

// Compile-time interface conformance checks.
var (
	_ CommitStream = (*CommitIterator)(nil)
	_ ChangeLister = (*Repository)(nil)
)
