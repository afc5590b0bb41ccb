package history

import (
	"context"
	"io"
)

// MockHistory is a test double that replays predefined commits and file
// changes without a git repository.
type MockHistory struct {
	Commits []*Commit
	Changes map[string][]FileChange // keyed by commit hash
	Error   error                   // returned by Next after the last commit
	Closed  bool

	pos int
}

// NewMockHistory creates a MockHistory over commits.
func NewMockHistory(commits []*Commit, changes map[string][]FileChange, err error) *MockHistory {
	return &MockHistory{Commits: commits, Changes: changes, Error: err}
}

// Next returns the next predefined commit.
func (m *MockHistory) Next() (*Commit, error) {
	if m.Closed {
		return nil, ErrIteratorClosed
	}
	if m.pos < len(m.Commits) {
		c := m.Commits[m.pos]
		m.pos++
		return c, nil
	}
	if m.Error != nil {
		return nil, m.Error
	}
	return nil, io.EOF
}

// Close marks the mock as closed.
func (m *MockHistory) Close() error {
	m.Closed = true
	return nil
}

// Files returns the predefined changes of c.
func (m *MockHistory) Files(_ context.Context, c *Commit) ([]FileChange, error) {
	return m.Changes[c.Hash], nil
}

// Compile-time interface conformance checks.
var (
	_ CommitStream = (*MockHistory)(nil)
	_ ChangeLister = (*MockHistory)(nil)
)
