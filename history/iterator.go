package history

import (
	"errors"
	"io"
	"iter"

	"github.com/go-git/go-git/v5/plumbing/storer"
)

// IteratorState is the lifecycle position of a CommitIterator.
type IteratorState int

const (
	StateNotStarted IteratorState = iota
	StateStreaming
	StateExhausted
	StateAborted
	StateFailed
)

func (s IteratorState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStreaming:
		return "streaming"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no more commits can be produced.
func (s IteratorState) Terminal() bool {
	return s == StateExhausted || s == StateAborted || s == StateFailed
}

// cursor is the lifecycle shared by the iterators that read framed blocks
// from one git process.
//
// Whatever way iteration ends (exhaustion, failure or Close) the process is
// terminated and reaped before the terminal state is reported.
type cursor struct {
	repo  *Repository
	src   blockSource
	state IteratorState
	err   error
	index int
}

// State returns the iterator's current state.
func (c *cursor) State() IteratorState {
	return c.state
}

// Err returns the error that moved the iterator to StateFailed, if any.
func (c *cursor) Err() error {
	return c.err
}

// nextBlock pulls the next raw block under the repository lock.
func (c *cursor) nextBlock() ([]byte, error) {
	switch c.state {
	case StateExhausted:
		return nil, io.EOF
	case StateAborted:
		return nil, ErrIteratorClosed
	case StateFailed:
		return nil, c.err
	case StateNotStarted:
		c.state = StateStreaming
	}

	c.repo.mu.Lock()
	block, err := c.src.Next()
	c.repo.mu.Unlock()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.finish(StateExhausted, nil)
			return nil, io.EOF
		}
		c.finish(StateFailed, err)
		return nil, err
	}
	return block, nil
}

// fail ends the iteration with err, which is returned for convenience.
func (c *cursor) fail(err error) error {
	c.finish(StateFailed, err)
	return err
}

// Close stops the iteration. If the iterator was not yet in a terminal state
// the git process is killed and reaped and the state becomes StateAborted.
// Close is idempotent.
func (c *cursor) Close() error {
	if c.state.Terminal() {
		return nil
	}
	c.finish(StateAborted, nil)
	return nil
}

func (c *cursor) finish(state IteratorState, err error) {
	if c.src != nil {
		_ = c.src.Close()
	}
	c.state = state
	c.err = err
}

// CommitIterator is a lazy, single-pass sequence of commits backed by one git
// log process. It is not safe for concurrent use.
type CommitIterator struct {
	cursor
}

func newCommitIterator(repo *Repository, src blockSource) *CommitIterator {
	return &CommitIterator{cursor{repo: repo, src: src}}
}

func newExhaustedIterator() *CommitIterator {
	return &CommitIterator{cursor{state: StateExhausted}}
}

// Next returns the next commit, or io.EOF when the history is exhausted.
// After a failure the same error is returned again; after Close,
// ErrIteratorClosed.
func (it *CommitIterator) Next() (*Commit, error) {
	block, err := it.nextBlock()
	if err != nil {
		return nil, err
	}
	commit, err := parseCommitRecord(it.index, block, it.repo.dec)
	if err != nil {
		return nil, it.fail(err)
	}
	it.index++
	commit.repo = it.repo
	return commit, nil
}

// All adapts the iterator to a range-over-func sequence. Breaking out of the
// loop closes the iterator; an error is yielded once and ends the sequence.
func (it *CommitIterator) All() iter.Seq2[*Commit, error] {
	return func(yield func(*Commit, error) bool) {
		defer it.Close()
		for {
			c, err := it.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// ForEach calls fn for every commit. If fn returns storer.ErrStop the
// iteration ends without error; any other error ends it and is returned.
// The iterator is closed when ForEach returns.
func (it *CommitIterator) ForEach(fn func(*Commit) error) error {
	defer it.Close()
	for {
		c, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
	}
}
