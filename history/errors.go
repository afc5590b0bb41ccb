package history

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoContent is returned by FileChange.Content for deleted files.
	ErrNoContent = errors.New("file has no content at this commit")

	// ErrIteratorClosed is returned by Next after the iterator was closed early.
	ErrIteratorClosed = errors.New("commit iterator closed")

	// ErrUnsupportedGit is returned by Open when the git executable is too old.
	ErrUnsupportedGit = errors.New("unsupported git version")

	errDetachedCommit = errors.New("commit is not bound to a repository")
)

// RepositoryNotFoundError reports that a path is not a git repository.
type RepositoryNotFoundError struct {
	Path string
	Err  error
}

func (e *RepositoryNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("repository not found at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("repository not found at %s", e.Path)
}

func (e *RepositoryNotFoundError) Unwrap() error { return e.Err }

// ProcessSpawnError reports that a git process could not be started.
type ProcessSpawnError struct {
	Args []string
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", commandLabel(e.Args), e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

// ProcessExitError reports that a git process terminated abnormally.
// Stderr holds (at most the first 64 KiB of) what the process wrote to stderr.
type ProcessExitError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", commandLabel(e.Args), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ProcessExitError) Unwrap() error { return e.Err }

// ParseError reports git output that does not have the expected shape.
// Index is the zero-based position of the offending record in its stream.
type ParseError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse record #%d", e.Index)
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// EncodingError reports a field that is not valid UTF-8 under DecodeStrict.
type EncodingError struct {
	Index int
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("record #%d field %s: invalid UTF-8: %v", e.Index, e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func commandLabel(args []string) string {
	for _, a := range args {
		if a == "" || strings.HasPrefix(a, "-") {
			continue
		}
		return "git " + a
	}
	return "git"
}
