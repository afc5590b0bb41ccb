package history

import (
	"context"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Signature identifies who authored or committed a change and when.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// ContributorKey returns a normalized identifier for grouping contributors.
func (s Signature) ContributorKey() string {
	return strings.ToLower(s.Email)
}

// Commit is a single record of the log stream.
//
// A Commit is immutable once it has been returned by a CommitIterator. It keeps a
// reference to the Repository it came from so that its changed files can be
// enumerated on demand; the file list itself is never cached on the Commit.
type Commit struct {
	Hash         string
	TreeHash     string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	RefNames     []string // decorations such as "HEAD -> main" or "tag: v1.0"
	Encoding     string   // encoding header of the commit object, usually empty
	Message      string   // full message, verbatim

	repo *Repository
}

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool {
	return len(c.ParentHashes) == 0
}

// IsMerge reports whether the commit has two or more parents.
func (c *Commit) IsMerge() bool {
	return len(c.ParentHashes) > 1
}

// Subject returns the first line of the message.
func (c *Commit) Subject() string {
	if idx := strings.IndexAny(c.Message, "\r\n"); idx != -1 {
		return c.Message[:idx]
	}
	return c.Message
}

// ShortHash returns the first 8 characters of the hash.
func (c *Commit) ShortHash() string {
	if len(c.Hash) <= 8 {
		return c.Hash
	}
	return c.Hash[:8]
}

// Files enumerates the files changed by this commit relative to its first
// parent (or to the empty tree for a root commit).
func (c *Commit) Files(ctx context.Context) ([]FileChange, error) {
	if c.repo == nil {
		return nil, errDetachedCommit
	}
	return c.repo.Files(ctx, c)
}

// ChangeKind represents the type of change.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindDeleted
	ChangeKindRenamed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindDeleted:
		return "deleted"
	case ChangeKindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileChange represents a file change within a commit.
type FileChange struct {
	Path    string
	OldPath string // renames and copies
	Kind    ChangeKind

	OldMode filemode.FileMode
	Mode    filemode.FileMode
	OldBlob string
	Blob    string

	LinesAdded   int
	LinesDeleted int
	Binary       bool

	repo *Repository
}

// Churn returns total lines changed (added + deleted).
func (f FileChange) Churn() int {
	return f.LinesAdded + f.LinesDeleted
}

// HasContent reports whether the change has blob content at the commit's
// snapshot. Deleted files and submodules do not.
func (f FileChange) HasContent() bool {
	return f.Kind != ChangeKindDeleted && f.Mode.IsFile() && f.Blob != "" && !isZeroHash(f.Blob)
}

// Content fetches the file's content at the commit's snapshot. Every call runs
// a new blob fetch; nothing is cached. Deleted files return ErrNoContent.
func (f FileChange) Content(ctx context.Context) ([]byte, error) {
	if !f.HasContent() {
		return nil, ErrNoContent
	}
	if f.repo == nil {
		return nil, errDetachedCommit
	}
	return f.repo.blob(ctx, f.Blob)
}

// HasOldContent reports whether the change has blob content at the parent's
// snapshot. Added files and submodules do not.
func (f FileChange) HasOldContent() bool {
	return f.Kind != ChangeKindAdded && f.OldMode.IsFile() && f.OldBlob != "" && !isZeroHash(f.OldBlob)
}

// OldContent fetches the file's content before the change, at OldPath for
// renames. Added files return ErrNoContent.
func (f FileChange) OldContent(ctx context.Context) ([]byte, error) {
	if !f.HasOldContent() {
		return nil, ErrNoContent
	}
	if f.repo == nil {
		return nil, errDetachedCommit
	}
	return f.repo.blob(ctx, f.OldBlob)
}

func isZeroHash(h string) bool {
	return strings.Trim(h, "0") == ""
}
