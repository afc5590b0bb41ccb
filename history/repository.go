package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
)

// Repository is an opened git repository whose history can be streamed.
//
// All git output belonging to one Repository is read under a single lock: the
// primary log stream and the per-commit queries never read concurrently, even
// when callers use several goroutines.
type Repository struct {
	root   string
	gitBin string
	logger *slog.Logger
	dec    textDecoder
	rename RenameDetectMode
	filter pathFilter

	mu sync.Mutex
}

// Open validates that path lies inside a git repository and returns a handle
// rooted at the repository's top level.
func Open(path string, opts OpenOptions) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &RepositoryNotFoundError{Path: path, Err: err}
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, &RepositoryNotFoundError{Path: path, Err: err}
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	} else if !errors.Is(err, gogit.ErrIsBareRepository) {
		return nil, &RepositoryNotFoundError{Path: path, Err: err}
	}

	filter, err := newPathFilter(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		root:   root,
		gitBin: opts.GitBinary,
		logger: opts.Logger,
		dec:    textDecoder{policy: opts.Decode},
		rename: opts.RenameDetect,
		filter: filter,
	}
	if r.gitBin == "" {
		r.gitBin = "git"
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if !opts.SkipVersionCheck {
		if err := ensureMinGitVersion(context.Background(), r.gitBin, r.logger); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Root returns the repository's top-level directory.
func (r *Repository) Root() string {
	return r.root
}

// Commits starts streaming the history selected by opts.
//
// The returned iterator owns one git process until it is exhausted, fails or is
// closed; callers must Close it when they stop early.
func (r *Repository) Commits(ctx context.Context, opts LogOptions) (*CommitIterator, error) {
	if opts.usesImplicitHead() {
		ok, err := r.hasHead(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			// An unborn branch has no history; git log would fail instead.
			return newExhaustedIterator(), nil
		}
	}
	stream, err := startLogStream(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	return newCommitIterator(r, stream), nil
}

// Files enumerates the changes of c against its first parent. The whole list
// for the commit is realized in memory; file content is fetched lazily per
// entry by FileChange.Content.
func (r *Repository) Files(ctx context.Context, c *Commit) ([]FileChange, error) {
	args := []string{"diff-tree", "-r", "--no-commit-id", "-z", "--raw", "--numstat", "--no-abbrev", r.rename.diffArg()}
	if c.IsRoot() {
		args = append(args, "--root", c.Hash)
	} else {
		args = append(args, c.ParentHashes[0], c.Hash)
	}

	r.mu.Lock()
	out, err := runGit(ctx, r.gitBin, r.root, args, r.logger, false)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("enumerate files of %s: %w", c.ShortHash(), err)
	}
	return r.parseFileChanges(out)
}

func (r *Repository) parseFileChanges(out []byte) ([]FileChange, error) {
	entries, pos, err := parseRawEntries(out)
	if err != nil {
		return nil, &ParseError{Reason: "diff-tree output", Err: err}
	}
	stats, err := parseNumstat(out[pos:], entries)
	if err != nil {
		return nil, &ParseError{Reason: "diff-tree output", Err: err}
	}

	changes := make([]FileChange, 0, len(entries))
	for i, e := range entries {
		if !isTrackedFile(e.srcMode, e.dstMode) || e.path == "" {
			continue
		}
		if !r.filter.matchesChange(e.path, e.oldPath) {
			continue
		}
		path, err := r.dec.decode([]byte(e.path))
		if err != nil {
			return nil, &EncodingError{Index: i, Field: "path", Err: err}
		}
		kind, oldPath := kindFromStatus(e.status, e.oldPath)
		if oldPath != "" {
			if oldPath, err = r.dec.decode([]byte(oldPath)); err != nil {
				return nil, &EncodingError{Index: i, Field: "old path", Err: err}
			}
		}
		changes = append(changes, FileChange{
			Path:         path,
			OldPath:      oldPath,
			Kind:         kind,
			OldMode:      e.srcMode,
			Mode:         e.dstMode,
			OldBlob:      e.srcBlob,
			Blob:         e.dstBlob,
			LinesAdded:   stats[i].added,
			LinesDeleted: stats[i].deleted,
			Binary:       stats[i].binary,
			repo:         r,
		})
	}
	return changes, nil
}

// blob fetches one object's content with git cat-file.
func (r *Repository) blob(ctx context.Context, id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := runGit(ctx, r.gitBin, r.root, []string{"cat-file", "blob", id}, r.logger, false)
	if err != nil {
		return nil, fmt.Errorf("fetch blob %s: %w", id, err)
	}
	return out, nil
}

// hasHead reports whether HEAD resolves to a commit.
func (r *Repository) hasHead(ctx context.Context) (bool, error) {
	r.mu.Lock()
	out, err := runGit(ctx, r.gitBin, r.root, []string{"rev-parse", "-q", "--verify", "HEAD^{commit}"}, r.logger, true)
	r.mu.Unlock()
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// CountCommits returns how many commits opts selects without streaming them.
// Ordering, Skip and MaxCount are honored as git rev-list does.
func (r *Repository) CountCommits(ctx context.Context, opts LogOptions) (int, error) {
	if opts.usesImplicitHead() {
		ok, err := r.hasHead(ctx)
		if err != nil || !ok {
			return 0, err
		}
	}
	args := []string{"rev-list", "--count"}
	if opts.Skip > 0 {
		args = append(args, fmt.Sprintf("--skip=%d", opts.Skip))
	}
	if opts.MaxCount > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", opts.MaxCount))
	}
	args = append(args, opts.filterArgs()...)
	if opts.usesImplicitHead() {
		args = append(args, "HEAD")
	}
	args = append(args, opts.revisionArgs()...)

	r.mu.Lock()
	out, err := runGit(ctx, r.gitBin, r.root, args, r.logger, false)
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, &ParseError{Field: "count", Reason: fmt.Sprintf("unexpected rev-list output %q", strings.TrimSpace(string(out))), Err: err}
	}
	return n, nil
}

// Commit looks up a single commit by revision (hash, ref, HEAD~2, ...).
func (r *Repository) Commit(ctx context.Context, rev string) (*Commit, error) {
	if strings.TrimSpace(rev) == "" {
		return nil, fmt.Errorf("revision not specified")
	}
	c, err := r.firstOf(ctx, LogOptions{Revisions: []string{rev}, MaxCount: 1})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("revision %q not found", rev)
	}
	return c, nil
}

// LastCommit returns the newest commit reachable from HEAD that touches paths
// (any commit when paths is empty), or nil for an empty repository.
func (r *Repository) LastCommit(ctx context.Context, paths ...string) (*Commit, error) {
	return r.firstOf(ctx, LogOptions{Paths: paths, MaxCount: 1})
}

// FirstCommit returns the oldest commit reachable from HEAD that touches paths
// (any commit when paths is empty), or nil for an empty repository.
func (r *Repository) FirstCommit(ctx context.Context, paths ...string) (*Commit, error) {
	// --max-count is applied before --reverse, so the limit cannot be pushed
	// down to git here.
	return r.firstOf(ctx, LogOptions{Paths: paths, Order: OrderReverse})
}

func (r *Repository) firstOf(ctx context.Context, opts LogOptions) (*Commit, error) {
	it, err := r.Commits(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	c, err := it.Next()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return c, err
}
