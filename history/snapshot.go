package history

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// SnapshotFile is one file of a tree as it exists at some revision.
type SnapshotFile struct {
	Path string
	Mode filemode.FileMode
	Blob string
	Size int64

	repo *Repository
}

// Content fetches the file's content. Every call runs a new blob fetch.
func (f SnapshotFile) Content(ctx context.Context) ([]byte, error) {
	if f.repo == nil {
		return nil, errDetachedCommit
	}
	return f.repo.blob(ctx, f.Blob)
}

// Snapshot lists every file in the tree of treeish (a commit, tag or tree id;
// "" means HEAD), limited to paths when any are given. Submodules are skipped
// and the repository's include/exclude filters apply. The list is realized in
// memory; content is fetched lazily per entry. An unborn HEAD has no files.
func (r *Repository) Snapshot(ctx context.Context, treeish string, paths ...string) ([]SnapshotFile, error) {
	if strings.TrimSpace(treeish) == "" {
		ok, err := r.hasHead(ctx)
		if err != nil || !ok {
			return nil, err
		}
		treeish = "HEAD"
	}
	args := append([]string{"ls-tree", "-r", "-z", "--long", "--full-tree", treeish, "--"}, paths...)

	r.mu.Lock()
	out, err := runGit(ctx, r.gitBin, r.root, args, r.logger, false)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", treeish, err)
	}
	return r.parseSnapshot(out)
}

// parseSnapshot reads `ls-tree --long -z` entries:
// "<mode> SP <type> SP <object> SP+ <size> TAB <path> NUL".
func (r *Repository) parseSnapshot(out []byte) ([]SnapshotFile, error) {
	var files []SnapshotFile
	for i, entry := range bytes.Split(out, []byte{0}) {
		if len(entry) == 0 {
			continue
		}
		meta, rawPath, ok := bytes.Cut(entry, []byte{'\t'})
		if !ok {
			return nil, &ParseError{Index: i, Reason: fmt.Sprintf("ls-tree entry without path: %q", entry)}
		}
		fields := strings.Fields(string(meta))
		if len(fields) != 4 {
			return nil, &ParseError{Index: i, Reason: fmt.Sprintf("unexpected ls-tree entry %q", meta)}
		}
		if fields[1] != "blob" {
			continue
		}
		mode, err := parseFileMode(fields[0])
		if err != nil {
			return nil, &ParseError{Index: i, Field: "mode", Reason: "ls-tree output", Err: err}
		}
		if !isObjectID(fields[2]) {
			return nil, &ParseError{Index: i, Field: "object", Reason: fmt.Sprintf("invalid object id %q", fields[2])}
		}
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, &ParseError{Index: i, Field: "size", Reason: "ls-tree output", Err: err}
		}
		if !r.filter.matches(string(rawPath)) {
			continue
		}
		path, err := r.dec.decode(rawPath)
		if err != nil {
			return nil, &EncodingError{Index: i, Field: "path", Err: err}
		}
		files = append(files, SnapshotFile{
			Path: path,
			Mode: mode,
			Blob: fields[2],
			Size: size,
			repo: r,
		})
	}
	return files, nil
}
