package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"
)

// CommitHash is the light form of a commit: object ids and author date
// only. ChildHashes lists the children found within the same traversal.
type CommitHash struct {
	Hash         string
	TreeHash     string
	ParentHashes []string
	ChildHashes  []string
	When         time.Time
}

// rev-list prints "commit <hash> <children...>" before every formatted
// record, so the block carries that header line ahead of the fields.
const (
	hashFormat = "%aI%x00%T%x00%P%x00%x1e"
	hashFields = 3
)

// HashIterator is a lazy, single-pass sequence of CommitHash values backed by
// one git rev-list process. It is not safe for concurrent use.
type HashIterator struct {
	cursor
}

// Next returns the next commit hash record, or io.EOF when the traversal is
// exhausted. Errors are sticky as for CommitIterator.
func (it *HashIterator) Next() (*CommitHash, error) {
	block, err := it.nextBlock()
	if err != nil {
		return nil, err
	}
	h, err := parseHashRecord(it.index, block)
	if err != nil {
		return nil, it.fail(err)
	}
	it.index++
	return h, nil
}

// All adapts the iterator to a range-over-func sequence. Breaking out of the
// loop closes the iterator.
func (it *HashIterator) All() iter.Seq2[*CommitHash, error] {
	return func(yield func(*CommitHash, error) bool) {
		defer it.Close()
		for {
			h, err := it.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(h, nil) {
				return
			}
		}
	}
}

// CommitHashes streams the ids of the commits opts selects without reading
// their messages or signatures. Author, committer, date and parent filters
// apply as for Commits.
func (r *Repository) CommitHashes(ctx context.Context, opts LogOptions) (*HashIterator, error) {
	if opts.usesImplicitHead() {
		ok, err := r.hasHead(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &HashIterator{cursor{state: StateExhausted}}, nil
		}
	}
	args := []string{"rev-list", "--children", "--pretty=tformat:" + hashFormat}
	args = append(args, opts.orderArgs()...)
	args = append(args, opts.filterArgs()...)
	if opts.usesImplicitHead() {
		args = append(args, "HEAD")
	}
	args = append(args, opts.revisionArgs()...)

	stream, err := startBlockStream(ctx, r, args, hashFields)
	if err != nil {
		return nil, err
	}
	return &HashIterator{cursor{repo: r, src: stream}}, nil
}

func parseHashRecord(index int, block []byte) (*CommitHash, error) {
	header, body, ok := bytes.Cut(block, []byte{'\n'})
	if !ok {
		return nil, &ParseError{Index: index, Reason: "missing commit header"}
	}
	words := strings.Fields(string(header))
	if len(words) < 2 || words[0] != "commit" {
		return nil, &ParseError{Index: index, Field: "header", Reason: fmt.Sprintf("unexpected header %q", header)}
	}
	if !isObjectID(words[1]) {
		return nil, &ParseError{Index: index, Field: "hash", Reason: fmt.Sprintf("invalid object id %q", words[1])}
	}
	ids, err := objectIDs(index, "children", words[2:])
	if err != nil {
		return nil, err
	}

	parts := bytes.SplitN(body, []byte{fieldSep}, hashFields)
	if len(parts) != hashFields {
		return nil, &ParseError{Index: index, Reason: fmt.Sprintf("got %d fields, want %d", len(parts), hashFields)}
	}
	when, err := time.Parse(time.RFC3339, string(parts[0]))
	if err != nil {
		return nil, &ParseError{Index: index, Field: "author date", Reason: "invalid date", Err: err}
	}
	tree := string(parts[1])
	if !isObjectID(tree) {
		return nil, &ParseError{Index: index, Field: "tree", Reason: fmt.Sprintf("invalid object id %q", tree)}
	}
	parents, err := objectIDs(index, "parents", strings.Fields(string(parts[2])))
	if err != nil {
		return nil, err
	}
	return &CommitHash{
		Hash:         words[1],
		TreeHash:     tree,
		ParentHashes: parents,
		ChildHashes:  ids,
		When:         when,
	}, nil
}

func objectIDs(index int, field string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if !isObjectID(id) {
			return nil, &ParseError{Index: index, Field: field, Reason: fmt.Sprintf("invalid object id %q", id)}
		}
	}
	return ids, nil
}
