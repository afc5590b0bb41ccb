package history

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// The log format emits every field terminated by NUL and closes each record
// with an extra record-separator byte. NUL cannot occur inside a commit field,
// so the two-byte terminator NUL+RS never collides with content.
var logFields = []struct {
	placeholder string
	name        string
}{
	{"%H", "hash"},
	{"%T", "tree"},
	{"%P", "parents"},
	{"%an", "author name"},
	{"%ae", "author email"},
	{"%aI", "author date"},
	{"%cn", "committer name"},
	{"%ce", "committer email"},
	{"%cI", "committer date"},
	{"%D", "refs"},
	{"%e", "encoding"},
	{"%B", "message"},
}

const (
	fieldSep  = 0x00
	recordSep = 0x1e
)

var recordTerminator = []byte{fieldSep, recordSep}

var logFormat = func() string {
	var b strings.Builder
	for _, f := range logFields {
		b.WriteString(f.placeholder)
		b.WriteString("%x00")
	}
	b.WriteString("%x1e")
	return b.String()
}()

// parseCommitRecord converts one raw block (terminator already removed) into a
// Commit. index is the block's position in the stream and only feeds errors.
func parseCommitRecord(index int, block []byte, dec textDecoder) (*Commit, error) {
	parts := bytes.SplitN(block, []byte{fieldSep}, len(logFields))
	if len(parts) != len(logFields) {
		return nil, &ParseError{
			Index:  index,
			Reason: fmt.Sprintf("got %d fields, want %d", len(parts), len(logFields)),
		}
	}
	hash := string(parts[0])
	if !isObjectID(hash) {
		return nil, &ParseError{Index: index, Field: "hash", Reason: fmt.Sprintf("invalid object id %q", hash)}
	}
	tree := string(parts[1])
	if !isObjectID(tree) {
		return nil, &ParseError{Index: index, Field: "tree", Reason: fmt.Sprintf("invalid object id %q", tree)}
	}
	var parents []string
	for _, p := range strings.Fields(string(parts[2])) {
		if !isObjectID(p) {
			return nil, &ParseError{Index: index, Field: "parents", Reason: fmt.Sprintf("invalid object id %q", p)}
		}
		parents = append(parents, p)
	}

	text := make([]string, len(parts))
	for _, i := range []int{3, 4, 6, 7, 9, 10, 11} {
		s, err := dec.decode(parts[i])
		if err != nil {
			return nil, &EncodingError{Index: index, Field: logFields[i].name, Err: err}
		}
		text[i] = s
	}

	authorWhen, err := parseLogDate(index, 5, parts[5])
	if err != nil {
		return nil, err
	}
	committerWhen, err := parseLogDate(index, 8, parts[8])
	if err != nil {
		return nil, err
	}

	var refs []string
	if s := strings.TrimSpace(text[9]); s != "" {
		refs = strings.Split(s, ", ")
	}

	return &Commit{
		Hash:         hash,
		TreeHash:     tree,
		ParentHashes: parents,
		Author:       Signature{Name: text[3], Email: text[4], When: authorWhen},
		Committer:    Signature{Name: text[6], Email: text[7], When: committerWhen},
		RefNames:     refs,
		Encoding:     strings.TrimSpace(text[10]),
		Message:      text[11],
	}, nil
}

func parseLogDate(index, field int, raw []byte) (time.Time, error) {
	when, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, &ParseError{Index: index, Field: logFields[field].name, Reason: "invalid date", Err: err}
	}
	return when, nil
}

// isObjectID accepts full SHA-1 ids and, for SHA-256 repositories, 64 hex digits.
func isObjectID(s string) bool {
	if plumbing.IsHash(s) {
		return true
	}
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
