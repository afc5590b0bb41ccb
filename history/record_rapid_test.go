package history

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"pgregory.net/rapid"
)

// --- Generators ---

// genText draws strings that can appear in a commit field: anything but NUL,
// with the record separator and line breaks over-represented.
func genText(maxLen int) *rapid.Generator[string] {
	special := rapid.SampledFrom([]rune{'\x1e', '\n', '\r', '\t', ' ', 'é', '世'})
	plain := rapid.RuneFrom([]rune("abcdefghijklmnopqrstuvwxyzABCXYZ0123456789<>@.-_"))
	r := rapid.OneOf(special, plain)
	return rapid.Custom(func(t *rapid.T) string {
		runes := rapid.SliceOfN(r, 0, maxLen).Draw(t, "runes")
		return string(runes)
	})
}

type genRecord struct {
	fields []string
	author time.Time
	parent int
}

func genHash() *rapid.Generator[string] {
	return rapid.StringMatching(`[0-9a-f]{40}`)
}

func genCommitRecord() *rapid.Generator[genRecord] {
	return rapid.Custom(func(t *rapid.T) genRecord {
		parentCount := rapid.IntRange(0, 3).Draw(t, "parents")
		parents := make([]string, parentCount)
		for i := range parents {
			parents[i] = genHash().Draw(t, "parent")
		}
		offset := rapid.IntRange(-12, 14).Draw(t, "offset") * 3600
		when := time.Unix(rapid.Int64Range(0, 4102444800).Draw(t, "unix"), 0).In(time.FixedZone("", offset))
		fields := []string{
			genHash().Draw(t, "hash"),
			genHash().Draw(t, "tree"),
			strings.Join(parents, " "),
			genText(20).Draw(t, "author name"),
			genText(20).Draw(t, "author email"),
			when.Format(time.RFC3339),
			genText(20).Draw(t, "committer name"),
			genText(20).Draw(t, "committer email"),
			when.Format(time.RFC3339),
			"",
			"",
			genText(200).Draw(t, "message"),
		}
		return genRecord{fields: fields, author: when, parent: parentCount}
	})
}

// --- Property Tests ---

func TestRapidLogStream_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := rapid.SliceOfN(genCommitRecord(), 0, 10).Draw(t, "records")

		var stream []byte
		for _, r := range records {
			stream = append(stream, frameRecord(r.fields)...)
			stream = append(stream, '\n')
		}

		br := newBlockReader(bytes.NewReader(stream), len(logFields))
		for i, want := range records {
			block, err := br.Next()
			if err != nil {
				t.Fatalf("Next(%d): %v", i, err)
			}
			c, err := parseCommitRecord(i, block, textDecoder{policy: DecodeStrict})
			if err != nil {
				t.Fatalf("parseCommitRecord(%d): %v", i, err)
			}
			if c.Hash != want.fields[0] || c.TreeHash != want.fields[1] {
				t.Fatalf("record %d: hash/tree mismatch", i)
			}
			if len(c.ParentHashes) != want.parent {
				t.Fatalf("record %d: parents = %d, expected %d", i, len(c.ParentHashes), want.parent)
			}
			if c.Author.Name != want.fields[3] || c.Committer.Email != want.fields[7] {
				t.Fatalf("record %d: signature mismatch", i)
			}
			if !c.Author.When.Equal(want.author) {
				t.Fatalf("record %d: author date %v, expected %v", i, c.Author.When, want.author)
			}
			if c.Message != want.fields[11] {
				t.Fatalf("record %d: message %q, expected %q", i, c.Message, want.fields[11])
			}
		}
		if _, err := br.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next after %d records = %v, expected io.EOF", len(records), err)
		}
	})
}

func TestRapidLogStream_TruncationNeverYieldsPartialRecord(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := genCommitRecord().Draw(t, "record")
		full := frameRecord(rec.fields)
		cut := rapid.IntRange(1, len(full)-1).Draw(t, "cut")

		_, err := newBlockReader(bytes.NewReader(full[:cut]), len(logFields)).Next()
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Next on %d/%d bytes = %v, expected *ParseError", cut, len(full), err)
		}
	})
}

func TestRapidTextDecoder_ReplaceAlwaysValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOf(rapid.Byte()).Draw(t, "raw")
		got, err := textDecoder{policy: DecodeReplace}.decode(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("decode(%x) = %q is not valid UTF-8", raw, got)
		}
		if utf8.Valid(raw) && got != string(raw) {
			t.Fatalf("valid input changed: %q -> %q", raw, got)
		}
	})
}

func TestRapidKindFromStatus_Total(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.StringMatching(`[ACDMRTUX][0-9]{0,3}`).Draw(t, "status")
		kind, old := kindFromStatus(status, "src")
		if s := kind.String(); s == "unknown" {
			t.Fatalf("kindFromStatus(%q) = %v", status, kind)
		}
		if old != "" && !isTwoPathStatus(status) {
			t.Fatalf("kindFromStatus(%q) kept old path %q", status, old)
		}
	})
}
