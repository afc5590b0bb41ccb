package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/masmgr/gitstream/internal/bugfix"
	"github.com/masmgr/gitstream/internal/coupling"
)

func streamRecords(t *testing.T, format OutputFormat, recs ...CommitRecord) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewCommitWriter(format, &buf)
	if err := w.Begin(LogHeader{RepoPath: "/repo", GeneratedAt: testWhen}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, rec := range recs {
		if err := w.WriteCommit(rec); err != nil {
			t.Fatalf("WriteCommit: %v", err)
		}
	}
	if err := w.End(len(recs)); err != nil {
		t.Fatalf("End: %v", err)
	}
	return buf.String()
}

func TestConsoleCommitWriter(t *testing.T) {
	out := streamRecords(t, FormatConsole, testRecord(true), testRecord(false))

	for _, want := range []string{
		"commit 0123456789abcdef0123456789abcdef01234567 (HEAD -> main)",
		"Author: Alice <alice@example.com>",
		"Date:   2024-06-01 10:30:00 +0000",
		"    Fix parser | edge case",
		"    Longer body.",
		"src/parser.go",
		"+3 -1",
		"docs/old.md -> docs/new.md",
		"2 files changed, 3 insertions(+), 1 deletions(-)",
		"--- src/parser.go",
		"package parser",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "commit 0123") != 2 {
		t.Errorf("expected two commits:\n%s", out)
	}
}

func TestConsoleCommitWriter_Patch(t *testing.T) {
	rec := testRecord(true)
	rec.Files[0].Patch = "--- a/src/parser.go\n+++ b/src/parser.go\n@@ -1 +1 @@\n-package old\n+package parser\n"
	out := streamRecords(t, FormatConsole, rec)

	if !strings.Contains(out, rec.Files[0].Patch) {
		t.Errorf("console output missing patch:\n%s", out)
	}
}

func TestJSONCommitWriter_Patch(t *testing.T) {
	rec := testRecord(true)
	rec.Files[0].Patch = "@@ -1 +1 @@\n-a\n+b\n"
	out := streamRecords(t, FormatNDJSON, rec)

	if !strings.Contains(out, `"patch":"@@ -1 +1 @@\n-a\n+b\n"`) {
		t.Errorf("ndjson output missing patch:\n%s", out)
	}
}

func TestConsoleCommitWriter_Empty(t *testing.T) {
	out := streamRecords(t, FormatConsole)
	if !strings.Contains(out, "No commits found.") {
		t.Fatalf("output = %q", out)
	}
}

func TestJSONCommitWriter(t *testing.T) {
	out := streamRecords(t, FormatJSON, testRecord(true), testRecord(false))

	var doc struct {
		Repo    string       `json:"repo"`
		Commits []JSONCommit `json:"commits"`
		Total   int          `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.Repo != "/repo" || doc.Total != 2 || len(doc.Commits) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	first := doc.Commits[0]
	if first.Author.When != "2024-06-01T10:30:00Z" || first.Message != "Fix parser | edge case\n\nLonger body.\n" {
		t.Fatalf("first = %+v", first)
	}
	if len(first.Files) != 2 || first.Files[1].OldPath != "docs/old.md" || first.Files[1].Kind != "renamed" {
		t.Fatalf("files = %+v", first.Files)
	}
	if first.Files[0].Content == nil || *first.Files[0].Content != "package parser\n" {
		t.Fatalf("content = %v", first.Files[0].Content)
	}
	if first.Stats == nil || first.Stats.Added != 3 {
		t.Fatalf("stats = %+v", first.Stats)
	}
	if doc.Commits[1].Files != nil || doc.Commits[1].Stats != nil {
		t.Fatalf("second commit should have no files: %+v", doc.Commits[1])
	}
}

func TestJSONCommitWriter_Empty(t *testing.T) {
	out := streamRecords(t, FormatJSON)
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if commits, ok := doc["commits"].([]any); !ok || len(commits) != 0 {
		t.Fatalf("commits = %v", doc["commits"])
	}
}

func TestJSONFileChange_BinaryContent(t *testing.T) {
	rec := testRecord(true)
	rec.Files[0].Change.Binary = true
	rec.Files[0].Content = []byte{0xff, 0x00, 0x01}
	jf := toJSONFileChange(rec.Files[0])
	if jf.Content != nil || !bytes.Equal(jf.ContentBase64, []byte{0xff, 0x00, 0x01}) {
		t.Fatalf("binary content = %+v", jf)
	}
}

func TestNDJSONCommitWriter(t *testing.T) {
	out := streamRecords(t, FormatNDJSON, testRecord(false), testRecord(false))

	scanner := bufio.NewScanner(strings.NewReader(out))
	var types []string
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		types = append(types, line["type"].(string))
		if line["type"] == "commit" && line["hash"] == nil {
			t.Fatalf("commit line without inlined hash: %q", scanner.Text())
		}
		if line["type"] == "summary" && line["commits"] != float64(2) {
			t.Fatalf("summary = %v", line)
		}
	}
	if strings.Join(types, ",") != "commit,commit,summary" {
		t.Fatalf("line types = %v", types)
	}
}

func TestCSVCommitWriter(t *testing.T) {
	out := streamRecords(t, FormatCSV, testRecord(true), testRecord(false))

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, expected header + 2", len(rows))
	}
	if rows[0][0] != "Hash" || len(rows[0]) != len(commitCSVHeaders) {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][9] != "Fix parser | edge case" || rows[1][10] != "2" || rows[1][11] != "3" {
		t.Fatalf("row = %v", rows[1])
	}
	if rows[2][10] != "" {
		t.Fatalf("row without files = %v", rows[2])
	}
}

func TestMarkdownCommitWriter(t *testing.T) {
	out := streamRecords(t, FormatMarkdown, testRecord(true))
	for _, want := range []string{
		"# Commit Log",
		"**Repository:** /repo",
		"| 1 | `01234567` | 2024-06-01 | Alice | Fix parser \\| edge case | 2 | +3 -1 |",
		"**Total commits:** 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func writeStats(t *testing.T, format OutputFormat, top int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.out")
	report := &StatsReport{RepoPath: "/repo", GeneratedAt: testWhen, Summary: testSummary()}
	if err := NewStatsReportWriter(format).Write(report, OutputOptions{Format: format, Top: top, OutputPath: path}); err != nil {
		t.Fatalf("Write(%s): %v", format, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestConsoleStatsWriter(t *testing.T) {
	out := writeStats(t, FormatConsole, 0)
	for _, want := range []string{
		"History Summary",
		"Repository: /repo",
		"Period: all history",
		"Commits: 2 (merges: 0, roots: 2)",
		"Files: 2  Authors: 2",
		"Changes: 2 added, 1 modified, 0 deleted, 0 renamed",
		"a.go",
		"Alice <alice@example.com>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console stats missing %q:\n%s", want, out)
		}
	}
}

func TestJSONStatsWriter(t *testing.T) {
	out := writeStats(t, FormatJSON, 1)
	var r JSONStatsReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if r.Commits != 2 || r.TotalFiles != 2 || r.TotalAuthors != 2 {
		t.Fatalf("report = %+v", r)
	}
	if len(r.Files) != 1 || r.Files[0].Path != "a.go" || r.Files[0].CommitCount != 2 {
		t.Fatalf("files = %+v", r.Files)
	}
	if len(r.Authors) != 1 || r.Changes["added"] != 2 {
		t.Fatalf("authors = %+v changes = %v", r.Authors, r.Changes)
	}
}

func TestNDJSONStatsWriter(t *testing.T) {
	out := writeStats(t, FormatNDJSON, 0)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, expected summary + 2 files + 2 authors:\n%s", len(lines), out)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first["type"] != "summary" {
		t.Fatalf("first line = %q (%v)", lines[0], err)
	}
}

func TestCSVStatsWriter(t *testing.T) {
	out := writeStats(t, FormatCSV, 0)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "a.go" || rows[1][1] != "2" || rows[1][4] != "12" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestMarkdownStatsWriter(t *testing.T) {
	out := writeStats(t, FormatMarkdown, 0)
	for _, want := range []string{
		"# History Summary",
		"| 1 | `a.go` | 2 | 12 | 2 |",
		"Bob\\_B",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown stats missing %q:\n%s", want, out)
		}
	}
}

func testCoupling() *coupling.CouplingAnalysisResult {
	return &coupling.CouplingAnalysisResult{
		Couplings: []coupling.ChangeCoupling{{
			FileA: "a.go", FileB: "b.go", CoCommitCount: 3,
			FileACommitCount: 4, FileBCommitCount: 3,
			JaccardCoefficient: 0.75, Confidence: 0.75, Lift: 1.5,
		}},
		TotalCommits: 5,
		TotalFiles:   2,
		TotalPairs:   1,
	}
}

func TestStatsWriters_Coupling(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{format: FormatConsole, want: "Change Coupling"},
		{format: FormatJSON, want: `"jaccard": 0.75`},
		{format: FormatNDJSON, want: `"type":"coupling","fileA":"a.go","fileB":"b.go","coCommitCount":3`},
		{format: FormatMarkdown, want: "| 1 | `a.go` | `b.go` | 3 | 0.750 | 0.750 |"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "stats.out")
			report := &StatsReport{RepoPath: "/repo", GeneratedAt: testWhen, Summary: testSummary(), Coupling: testCoupling()}
			if err := NewStatsReportWriter(tt.format).Write(report, OutputOptions{Format: tt.format, OutputPath: path}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, data)
			}
		})
	}
}

func TestJSONStatsWriter_NoCouplingSection(t *testing.T) {
	out := writeStats(t, FormatJSON, 0)
	if strings.Contains(out, "couplings") {
		t.Errorf("couplings present without analysis:\n%s", out)
	}
}

func TestStatsWriters_Bugfix(t *testing.T) {
	result := &bugfix.BugfixResult{
		FileBugfixCounts: map[string]int{"a.go": 2, "b.go": 1},
		FileScores:       map[string]float64{"a.go": 0.75, "b.go": 0.5},
		TotalBugfixes:    2,
		TotalCommits:     2,
	}
	tests := []struct {
		format OutputFormat
		want   []string
	}{
		{format: FormatConsole, want: []string{"Bugfix Hotspots", "Bugfix commits: 2 of 2", "0.7500"}},
		{format: FormatJSON, want: []string{`"bugfix": {`, `"fixes": 2`, `"score": 0.75`}},
		{format: FormatNDJSON, want: []string{`"bugfixes":2`, `{"type":"bugfix","path":"a.go","fixes":2,"score":0.75}`}},
		{format: FormatMarkdown, want: []string{"## Bugfix Hotspots", "| 1 | `a.go` | 2 | 0.7500 |"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "stats.out")
			report := &StatsReport{RepoPath: "/repo", GeneratedAt: testWhen, Summary: testSummary(), Bugfix: result}
			if err := NewStatsReportWriter(tt.format).Write(report, OutputOptions{Format: tt.format, OutputPath: path}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(data), want) {
					t.Errorf("output missing %q:\n%s", want, data)
				}
			}
		})
	}
}
