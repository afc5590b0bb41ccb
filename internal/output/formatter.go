package output

import (
	"io"
	"time"

	"github.com/masmgr/gitstream/history"
	"github.com/masmgr/gitstream/internal/aggregation"
	"github.com/masmgr/gitstream/internal/bugfix"
	"github.com/masmgr/gitstream/internal/coupling"
)

// Compile-time interface conformance checks.
var (
	// CommitWriter implementations
	_ CommitWriter = (*ConsoleCommitWriter)(nil)
	_ CommitWriter = (*JSONCommitWriter)(nil)
	_ CommitWriter = (*NDJSONCommitWriter)(nil)
	_ CommitWriter = (*CSVCommitWriter)(nil)
	_ CommitWriter = (*MarkdownCommitWriter)(nil)

	// StatsReportWriter implementations
	_ StatsReportWriter = (*ConsoleStatsWriter)(nil)
	_ StatsReportWriter = (*JSONStatsWriter)(nil)
	_ StatsReportWriter = (*NDJSONStatsWriter)(nil)
	_ StatsReportWriter = (*CSVStatsWriter)(nil)
	_ StatsReportWriter = (*MarkdownStatsWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatNDJSON   OutputFormat = "ndjson"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// LogHeader describes a commit stream before its first record.
type LogHeader struct {
	RepoPath    string
	GeneratedAt time.Time
}

// FileRecord is one changed file, optionally with its content and diff.
type FileRecord struct {
	Change  history.FileChange
	Content []byte // nil unless content was requested
	Patch   string // unified diff against the parent; empty when not requested
}

// CommitRecord is one entry of a commit stream. Files and Metrics are only
// set when file enumeration was requested.
type CommitRecord struct {
	Commit  *history.Commit
	Files   []FileRecord
	Metrics *aggregation.CommitMetrics
}

// CommitWriter renders a commit stream incrementally: Begin once, WriteCommit
// for every record as it arrives, End once with the number of records.
type CommitWriter interface {
	Begin(header LogHeader) error
	WriteCommit(rec CommitRecord) error
	End(total int) error
}

// StatsReport holds an aggregated history summary.
type StatsReport struct {
	RepoPath    string
	Since       *time.Time
	Until       *time.Time
	GeneratedAt time.Time
	Summary     *aggregation.Summary
	Coupling    *coupling.CouplingAnalysisResult // nil unless requested
	Bugfix      *bugfix.BugfixResult             // nil unless requested
}

// StatsReportWriter writes stats reports.
type StatsReportWriter interface {
	Write(report *StatsReport, options OutputOptions) error
}

// NewCommitWriter creates a streaming commit writer for the specified format.
func NewCommitWriter(format OutputFormat, out io.Writer) CommitWriter {
	switch format {
	case FormatJSON:
		return &JSONCommitWriter{out: out}
	case FormatNDJSON:
		return &NDJSONCommitWriter{out: out}
	case FormatCSV:
		return newCSVCommitWriter(out)
	case FormatMarkdown:
		return &MarkdownCommitWriter{out: out}
	default:
		return &ConsoleCommitWriter{out: out}
	}
}

// NewStatsReportWriter creates a stats report writer for the specified format.
func NewStatsReportWriter(format OutputFormat) StatsReportWriter {
	switch format {
	case FormatJSON:
		return &JSONStatsWriter{}
	case FormatNDJSON:
		return &NDJSONStatsWriter{}
	case FormatCSV:
		return &CSVStatsWriter{}
	case FormatMarkdown:
		return &MarkdownStatsWriter{}
	default:
		return &ConsoleStatsWriter{}
	}
}
