package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// NDJSONCommitWriter writes one JSON object per line, suited to pipelines
// that consume commits while git is still producing them.
type NDJSONCommitWriter struct {
	out io.Writer
}

// NDJSONCommit is a commit line.
type NDJSONCommit struct {
	Type string `json:"type"`
	JSONCommit
}

// NDJSONSummary is the last line of a commit stream.
type NDJSONSummary struct {
	Type    string `json:"type"`
	Commits int    `json:"commits"`
}

// Begin writes nothing; NDJSON has no header line.
func (w *NDJSONCommitWriter) Begin(LogHeader) error {
	return nil
}

// WriteCommit writes one commit line.
func (w *NDJSONCommitWriter) WriteCommit(rec CommitRecord) error {
	return writeNDJSONLine(w.out, NDJSONCommit{Type: "commit", JSONCommit: toJSONCommit(rec)})
}

// End writes the summary line.
func (w *NDJSONCommitWriter) End(total int) error {
	return writeNDJSONLine(w.out, NDJSONSummary{Type: "summary", Commits: total})
}

// NDJSONStatsWriter writes stats reports as NDJSON: a summary line followed
// by one line per file and per author.
type NDJSONStatsWriter struct{}

type ndjsonStatsSummary struct {
	Type         string         `json:"type"`
	Commits      int            `json:"commits"`
	Merges       int            `json:"merges"`
	TotalFiles   int            `json:"totalFiles"`
	TotalAuthors int            `json:"totalAuthors"`
	Changes      map[string]int `json:"changes"`
	Bugfixes     *int           `json:"bugfixes,omitempty"`
}

type ndjsonFile struct {
	Type string `json:"type"`
	JSONFileMetrics
}

type ndjsonAuthor struct {
	Type string `json:"type"`
	JSONAuthor
}

type ndjsonBugfixFile struct {
	Type string `json:"type"`
	JSONBugfixFile
}

type ndjsonCoupling struct {
	Type string `json:"type"`
	JSONCoupling
}

// Write outputs the stats report as NDJSON.
func (w *NDJSONStatsWriter) Write(report *StatsReport, options OutputOptions) (err error) {
	out, closeOut, err := OpenOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer CloseOutput(closeOut, &err)

	r := toJSONStatsReport(report, options.Top)
	summary := ndjsonStatsSummary{
		Type:         "summary",
		Commits:      r.Commits,
		Merges:       r.Merges,
		TotalFiles:   r.TotalFiles,
		TotalAuthors: r.TotalAuthors,
		Changes:      r.Changes,
	}
	if r.Bugfix != nil {
		summary.Bugfixes = &r.Bugfix.Commits
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}
	for _, f := range r.Files {
		if err := writeNDJSONLine(out, ndjsonFile{Type: "file", JSONFileMetrics: f}); err != nil {
			return err
		}
	}
	for _, a := range r.Authors {
		if err := writeNDJSONLine(out, ndjsonAuthor{Type: "author", JSONAuthor: a}); err != nil {
			return err
		}
	}
	if r.Bugfix != nil {
		for _, f := range r.Bugfix.Files {
			if err := writeNDJSONLine(out, ndjsonBugfixFile{Type: "bugfix", JSONBugfixFile: f}); err != nil {
				return err
			}
		}
	}
	for _, c := range r.Couplings {
		if err := writeNDJSONLine(out, ndjsonCoupling{Type: "coupling", JSONCoupling: c}); err != nil {
			return err
		}
	}
	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
