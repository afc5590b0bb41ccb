package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var commitCSVHeaders = []string{
	"Hash", "Parents", "AuthorName", "AuthorEmail", "AuthorDate",
	"CommitterName", "CommitterEmail", "CommitDate", "Refs", "Subject",
	"Files", "LinesAdded", "LinesDeleted",
}

// CSVCommitWriter writes one CSV row per commit, flushing after each row.
type CSVCommitWriter struct {
	w *csv.Writer
}

func newCSVCommitWriter(out io.Writer) *CSVCommitWriter {
	return &CSVCommitWriter{w: csv.NewWriter(out)}
}

// Begin writes the header row.
func (w *CSVCommitWriter) Begin(LogHeader) error {
	if err := w.w.Write(commitCSVHeaders); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// WriteCommit writes one row. File columns stay empty unless files were
// enumerated.
func (w *CSVCommitWriter) WriteCommit(rec CommitRecord) error {
	c := rec.Commit
	row := []string{
		c.Hash,
		strings.Join(c.ParentHashes, " "),
		c.Author.Name,
		c.Author.Email,
		c.Author.When.Format(time.RFC3339),
		c.Committer.Name,
		c.Committer.Email,
		c.Committer.When.Format(time.RFC3339),
		strings.Join(c.RefNames, ", "),
		c.Subject(),
		"", "", "",
	}
	if m := rec.Metrics; m != nil {
		row[10] = strconv.Itoa(m.FileCount)
		row[11] = strconv.Itoa(m.LinesAdded)
		row[12] = strconv.Itoa(m.LinesDeleted)
	}
	if err := w.w.Write(row); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// End flushes any buffered output.
func (w *CSVCommitWriter) End(int) error {
	w.w.Flush()
	return w.w.Error()
}

// CSVStatsWriter writes the per-file part of a stats report as CSV.
type CSVStatsWriter struct{}

// Write outputs the file metrics of the stats report as CSV.
func (w *CSVStatsWriter) Write(report *StatsReport, options OutputOptions) (err error) {
	out, closeOut, err := OpenOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer CloseOutput(closeOut, &err)

	writer := csv.NewWriter(out)
	headers := []string{"Path", "CommitCount", "ChurnAdded", "ChurnDeleted", "ChurnTotal",
		"FirstSeen", "LastModified", "Contributors", "OwnershipRatio", "Deleted"}
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, f := range report.Summary.TopFiles(options.Top) {
		row := []string{
			f.Path,
			strconv.Itoa(f.CommitCount),
			strconv.Itoa(f.AddedLines),
			strconv.Itoa(f.DeletedLines),
			strconv.Itoa(f.ChurnTotal()),
			f.FirstSeenAt.Format(reportDateTimeLayout),
			f.LastModifiedAt.Format(reportDateTimeLayout),
			strconv.Itoa(f.ContributorCount()),
			fmt.Sprintf("%.6f", f.OwnershipRatio()),
			strconv.FormatBool(f.Deleted),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
