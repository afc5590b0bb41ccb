package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/masmgr/gitstream/history"
)

// MarkdownCommitWriter writes a commit stream as a Markdown table.
type MarkdownCommitWriter struct {
	out     io.Writer
	written int
}

// Begin writes the title and table header.
func (w *MarkdownCommitWriter) Begin(header LogHeader) error {
	fmt.Fprintln(w.out, "# Commit Log")
	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "**Repository:** %s\n\n", header.RepoPath)
	fmt.Fprintf(w.out, "**Generated:** %s\n\n", header.GeneratedAt.Format(reportDateTimeLayout))
	fmt.Fprintln(w.out, "| # | Hash | Date | Author | Subject | Files | Churn |")
	_, err := fmt.Fprintln(w.out, "|---|------|------|--------|---------|-------|-------|")
	return err
}

// WriteCommit writes one table row.
func (w *MarkdownCommitWriter) WriteCommit(rec CommitRecord) error {
	w.written++
	c := rec.Commit
	files, churn := "", ""
	if m := rec.Metrics; m != nil {
		files = fmt.Sprintf("%d", m.FileCount)
		churn = fmt.Sprintf("+%d -%d", m.LinesAdded, m.LinesDeleted)
	}
	subject := escapeMarkdown(truncateMessage(c.Subject(), 60))
	if c.IsMerge() {
		subject = "🔀 " + subject
	}
	_, err := fmt.Fprintf(w.out, "| %d | `%s` | %s | %s | %s | %s | %s |\n",
		w.written, shortHash(c.Hash), c.Author.When.Format(reportDateLayout),
		escapeMarkdown(c.Author.Name), subject, files, churn)
	return err
}

// End writes the total.
func (w *MarkdownCommitWriter) End(total int) error {
	_, err := fmt.Fprintf(w.out, "\n**Total commits:** %d\n", total)
	return err
}

// MarkdownStatsWriter writes stats reports as Markdown.
type MarkdownStatsWriter struct{}

// Write outputs the stats report as Markdown.
func (w *MarkdownStatsWriter) Write(report *StatsReport, options OutputOptions) (err error) {
	out, closeOut, err := OpenOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer CloseOutput(closeOut, &err)

	s := report.Summary
	fmt.Fprintln(out, "# History Summary")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	label, value := dateRangeLabelAndValue(report.Since, report.Until)
	fmt.Fprintf(out, "**%s:** %s\n\n", label, value)
	fmt.Fprintf(out, "**Commits:** %d (merges: %d)\n\n", s.Commits, s.Merges)
	fmt.Fprintf(out, "**Changes:** %d added, %d modified, %d deleted, %d renamed\n\n",
		s.KindCounts[history.ChangeKindAdded],
		s.KindCounts[history.ChangeKindModified],
		s.KindCounts[history.ChangeKindDeleted],
		s.KindCounts[history.ChangeKindRenamed],
	)

	fmt.Fprintln(out, "## Top Files")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| # | Path | Commits | Churn | Contributors | Last Modified |")
	fmt.Fprintln(out, "|---|------|---------|-------|--------------|---------------|")
	for i, f := range s.TopFiles(options.Top) {
		path := "`" + f.Path + "`"
		if f.Deleted {
			path = "~~" + path + "~~"
		}
		fmt.Fprintf(out, "| %d | %s | %d | %d | %d | %s |\n",
			i+1, path, f.CommitCount, f.ChurnTotal(), f.ContributorCount(), f.LastModifiedAt.Format(reportDateLayout))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Top Authors")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| # | Author | Commits | Added | Deleted |")
	fmt.Fprintln(out, "|---|--------|---------|-------|---------|")
	for i, a := range s.TopAuthors(options.Top) {
		fmt.Fprintf(out, "| %d | %s | %d | %d | %d |\n",
			i+1, escapeMarkdown(a.Name), a.CommitCount, a.LinesAdded, a.LinesDeleted)
	}

	if report.Bugfix != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Bugfix Hotspots")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "**Bugfix commits:** %d of %d\n\n", report.Bugfix.TotalBugfixes, report.Bugfix.TotalCommits)
		fmt.Fprintln(out, "| # | Path | Fixes | Score |")
		fmt.Fprintln(out, "|---|------|-------|-------|")
		for i, f := range report.Bugfix.TopFiles(options.Top) {
			fmt.Fprintf(out, "| %d | `%s` | %d | %.4f |\n", i+1, f.Path, f.Fixes, f.Score)
		}
	}

	if report.Coupling == nil {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Change Coupling")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| # | File A | File B | Co-Commits | Jaccard | Confidence |")
	fmt.Fprintln(out, "|---|--------|--------|------------|---------|------------|")
	for i, c := range report.Coupling.Couplings {
		fmt.Fprintf(out, "| %d | `%s` | `%s` | %d | %.3f | %.3f |\n",
			i+1, c.FileA, c.FileB, c.CoCommitCount, c.JaccardCoefficient, c.Confidence)
	}
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
