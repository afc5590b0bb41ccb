package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2"
	"github.com/fatih/color"

	"github.com/masmgr/gitstream/history"
)

// ConsoleCommitWriter prints commits in a git-log-like layout.
type ConsoleCommitWriter struct {
	out     io.Writer
	written int
}

// Begin writes nothing; the console layout has no header.
func (w *ConsoleCommitWriter) Begin(LogHeader) error {
	return nil
}

// WriteCommit prints one commit and, when present, its changed files.
func (w *ConsoleCommitWriter) WriteCommit(rec CommitRecord) error {
	c := rec.Commit
	if w.written > 0 {
		fmt.Fprintln(w.out)
	}
	w.written++

	hashColor := color.New(color.FgYellow)
	hashColor.Fprintf(w.out, "commit %s", c.Hash)
	if len(c.RefNames) > 0 {
		fmt.Fprintf(w.out, " (%s)", color.New(color.FgCyan).Sprint(strings.Join(c.RefNames, ", ")))
	}
	fmt.Fprintln(w.out)
	if c.IsMerge() {
		short := make([]string, len(c.ParentHashes))
		for i, p := range c.ParentHashes {
			short[i] = shortHash(p)
		}
		fmt.Fprintf(w.out, "Merge:  %s\n", strings.Join(short, " "))
	}
	fmt.Fprintf(w.out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(w.out, "Date:   %s\n", c.Author.When.Format(consoleDateLayout))
	if msg := indentLines(c.Message, "    "); msg != "" {
		fmt.Fprintf(w.out, "\n%s\n", msg)
	}

	if rec.Files == nil {
		return nil
	}
	fmt.Fprintln(w.out)
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	for _, f := range rec.Files {
		fmt.Fprintf(tw, " %s\t%s\t%s\n", kindColor(f.Change.Kind).Sprint(changeCode(f.Change.Kind)), displayPath(f.Change), lineStats(f.Change))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rec.Metrics != nil {
		fmt.Fprintf(w.out, " %d files changed, %d insertions(+), %d deletions(-)\n",
			rec.Metrics.FileCount, rec.Metrics.LinesAdded, rec.Metrics.LinesDeleted)
	}
	for _, f := range rec.Files {
		if f.Content == nil {
			continue
		}
		color.New(color.Bold).Fprintf(w.out, "\n--- %s\n", f.Change.Path)
		if f.Change.Binary {
			fmt.Fprintf(w.out, "(binary, %d bytes)\n", len(f.Content))
			continue
		}
		if err := writeBlock(w.out, lexerForPath(f.Change.Path), string(f.Content)); err != nil {
			return err
		}
	}
	for _, f := range rec.Files {
		if f.Patch == "" {
			continue
		}
		fmt.Fprintln(w.out)
		if err := writeBlock(w.out, diffLexer(), f.Patch); err != nil {
			return err
		}
	}
	return nil
}

// writeBlock highlights text and terminates it with a newline.
func writeBlock(out io.Writer, lexer chroma.Lexer, text string) error {
	if err := highlight(out, lexer, text); err != nil {
		return err
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}

// End prints a one-line total.
func (w *ConsoleCommitWriter) End(total int) error {
	if total == 0 {
		color.New(color.Faint).Fprintln(w.out, "No commits found.")
	}
	return nil
}

// ConsoleStatsWriter writes stats reports to the console.
type ConsoleStatsWriter struct{}

// Write outputs the stats report to the console.
func (w *ConsoleStatsWriter) Write(report *StatsReport, options OutputOptions) (err error) {
	out, closeOut, err := OpenOutput(options.OutputPath)
	if err != nil {
		return err
	}
	defer CloseOutput(closeOut, &err)

	s := report.Summary
	color.New(color.FgGreen).Fprintln(out, "History Summary")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	label, value := dateRangeLabelAndValue(report.Since, report.Until)
	fmt.Fprintf(out, "%s: %s\n", label, value)
	fmt.Fprintf(out, "Commits: %d (merges: %d, roots: %d)\n", s.Commits, s.Merges, s.Roots)
	if s.Commits > 0 {
		fmt.Fprintf(out, "First: %s  Last: %s\n", s.FirstCommitAt.Format(reportDateLayout), s.LastCommitAt.Format(reportDateLayout))
	}
	fmt.Fprintf(out, "Files: %d  Authors: %d\n", s.FileCount(), s.AuthorCount())
	fmt.Fprintf(out, "Changes: %d added, %d modified, %d deleted, %d renamed\n\n",
		s.KindCounts[history.ChangeKindAdded],
		s.KindCounts[history.ChangeKindModified],
		s.KindCounts[history.ChangeKindDeleted],
		s.KindCounts[history.ChangeKindRenamed],
	)

	color.New(color.FgGreen).Fprintln(out, "Top Files")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPath\tCommits\tChurn\tContributors\tOwnership\tLast Modified")
	for i, f := range s.TopFiles(options.Top) {
		path := f.Path
		if f.Deleted {
			path = color.New(color.Faint).Sprint(path + " (deleted)")
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.2f\t%s\n",
			i+1,
			path,
			f.CommitCount,
			f.ChurnTotal(),
			f.ContributorCount(),
			f.OwnershipRatio(),
			f.LastModifiedAt.Format(reportDateLayout),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintln(out, "Top Authors")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAuthor\tCommits\tAdded\tDeleted\tFirst\tLast")
	for i, a := range s.TopAuthors(options.Top) {
		fmt.Fprintf(tw, "%d\t%s <%s>\t%d\t%d\t%d\t%s\t%s\n",
			i+1,
			a.Name,
			a.Email,
			a.CommitCount,
			a.LinesAdded,
			a.LinesDeleted,
			a.FirstCommitAt.Format(reportDateLayout),
			a.LastCommitAt.Format(reportDateLayout),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if report.Bugfix != nil {
		fmt.Fprintln(out)
		color.New(color.FgGreen).Fprintln(out, "Bugfix Hotspots")
		fmt.Fprintf(out, "Bugfix commits: %d of %d\n", report.Bugfix.TotalBugfixes, report.Bugfix.TotalCommits)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPath\tFixes\tScore")
		for i, f := range report.Bugfix.TopFiles(options.Top) {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\n", i+1, f.Path, f.Fixes, f.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if report.Coupling == nil {
		return nil
	}
	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintln(out, "Change Coupling")
	if len(report.Coupling.Couplings) == 0 {
		color.New(color.Faint).Fprintln(out, "No coupled file pairs found.")
		return nil
	}
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFile A\tFile B\tCo-Commits\tJaccard\tConfidence\tLift")
	for i, c := range report.Coupling.Couplings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.3f\t%.3f\t%.2f\n",
			i+1, c.FileA, c.FileB, c.CoCommitCount, c.JaccardCoefficient, c.Confidence, c.Lift)
	}
	return tw.Flush()
}

// Helper functions

func shortHash(h string) string {
	if len(h) <= 8 {
		return h
	}
	return h[:8]
}

func displayPath(c history.FileChange) string {
	if c.OldPath != "" {
		return c.OldPath + " -> " + c.Path
	}
	return c.Path
}

func lineStats(c history.FileChange) string {
	if c.Binary {
		return "binary"
	}
	return fmt.Sprintf("+%d -%d", c.LinesAdded, c.LinesDeleted)
}

func kindColor(kind history.ChangeKind) *color.Color {
	switch kind {
	case history.ChangeKindAdded:
		return color.New(color.FgGreen)
	case history.ChangeKindDeleted:
		return color.New(color.FgRed)
	case history.ChangeKindRenamed:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgYellow)
	}
}
