package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/history"
	"github.com/masmgr/gitstream/internal/aggregation"
	"github.com/masmgr/gitstream/internal/output"
	"github.com/masmgr/gitstream/internal/patch"
)

// commandOutput returns the --output file, or the app's writer.
func commandOutput(c *cli.Context) (io.Writer, func() error, error) {
	if path := c.String("output"); path != "" {
		return output.OpenOutput(path)
	}
	return c.App.Writer, func() error { return nil }, nil
}

// recordOptions selects what is read for each commit besides its metadata.
type recordOptions struct {
	Files   bool
	Content bool
	Patch   bool
	Context int // patch context lines
}

// recordOptionsFrom reads --files, --content, --patch and --unified. Content
// and patches imply files.
func recordOptionsFrom(c *cli.Context) recordOptions {
	opts := recordOptions{
		Files:   c.Bool("files"),
		Content: c.Bool("content"),
		Patch:   c.Bool("patch"),
		Context: c.Int("unified"),
	}
	opts.Files = opts.Files || opts.Content || opts.Patch
	return opts
}

// streamCommits feeds commits from it to w as they arrive and returns how
// many were written.
func streamCommits(ctx context.Context, cc *CommandContext, it *history.CommitIterator, w output.CommitWriter, opts recordOptions) (int, error) {
	if err := w.Begin(output.LogHeader{RepoPath: cc.Repo.Root(), GeneratedAt: time.Now()}); err != nil {
		return 0, err
	}
	total := 0
	for commit, err := range it.All() {
		if err != nil {
			return total, err
		}
		rec := output.CommitRecord{Commit: commit}
		if opts.Files {
			if rec, err = fileRecords(ctx, cc.Repo, commit, opts); err != nil {
				return total, err
			}
		}
		if err := w.WriteCommit(rec); err != nil {
			return total, err
		}
		total++
	}
	return total, w.End(total)
}

// fileRecords enumerates the changes of commit and, when requested, reads
// the content of every file that has one and diffs it against the parent.
func fileRecords(ctx context.Context, repo *history.Repository, commit *history.Commit, opts recordOptions) (output.CommitRecord, error) {
	changes, err := repo.Files(ctx, commit)
	if err != nil {
		return output.CommitRecord{}, err
	}
	files := make([]output.FileRecord, len(changes))
	for i, change := range changes {
		files[i].Change = change
		if opts.Content {
			content, err := change.Content(ctx)
			if err != nil && !errors.Is(err, history.ErrNoContent) {
				return output.CommitRecord{}, err
			}
			files[i].Content = content
		}
		if opts.Patch {
			diff, err := patch.Unified(ctx, change, opts.Context)
			if err != nil {
				return output.CommitRecord{}, fmt.Errorf("diff %s: %w", change.Path, err)
			}
			files[i].Patch = diff
		}
	}
	metrics := aggregation.CalculateCommitMetrics(commit, changes)
	return output.CommitRecord{Commit: commit, Files: files, Metrics: &metrics}, nil
}

// patchFlags are shared by the commands that can print diffs.
func patchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "patch",
			Aliases: []string{"p"},
			Usage:   "Include a unified diff of every changed file (implies --files)",
		},
		&cli.IntFlag{
			Name:    "unified",
			Aliases: []string{"U"},
			Usage:   "Context lines around each diff hunk",
			Value:   patch.DefaultContext,
		},
	}
}

func writeStatsReport(c *cli.Context, cc *CommandContext, report *output.StatsReport) error {
	opts := cc.OutputOptions(c)
	writer := output.NewStatsReportWriter(opts.Format)
	return writer.Write(report, opts)
}
