package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/internal/output"
)

// LogCmd returns the log command.
func LogCmd() *cli.Command {
	flags := append(commonFlags(), logFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "files",
			Usage: "Enumerate the changed files of every commit",
		},
		&cli.BoolFlag{
			Name:  "content",
			Usage: "Include file content (implies --files)",
		},
	)
	flags = append(flags, patchFlags()...)

	return &cli.Command{
		Name:      "log",
		Aliases:   []string{"l"},
		Usage:     "Stream commits as they are read from git",
		ArgsUsage: "[paths...]",
		Flags:     flags,
		Action:    logAction,
	}
}

func logAction(c *cli.Context) (err error) {
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	opts, err := cc.LogOptions(c)
	if err != nil {
		return err
	}

	out, closeOut, err := commandOutput(c)
	if err != nil {
		return err
	}
	defer output.CloseOutput(closeOut, &err)

	it, err := cc.Repo.Commits(c.Context, opts)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	defer it.Close()

	writer := output.NewCommitWriter(cc.Format, out)
	total, err := streamCommits(c.Context, cc, it, writer, recordOptionsFrom(c))
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	cc.Logger.Debug("log finished", "commits", total)
	return nil
}
