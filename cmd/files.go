package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/internal/output"
)

// FilesCmd returns the files command.
func FilesCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.BoolFlag{
			Name:  "content",
			Usage: "Include file content",
		},
	)
	flags = append(flags, patchFlags()...)

	return &cli.Command{
		Name:      "files",
		Usage:     "List the files changed by one commit",
		ArgsUsage: "<revision>",
		Flags:     flags,
		Action:    filesAction,
	}
}

func filesAction(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one revision, got %d arguments", c.NArg())
	}
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	commit, err := cc.Repo.Commit(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	opts := recordOptionsFrom(c)
	opts.Files = true
	rec, err := fileRecords(c.Context, cc.Repo, commit, opts)
	if err != nil {
		return err
	}

	out, closeOut, err := commandOutput(c)
	if err != nil {
		return err
	}
	defer output.CloseOutput(closeOut, &err)

	writer := output.NewCommitWriter(cc.Format, out)
	if err := writer.Begin(output.LogHeader{RepoPath: cc.Repo.Root(), GeneratedAt: commit.Committer.When}); err != nil {
		return err
	}
	if err := writer.WriteCommit(rec); err != nil {
		return err
	}
	return writer.End(1)
}
