package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/internal/output"
)

// CountCmd returns the count command.
func CountCmd() *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "Count the commits matching the filters",
		ArgsUsage: "[paths...]",
		Flags:     append(commonFlags(), logFlags()...),
		Action:    countAction,
	}
}

func countAction(c *cli.Context) (err error) {
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	opts, err := cc.LogOptions(c)
	if err != nil {
		return err
	}

	n, err := cc.Repo.CountCommits(c.Context, opts)
	if err != nil {
		return fmt.Errorf("failed to count commits: %w", err)
	}

	out, closeOut, err := commandOutput(c)
	if err != nil {
		return err
	}
	defer output.CloseOutput(closeOut, &err)

	switch cc.Format {
	case output.FormatJSON, output.FormatNDJSON:
		return json.NewEncoder(out).Encode(map[string]int{"count": n})
	default:
		_, err = fmt.Fprintln(out, n)
		return err
	}
}
