package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/internal/aggregation"
	"github.com/masmgr/gitstream/internal/bugfix"
	"github.com/masmgr/gitstream/internal/coupling"
	"github.com/masmgr/gitstream/internal/output"
)

// StatsCmd returns the stats command.
func StatsCmd() *cli.Command {
	flags := append(commonFlags(), logFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:  "top",
			Usage: "Number of files and authors to show (0 for all)",
		},
		&cli.BoolFlag{
			Name:  "bugfix",
			Usage: "Also count bugfix commits per file",
		},
		&cli.StringSliceFlag{
			Name:  "bugfix-pattern",
			Usage: "Regex marking a bugfix commit message (can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:  "coupling",
			Usage: "Also report files that change together",
		},
		&cli.IntFlag{
			Name:  "min-co-commits",
			Usage: "Minimum co-commits for a coupled pair",
		},
	)

	return &cli.Command{
		Name:      "stats",
		Aliases:   []string{"s"},
		Usage:     "Summarize files and authors over the streamed history",
		ArgsUsage: "[paths...]",
		Flags:     flags,
		Action:    statsAction,
	}
}

func statsAction(c *cli.Context) error {
	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	opts, err := cc.LogOptions(c)
	if err != nil {
		return err
	}

	it, err := cc.Repo.Commits(c.Context, opts)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	summary := aggregation.NewSummary(opts.Order)
	sinks := []aggregation.Sink{summary}
	var analyzer *coupling.Analyzer
	if c.Bool("coupling") {
		analyzer = coupling.NewAnalyzer(cc.Config.Coupling)
		sinks = append(sinks, analyzer)
	}
	var detector *bugfix.Detector
	if c.Bool("bugfix") {
		if detector, err = bugfix.NewDetector(cc.Config.Bugfix.Patterns); err != nil {
			it.Close()
			return fmt.Errorf("invalid bugfix pattern: %w", err)
		}
		sinks = append(sinks, detector)
	}
	if err := aggregation.Collect(c.Context, it, cc.Repo, sinks...); err != nil {
		return err
	}
	cc.Logger.Debug("history summarized", "commits", summary.Commits, "files", summary.FileCount())

	report := &output.StatsReport{
		RepoPath:    cc.Repo.Root(),
		Since:       cc.Since,
		Until:       cc.Until,
		GeneratedAt: time.Now(),
		Summary:     summary,
	}
	if detector != nil {
		report.Bugfix = detector.Result()
	}
	if analyzer != nil {
		result := analyzer.Result()
		report.Coupling = &result
	}
	return writeStatsReport(c, cc, report)
}
