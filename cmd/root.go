package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/config"
	"github.com/masmgr/gitstream/history"
	"github.com/masmgr/gitstream/internal/output"
)

func init() {
	// -v is --verbose; the version flag moves to -V.
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gitstream",
		Usage:   "Stream commit history out of Git repositories",
		Version: "1.0.0",
		Commands: []*cli.Command{
			LogCmd(),
			FilesCmd(),
			CountCmd(),
			StatsCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log git invocations to stderr",
			},
		},
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to Git repository",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  "git",
			Usage: "Git executable to run",
		},
		&cli.StringFlag{
			Name:  "rename-detect",
			Usage: "Rename detection mode (off, simple, aggressive)",
		},
		&cli.StringFlag{
			Name:  "decode",
			Usage: "Handling of invalid UTF-8 in commit text (replace, strict)",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, ndjson, csv, markdown)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// Flags selecting and ordering commits. Remaining arguments are paths.
func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "branch",
			Aliases: []string{"b", "rev"},
			Usage:   "Revision or range to walk (default: HEAD; can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Walk every ref",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Only commits after this date (YYYY-MM-DD or RFC 3339)",
		},
		&cli.StringFlag{
			Name:  "until",
			Usage: "Only commits before this date (YYYY-MM-DD or RFC 3339)",
		},
		&cli.StringSliceFlag{
			Name:  "author",
			Usage: "Only commits whose author matches this regex (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "committer",
			Usage: "Only commits whose committer matches this regex (can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:  "no-merges",
			Usage: "Skip merge commits",
		},
		&cli.BoolFlag{
			Name:  "merges",
			Usage: "Only merge commits",
		},
		&cli.IntFlag{
			Name:  "skip",
			Usage: "Skip this many commits before yielding",
		},
		&cli.IntFlag{
			Name:    "max-count",
			Aliases: []string{"n"},
			Usage:   "Stop after this many commits",
		},
		&cli.BoolFlag{
			Name:  "reverse",
			Usage: "Oldest commit first",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Traversal order (default, date, topo)",
		},
	}
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or RFC 3339)", s)
	}
	return &t, nil
}

func parseRenameDetectFlag(s string) (history.RenameDetectMode, error) {
	return history.ParseRenameDetectMode(s)
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch strings.ToLower(s) {
	case "json":
		return output.FormatJSON
	case "ndjson", "jsonl", "ci":
		return output.FormatNDJSON
	case "csv":
		return output.FormatCSV
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatConsole
	}
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if c.IsSet("git") {
		cfg.Git.Binary = c.String("git")
	}
	if c.IsSet("rename-detect") {
		if _, err := parseRenameDetectFlag(c.String("rename-detect")); err != nil {
			return nil, err
		}
		cfg.Git.RenameDetect = c.String("rename-detect")
	}
	if c.IsSet("decode") {
		cfg.Git.Decode = c.String("decode")
	}
	if c.IsSet("format") {
		cfg.Log.Format = c.String("format")
	}
	if c.IsSet("order") {
		cfg.Log.Traversal = c.String("order")
	}
	if c.IsSet("top") {
		cfg.Stats.Top = c.Int("top")
	}
	if patterns := c.StringSlice("bugfix-pattern"); len(patterns) > 0 {
		cfg.Bugfix.Patterns = patterns
	}
	if c.IsSet("min-co-commits") {
		cfg.Coupling.MinCoCommits = c.Int("min-co-commits")
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
