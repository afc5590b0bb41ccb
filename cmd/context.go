package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitstream/config"
	"github.com/masmgr/gitstream/history"
	"github.com/masmgr/gitstream/internal/output"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across all commands.
type CommandContext struct {
	Config *config.Config
	Logger *slog.Logger
	Repo   *history.Repository
	Format output.OutputFormat
	Since  *time.Time
	Until  *time.Time
}

// NewCommandContext creates a context from CLI flags.
// It performs configuration loading, date parsing and repository opening.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return nil, fmt.Errorf("invalid since date: %w", err)
	}
	until, err := parseDateFlag(c.String("until"))
	if err != nil {
		return nil, fmt.Errorf("invalid until date: %w", err)
	}

	logger := newLogger(c.App.ErrWriter, c.Bool("verbose"))

	openOpts, err := cfg.OpenOptions(logger)
	if err != nil {
		return nil, err
	}
	repo, err := history.Open(c.String("repo"), openOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	logger.Debug("repository opened", "root", repo.Root(), "renameDetect", cfg.Git.RenameDetect)

	return &CommandContext{
		Config: cfg,
		Logger: logger,
		Repo:   repo,
		Format: getOutputFormat(cfg.Log.Format),
		Since:  since,
		Until:  until,
	}, nil
}

// LogOptions builds the commit selection from the log flags; positional
// arguments are taken as paths.
func (ctx *CommandContext) LogOptions(c *cli.Context) (history.LogOptions, error) {
	order, err := history.ParseOrder(ctx.Config.Log.Order)
	if err != nil {
		return history.LogOptions{}, err
	}
	if c.Bool("reverse") {
		order = history.OrderReverse
	}
	traversal, err := history.ParseTraversal(ctx.Config.Log.Traversal)
	if err != nil {
		return history.LogOptions{}, err
	}
	if c.Bool("merges") && c.Bool("no-merges") {
		return history.LogOptions{}, fmt.Errorf("--merges and --no-merges are mutually exclusive")
	}
	if c.Int("skip") < 0 || c.Int("max-count") < 0 {
		return history.LogOptions{}, fmt.Errorf("--skip and --max-count must not be negative")
	}

	opts := history.LogOptions{
		Revisions:  c.StringSlice("branch"),
		All:        c.Bool("all"),
		Paths:      c.Args().Slice(),
		Since:      ctx.Since,
		Until:      ctx.Until,
		Authors:    c.StringSlice("author"),
		Committers: c.StringSlice("committer"),
		NoMerges:   c.Bool("no-merges"),
		Skip:       c.Int("skip"),
		MaxCount:   c.Int("max-count"),
		Order:      order,
		Traversal:  traversal,
	}
	if c.Bool("merges") {
		opts.MinParents = 2
	}
	return opts, nil
}

// OutputOptions creates OutputOptions from CLI flags.
func (ctx *CommandContext) OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     ctx.Format,
		Top:        ctx.Config.Stats.Top,
		OutputPath: c.String("output"),
	}
}
