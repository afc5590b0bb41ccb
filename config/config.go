package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/masmgr/gitstream/history"
)

// FileName is the configuration file looked up in the working directory and
// then in the home directory.
const FileName = ".gitstream.json"

// yamlFileNames are also looked up, after FileName, in each location.
var yamlFileNames = []string{".gitstream.yaml", ".gitstream.yml"}

// Config is the root configuration structure.
type Config struct {
	Git      GitConfig      `json:"git" yaml:"git"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Stats    StatsConfig    `json:"stats" yaml:"stats"`
	Coupling CouplingConfig `json:"coupling" yaml:"coupling"`
	Bugfix   BugfixConfig   `json:"bugfix" yaml:"bugfix"`
	Filters  FilterConfig   `json:"filters" yaml:"filters"`
}

// GitConfig holds how git is invoked and how its output is interpreted.
type GitConfig struct {
	Binary       string `json:"binary" yaml:"binary"`             // Default: "git"
	RenameDetect string `json:"renameDetect" yaml:"renameDetect"` // off, simple, aggressive
	Decode       string `json:"decode" yaml:"decode"`             // replace, strict
}

// LogConfig holds the default commit ordering.
type LogConfig struct {
	Order     string `json:"order" yaml:"order"`         // default (newest first), reverse
	Traversal string `json:"traversal" yaml:"traversal"` // default, date, topo
	Format    string `json:"format" yaml:"format"`
}

// StatsConfig holds stats report options.
type StatsConfig struct {
	Top int `json:"top" yaml:"top"`
}

// CouplingConfig holds co-change analysis options.
type CouplingConfig struct {
	MinCoCommits        int     `json:"minCoCommits" yaml:"minCoCommits"`
	MinJaccardThreshold float64 `json:"minJaccardThreshold" yaml:"minJaccardThreshold"`
	MaxFilesPerCommit   int     `json:"maxFilesPerCommit" yaml:"maxFilesPerCommit"`
	TopPairs            int     `json:"topPairs" yaml:"topPairs"`
}

// BugfixConfig holds bugfix detection configuration.
type BugfixConfig struct {
	Patterns []string `json:"patterns" yaml:"patterns"` // Regex patterns for bugfix commit detection
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			Binary:       "git",
			RenameDetect: "simple",
			Decode:       "replace",
		},
		Log: LogConfig{
			Order:     "default",
			Traversal: "default",
			Format:    "console",
		},
		Stats: StatsConfig{
			Top: 20,
		},
		Coupling: CouplingConfig{
			MinCoCommits:        3,
			MinJaccardThreshold: 0.1,
			MaxFilesPerCommit:   50,
			TopPairs:            20,
		},
		Bugfix: BugfixConfig{
			Patterns: []string{
				`\bfix(ed|es)?\b`,
				`\bbug\b`,
				`\bhotfix\b`,
				`\bpatch\b`,
			},
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
	}
}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		names := append([]string{FileName}, yamlFileNames...)
		candidates := append([]string{}, names...)
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home != "" {
			for _, name := range names {
				candidates = append(candidates, filepath.Join(home, name))
			}
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := unmarshal(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// SaveConfig saves configuration to a file. A .yaml or .yml extension writes
// YAML, anything else JSON.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that every enumerated setting names a known value.
func (c *Config) Validate() error {
	if _, err := history.ParseRenameDetectMode(c.Git.RenameDetect); err != nil {
		return err
	}
	if _, err := history.ParseDecodePolicy(c.Git.Decode); err != nil {
		return err
	}
	if _, err := history.ParseOrder(c.Log.Order); err != nil {
		return err
	}
	if _, err := history.ParseTraversal(c.Log.Traversal); err != nil {
		return err
	}
	if c.Stats.Top < 0 {
		return fmt.Errorf("stats.top must not be negative, got %d", c.Stats.Top)
	}
	if c.Coupling.MaxFilesPerCommit < 2 {
		return fmt.Errorf("coupling.maxFilesPerCommit must be at least 2, got %d", c.Coupling.MaxFilesPerCommit)
	}
	return nil
}

// OpenOptions converts the git and filter settings into repository options.
func (c *Config) OpenOptions(logger *slog.Logger) (history.OpenOptions, error) {
	rename, err := history.ParseRenameDetectMode(c.Git.RenameDetect)
	if err != nil {
		return history.OpenOptions{}, err
	}
	decode, err := history.ParseDecodePolicy(c.Git.Decode)
	if err != nil {
		return history.OpenOptions{}, err
	}
	return history.OpenOptions{
		GitBinary:    c.Git.Binary,
		Logger:       logger,
		Decode:       decode,
		RenameDetect: rename,
		Include:      c.Filters.Include,
		Exclude:      c.Filters.Exclude,
	}, nil
}
