package aggregation

import (
	"math"
	"strings"
	"time"

	"github.com/masmgr/gitstream/history"
)

// CommitMetrics holds diffusion and size metrics for a single commit.
type CommitMetrics struct {
	Hash           string
	When           time.Time
	Author         history.Signature
	Subject        string
	Merge          bool
	FileCount      int     // NF: Number of files
	DirectoryCount int     // ND: Number of directories
	SubsystemCount int     // NS: Number of subsystems (top-level directories)
	LinesAdded     int     // LA
	LinesDeleted   int     // LD
	ChangeEntropy  float64 // normalized Shannon entropy of churn across files
}

// TotalChurn returns the total lines changed (added + deleted).
func (c *CommitMetrics) TotalChurn() int {
	return c.LinesAdded + c.LinesDeleted
}

// CalculateCommitMetrics computes metrics for one commit and its changes.
func CalculateCommitMetrics(commit *history.Commit, changes []history.FileChange) CommitMetrics {
	directories := make(map[string]struct{})
	subsystems := make(map[string]struct{})
	linesAdded := 0
	linesDeleted := 0

	for _, change := range changes {
		linesAdded += change.LinesAdded
		linesDeleted += change.LinesDeleted

		dir, subsystem := extractPathComponents(change.Path)
		if dir != "" {
			directories[strings.ToLower(dir)] = struct{}{}
		}
		if subsystem != "" {
			subsystems[strings.ToLower(subsystem)] = struct{}{}
		}
	}

	subsystemCount := len(subsystems)
	if subsystemCount == 0 && len(changes) > 0 {
		subsystemCount = 1
	}

	return CommitMetrics{
		Hash:           commit.Hash,
		When:           commit.Author.When,
		Author:         commit.Author,
		Subject:        truncateMessage(commit.Message),
		Merge:          commit.IsMerge(),
		FileCount:      len(changes),
		DirectoryCount: len(directories),
		SubsystemCount: subsystemCount,
		LinesAdded:     linesAdded,
		LinesDeleted:   linesDeleted,
		ChangeEntropy:  changeEntropy(changes),
	}
}

// changeEntropy returns the Shannon entropy of the churn distribution,
// normalized by log2(n) to [0, 1]. 0 is a change focused on one file.
func changeEntropy(changes []history.FileChange) float64 {
	if len(changes) < 2 {
		return 0
	}
	total := 0
	for _, change := range changes {
		total += change.Churn()
	}
	if total == 0 {
		// Pure renames or binary-only commits: treat as uniform.
		return 1
	}

	h := 0.0
	for _, change := range changes {
		if churn := change.Churn(); churn > 0 {
			p := float64(churn) / float64(total)
			h -= p * math.Log2(p)
		}
	}
	return math.Max(0, math.Min(1, h/math.Log2(float64(len(changes)))))
}

// extractPathComponents extracts directory path and subsystem from a file path.
// Subsystem is the first directory component (e.g., "src", "tests", "docs").
func extractPathComponents(path string) (directory, subsystem string) {
	normalized := strings.ReplaceAll(path, "\\", "/")
	lastSlash := strings.LastIndex(normalized, "/")
	if lastSlash <= 0 {
		return "", ""
	}
	directory = normalized[:lastSlash]
	subsystem, _, _ = strings.Cut(directory, "/")
	return directory, subsystem
}

// truncateMessage truncates commit message to first line, max 100 chars.
func truncateMessage(message string) string {
	firstLine := message
	if i := strings.IndexAny(message, "\r\n"); i >= 0 {
		firstLine = message[:i]
	}
	if len(firstLine) > 100 {
		return firstLine[:97] + "..."
	}
	return firstLine
}
