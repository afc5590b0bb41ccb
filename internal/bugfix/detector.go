package bugfix

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/masmgr/gitstream/history"
)

// FileFixCount is the number of bugfix commits that touched one path, with
// their summed RecencyScore.
type FileFixCount struct {
	Path  string
	Fixes int
	Score float64
}

// BugfixResult holds the result of bugfix detection over a commit stream.
type BugfixResult struct {
	// FileBugfixCounts maps file paths to the number of bugfix commits that touched them.
	FileBugfixCounts map[string]int
	// TotalBugfixes is the total number of bugfix commits detected.
	TotalBugfixes int
	// TotalCommits is the number of commits inspected.
	TotalCommits int
	// FileScores maps file paths to the sum of RecencyScore over their fixes.
	FileScores map[string]float64
	// Oldest and Newest bound the author dates of the inspected commits.
	Oldest time.Time
	Newest time.Time
}

// TopFiles returns the n paths with the most bugfix commits (all when n <= 0),
// ties broken by score and then by path.
func (r *BugfixResult) TopFiles(n int) []FileFixCount {
	files := make([]FileFixCount, 0, len(r.FileBugfixCounts))
	for path, fixes := range r.FileBugfixCounts {
		files = append(files, FileFixCount{Path: path, Fixes: fixes, Score: r.FileScores[path]})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Fixes != files[j].Fixes {
			return files[i].Fixes > files[j].Fixes
		}
		if files[i].Score != files[j].Score {
			return files[i].Score > files[j].Score
		}
		return files[i].Path < files[j].Path
	})
	if n > 0 && n < len(files) {
		files = files[:n]
	}
	return files
}

// Detector detects bugfix commits by matching commit messages against regex
// patterns, accumulating per-file counts as commits stream by.
type Detector struct {
	patterns []*regexp.Regexp
	result   BugfixResult
	fixTimes map[string][]time.Time
}

// NewDetector creates a new Detector from a list of regex pattern strings.
// Patterns are compiled as case-insensitive. Returns an error if any pattern fails to compile.
func NewDetector(patterns []string) (*Detector, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &Detector{
		patterns: compiled,
		result:   BugfixResult{FileBugfixCounts: make(map[string]int)},
		fixTimes: make(map[string][]time.Time),
	}, nil
}

// IsBugfix returns true if the given commit message matches any of the detector's patterns.
func (d *Detector) IsBugfix(message string) bool {
	for _, re := range d.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// Add classifies one commit and, for a bugfix, counts every file it touched
// except deleted ones.
func (d *Detector) Add(commit *history.Commit, changes []history.FileChange) {
	d.result.TotalCommits++
	when := commit.Author.When
	if !when.IsZero() {
		if d.result.Oldest.IsZero() || when.Before(d.result.Oldest) {
			d.result.Oldest = when
		}
		if when.After(d.result.Newest) {
			d.result.Newest = when
		}
	}
	if !d.IsBugfix(commit.Message) {
		return
	}
	d.result.TotalBugfixes++
	for _, change := range changes {
		if change.Kind == history.ChangeKindDeleted {
			continue
		}
		d.result.FileBugfixCounts[change.Path]++
		d.fixTimes[change.Path] = append(d.fixTimes[change.Path], when)
	}
}

// Result returns the counts accumulated so far. Scores are normalized against
// the commits seen up to this call, so they are recomputed each time.
func (d *Detector) Result() *BugfixResult {
	scores := make(map[string]float64, len(d.fixTimes))
	for path, times := range d.fixTimes {
		for _, when := range times {
			scores[path] += RecencyScore(d.result.Newest, d.result.Oldest, when)
		}
	}
	d.result.FileScores = scores
	return &d.result
}
