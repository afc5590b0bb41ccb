package coupling

import (
	"sort"

	"github.com/masmgr/gitstream/config"
	"github.com/masmgr/gitstream/history"
)

// FilePair represents a pair of files for coupling analysis.
type FilePair struct {
	FileA string
	FileB string
}

// NewFilePair creates a new file pair with consistent ordering.
func NewFilePair(a, b string) FilePair {
	if a > b {
		a, b = b, a
	}
	return FilePair{FileA: a, FileB: b}
}

// ChangeCoupling represents the coupling metrics between two files.
type ChangeCoupling struct {
	FileA              string
	FileB              string
	CoCommitCount      int     // Number of times both files were changed together
	FileACommitCount   int     // Total commits touching FileA
	FileBCommitCount   int     // Total commits touching FileB
	JaccardCoefficient float64 // |A ∩ B| / |A ∪ B|
	Confidence         float64 // P(B|A) = CoCommitCount / FileACommitCount
	Lift               float64 // P(A,B) / (P(A) × P(B))
}

// CouplingAnalysisResult holds the results of coupling analysis.
type CouplingAnalysisResult struct {
	Couplings    []ChangeCoupling
	TotalCommits int
	TotalFiles   int
	TotalPairs   int
}

// Analyzer accumulates co-change counts one commit at a time. Memory grows
// with the number of distinct files and co-changed pairs, not with commits.
type Analyzer struct {
	options      config.CouplingConfig
	fileCommits  map[string]int
	pairCommits  map[FilePair]int
	totalCommits int
}

// NewAnalyzer creates a new coupling analyzer.
func NewAnalyzer(options config.CouplingConfig) *Analyzer {
	return &Analyzer{
		options:     options,
		fileCommits: make(map[string]int),
		pairCommits: make(map[FilePair]int),
	}
}

// Add records the files changed together by one commit. Deleted files are
// ignored; commits touching more than MaxFilesPerCommit files count toward
// per-file totals but form no pairs.
func (a *Analyzer) Add(_ *history.Commit, changes []history.FileChange) {
	a.totalCommits++

	seen := make(map[string]struct{}, len(changes))
	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.Kind == history.ChangeKindDeleted {
			continue
		}
		if _, ok := seen[change.Path]; ok {
			continue
		}
		seen[change.Path] = struct{}{}
		files = append(files, change.Path)
		a.fileCommits[change.Path]++
	}

	// Large commits are usually mechanical (renames, vendoring, merges).
	if len(files) < 2 || len(files) > a.options.MaxFilesPerCommit {
		return
	}
	for i := 0; i < len(files)-1; i++ {
		for j := i + 1; j < len(files); j++ {
			a.pairCommits[NewFilePair(files[i], files[j])]++
		}
	}
}

// Result computes the coupling metrics of everything added so far.
func (a *Analyzer) Result() CouplingAnalysisResult {
	var couplings []ChangeCoupling

	for pair, coCommitCount := range a.pairCommits {
		if coCommitCount < a.options.MinCoCommits {
			continue
		}

		commitsA := a.fileCommits[pair.FileA]
		commitsB := a.fileCommits[pair.FileB]

		// Jaccard coefficient: |A ∩ B| / |A ∪ B|
		union := commitsA + commitsB - coCommitCount
		jaccard := float64(coCommitCount) / float64(union)
		if jaccard < a.options.MinJaccardThreshold {
			continue
		}

		total := float64(a.totalCommits)
		supportA := float64(commitsA) / total
		supportB := float64(commitsB) / total
		supportAB := float64(coCommitCount) / total

		couplings = append(couplings, ChangeCoupling{
			FileA:              pair.FileA,
			FileB:              pair.FileB,
			CoCommitCount:      coCommitCount,
			FileACommitCount:   commitsA,
			FileBCommitCount:   commitsB,
			JaccardCoefficient: jaccard,
			Confidence:         float64(coCommitCount) / float64(commitsA),
			Lift:               supportAB / (supportA * supportB),
		})
	}

	// Map iteration order is random; ties break on the pair itself.
	sort.Slice(couplings, func(i, j int) bool {
		ci, cj := couplings[i], couplings[j]
		if ci.JaccardCoefficient != cj.JaccardCoefficient {
			return ci.JaccardCoefficient > cj.JaccardCoefficient
		}
		if ci.CoCommitCount != cj.CoCommitCount {
			return ci.CoCommitCount > cj.CoCommitCount
		}
		if ci.FileA != cj.FileA {
			return ci.FileA < cj.FileA
		}
		return ci.FileB < cj.FileB
	})

	if a.options.TopPairs > 0 && len(couplings) > a.options.TopPairs {
		couplings = couplings[:a.options.TopPairs]
	}

	return CouplingAnalysisResult{
		Couplings:    couplings,
		TotalCommits: a.totalCommits,
		TotalFiles:   len(a.fileCommits),
		TotalPairs:   len(a.pairCommits),
	}
}
