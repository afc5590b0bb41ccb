package aggregation

import (
	"time"

	"github.com/masmgr/gitstream/history"
)

// FileMetrics holds aggregated metrics for a single file.
type FileMetrics struct {
	Path                    string
	CommitCount             int
	AddedLines              int
	DeletedLines            int
	FirstSeenAt             time.Time
	LastModifiedAt          time.Time
	Contributors            map[string]struct{}
	ContributorCommitCounts map[string]int
	Deleted                 bool // the newest change seen so far removed the file
	Binary                  bool
}

// NewFileMetrics creates a new FileMetrics instance.
func NewFileMetrics(path string) *FileMetrics {
	return &FileMetrics{
		Path:                    path,
		Contributors:            make(map[string]struct{}),
		ContributorCommitCounts: make(map[string]int),
	}
}

// ChurnTotal returns total lines changed (added + deleted).
func (f *FileMetrics) ChurnTotal() int {
	return f.AddedLines + f.DeletedLines
}

// ContributorCount returns number of unique contributors.
func (f *FileMetrics) ContributorCount() int {
	return len(f.Contributors)
}

// OwnershipRatio returns proportion of commits by top contributor.
// A high ratio means concentrated ownership (one person owns the file).
func (f *FileMetrics) OwnershipRatio() float64 {
	if f.CommitCount == 0 || len(f.ContributorCommitCounts) == 0 {
		return 1.0
	}

	maxCommits := 0
	for _, count := range f.ContributorCommitCounts {
		if count > maxCommits {
			maxCommits = count
		}
	}
	return float64(maxCommits) / float64(f.CommitCount)
}

// AddCommit adds a commit's contribution to this file's metrics.
func (f *FileMetrics) AddCommit(commit *history.Commit, change history.FileChange) {
	when := commit.Author.When
	f.CommitCount++
	f.AddedLines += change.LinesAdded
	f.DeletedLines += change.LinesDeleted
	f.Binary = f.Binary || change.Binary

	if f.FirstSeenAt.IsZero() || when.Before(f.FirstSeenAt) {
		f.FirstSeenAt = when
	}
	if f.LastModifiedAt.IsZero() || !when.Before(f.LastModifiedAt) {
		f.LastModifiedAt = when
		f.Deleted = change.Kind == history.ChangeKindDeleted
	}

	key := commit.Author.ContributorKey()
	f.Contributors[key] = struct{}{}
	f.ContributorCommitCounts[key]++
}

func (f *FileMetrics) merge(source *FileMetrics) {
	f.CommitCount += source.CommitCount
	f.AddedLines += source.AddedLines
	f.DeletedLines += source.DeletedLines
	f.Binary = f.Binary || source.Binary

	if !source.FirstSeenAt.IsZero() && (f.FirstSeenAt.IsZero() || source.FirstSeenAt.Before(f.FirstSeenAt)) {
		f.FirstSeenAt = source.FirstSeenAt
	}
	if source.LastModifiedAt.After(f.LastModifiedAt) {
		f.LastModifiedAt = source.LastModifiedAt
		f.Deleted = source.Deleted
	}
	for k := range source.Contributors {
		f.Contributors[k] = struct{}{}
	}
	for k, v := range source.ContributorCommitCounts {
		f.ContributorCommitCounts[k] += v
	}
}

// FileMetricsAggregator accumulates per-file metrics one commit at a time.
//
// Renames carry a file's history over to its new path. Because the stream may
// arrive newest first, the aggregator needs to know the order: oldest first
// merges the old path into the new one when the rename is seen, newest first
// redirects every later (older) change of the old path to the new one.
type FileMetricsAggregator struct {
	metrics     map[string]*FileMetrics
	newestFirst bool
	aliases     map[string]string // old path -> current path, newest-first only
}

// NewFileMetricsAggregator creates an aggregator for a stream in the given order.
func NewFileMetricsAggregator(order history.Order) *FileMetricsAggregator {
	return &FileMetricsAggregator{
		metrics:     make(map[string]*FileMetrics),
		newestFirst: order != history.OrderReverse,
		aliases:     make(map[string]string),
	}
}

// Add records the changes of one commit.
func (a *FileMetricsAggregator) Add(commit *history.Commit, changes []history.FileChange) {
	for _, change := range changes {
		path := a.resolve(change.Path)

		if change.Kind == history.ChangeKindRenamed && change.OldPath != "" {
			if a.newestFirst {
				a.aliases[change.OldPath] = path
			} else if old, ok := a.metrics[change.OldPath]; ok {
				a.get(path).merge(old)
				delete(a.metrics, change.OldPath)
			}
		}

		a.get(path).AddCommit(commit, change)
	}
}

func (a *FileMetricsAggregator) resolve(path string) string {
	seen := 0
	for {
		next, ok := a.aliases[path]
		if !ok || seen > len(a.aliases) {
			return path
		}
		path = next
		seen++
	}
}

func (a *FileMetricsAggregator) get(path string) *FileMetrics {
	m, ok := a.metrics[path]
	if !ok {
		m = NewFileMetrics(path)
		a.metrics[path] = m
	}
	return m
}

// GetMetrics returns the aggregated metrics keyed by path.
func (a *FileMetricsAggregator) GetMetrics() map[string]*FileMetrics {
	return a.metrics
}
