package aggregation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/masmgr/gitstream/history"
)

// AuthorMetrics holds per-author totals.
type AuthorMetrics struct {
	Name          string
	Email         string
	CommitCount   int
	LinesAdded    int
	LinesDeleted  int
	FirstCommitAt time.Time
	LastCommitAt  time.Time
}

// Summary aggregates a commit stream without retaining the commits: memory
// grows with the number of distinct files and authors only.
type Summary struct {
	Commits       int
	Merges        int
	Roots         int
	FirstCommitAt time.Time
	LastCommitAt  time.Time
	KindCounts    map[history.ChangeKind]int

	authors map[string]*AuthorMetrics
	files   *FileMetricsAggregator
}

// NewSummary creates an empty summary for a stream in the given order.
func NewSummary(order history.Order) *Summary {
	return &Summary{
		KindCounts: make(map[history.ChangeKind]int),
		authors:    make(map[string]*AuthorMetrics),
		files:      NewFileMetricsAggregator(order),
	}
}

// Add records one commit and its changed files.
func (s *Summary) Add(commit *history.Commit, changes []history.FileChange) {
	when := commit.Author.When
	s.Commits++
	if commit.IsMerge() {
		s.Merges++
	}
	if commit.IsRoot() {
		s.Roots++
	}
	if s.FirstCommitAt.IsZero() || when.Before(s.FirstCommitAt) {
		s.FirstCommitAt = when
	}
	if when.After(s.LastCommitAt) {
		s.LastCommitAt = when
	}

	key := commit.Author.ContributorKey()
	a, ok := s.authors[key]
	if !ok {
		a = &AuthorMetrics{Name: commit.Author.Name, Email: commit.Author.Email}
		s.authors[key] = a
	}
	a.CommitCount++
	if a.FirstCommitAt.IsZero() || when.Before(a.FirstCommitAt) {
		a.FirstCommitAt = when
	}
	if when.After(a.LastCommitAt) {
		a.LastCommitAt = when
		a.Name = commit.Author.Name
	}

	for _, change := range changes {
		s.KindCounts[change.Kind]++
		a.LinesAdded += change.LinesAdded
		a.LinesDeleted += change.LinesDeleted
	}
	s.files.Add(commit, changes)
}

// FileCount returns the number of distinct files seen.
func (s *Summary) FileCount() int {
	return len(s.files.GetMetrics())
}

// AuthorCount returns the number of distinct authors seen.
func (s *Summary) AuthorCount() int {
	return len(s.authors)
}

// TopFiles returns up to n files ordered by commit count, then churn, then
// path. n <= 0 returns all files.
func (s *Summary) TopFiles(n int) []*FileMetrics {
	files := make([]*FileMetrics, 0, len(s.files.GetMetrics()))
	for _, m := range s.files.GetMetrics() {
		files = append(files, m)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].CommitCount != files[j].CommitCount {
			return files[i].CommitCount > files[j].CommitCount
		}
		if files[i].ChurnTotal() != files[j].ChurnTotal() {
			return files[i].ChurnTotal() > files[j].ChurnTotal()
		}
		return files[i].Path < files[j].Path
	})
	return limit(files, n)
}

// TopAuthors returns up to n authors ordered by commit count, then email.
// n <= 0 returns all authors.
func (s *Summary) TopAuthors(n int) []*AuthorMetrics {
	authors := make([]*AuthorMetrics, 0, len(s.authors))
	for _, a := range s.authors {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].CommitCount != authors[j].CommitCount {
			return authors[i].CommitCount > authors[j].CommitCount
		}
		return strings.ToLower(authors[i].Email) < strings.ToLower(authors[j].Email)
	})
	return limit(authors, n)
}

func limit[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// Sink consumes one commit and its changed files at a time.
type Sink interface {
	Add(commit *history.Commit, changes []history.FileChange)
}

var _ Sink = (*Summary)(nil)

// Collect drains stream into every sink, enumerating each commit's files with
// lister once. The stream is closed on return. A nil lister skips file
// enumeration.
func Collect(ctx context.Context, stream history.CommitStream, lister history.ChangeLister, sinks ...Sink) error {
	defer stream.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		commit, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		var changes []history.FileChange
		if lister != nil {
			changes, err = lister.Files(ctx, commit)
			if err != nil {
				return err
			}
		}
		for _, s := range sinks {
			s.Add(commit, changes)
		}
	}
}
