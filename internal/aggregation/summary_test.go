package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/masmgr/gitstream/history"
)

func TestSummary_Add(t *testing.T) {
	s := NewSummary(history.OrderDefault)
	s.Add(makeCommit("c3", "bob@x", 2, "c2", "side"), []history.FileChange{
		change("b.go", history.ChangeKindModified, 1, 1),
	})
	s.Add(makeCommit("c2", "alice@x", 1, "c1"), []history.FileChange{
		change("a.go", history.ChangeKindModified, 4, 2),
		change("b.go", history.ChangeKindAdded, 10, 0),
	})
	s.Add(makeCommit("c1", "alice@x", 0), []history.FileChange{
		change("a.go", history.ChangeKindAdded, 20, 0),
	})

	if s.Commits != 3 || s.Merges != 1 || s.Roots != 1 {
		t.Fatalf("commits/merges/roots = %d/%d/%d", s.Commits, s.Merges, s.Roots)
	}
	if !s.FirstCommitAt.Equal(baseTime) || !s.LastCommitAt.Equal(baseTime.Add(2*time.Hour)) {
		t.Fatalf("first/last = %v/%v", s.FirstCommitAt, s.LastCommitAt)
	}
	if s.KindCounts[history.ChangeKindAdded] != 2 || s.KindCounts[history.ChangeKindModified] != 2 {
		t.Fatalf("KindCounts = %v", s.KindCounts)
	}
	if s.FileCount() != 2 || s.AuthorCount() != 2 {
		t.Fatalf("files/authors = %d/%d", s.FileCount(), s.AuthorCount())
	}

	authors := s.TopAuthors(0)
	if authors[0].Email != "alice@x" || authors[0].CommitCount != 2 || authors[0].LinesAdded != 34 {
		t.Fatalf("top author = %+v", authors[0])
	}

	files := s.TopFiles(1)
	if len(files) != 1 {
		t.Fatalf("TopFiles(1) = %d files", len(files))
	}
	// a.go and b.go both have two commits; a.go has more churn.
	if files[0].Path != "a.go" {
		t.Fatalf("top file = %s, expected a.go", files[0].Path)
	}
}

func TestCollect(t *testing.T) {
	commits := []*history.Commit{makeCommit("c2", "a@x", 1, "c1"), makeCommit("c1", "a@x", 0)}
	changes := map[string][]history.FileChange{
		"c2": {change("x.go", history.ChangeKindModified, 1, 0)},
		"c1": {change("x.go", history.ChangeKindAdded, 3, 0)},
	}
	mock := history.NewMockHistory(commits, changes, nil)
	s := NewSummary(history.OrderDefault)

	if err := Collect(context.Background(), mock, mock, s); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !mock.Closed {
		t.Fatalf("stream not closed")
	}
	if s.Commits != 2 || s.FileCount() != 1 {
		t.Fatalf("commits/files = %d/%d", s.Commits, s.FileCount())
	}
	if s.TopFiles(0)[0].AddedLines != 4 {
		t.Fatalf("x.go added = %d, expected 4", s.TopFiles(0)[0].AddedLines)
	}
}

func TestCollect_WithoutLister(t *testing.T) {
	mock := history.NewMockHistory([]*history.Commit{makeCommit("c1", "a@x", 0)}, nil, nil)
	s := NewSummary(history.OrderDefault)
	if err := Collect(context.Background(), mock, nil, s); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.Commits != 1 || s.FileCount() != 0 {
		t.Fatalf("commits/files = %d/%d", s.Commits, s.FileCount())
	}
}

func TestCollect_StreamError(t *testing.T) {
	boom := errors.New("boom")
	mock := history.NewMockHistory([]*history.Commit{makeCommit("c1", "a@x", 0)}, nil, boom)
	s := NewSummary(history.OrderDefault)

	err := Collect(context.Background(), mock, mock, s)
	if !errors.Is(err, boom) {
		t.Fatalf("Collect = %v, expected boom", err)
	}
	if s.Commits != 1 {
		t.Fatalf("commits before failure = %d, expected 1", s.Commits)
	}
	if !mock.Closed {
		t.Fatalf("stream not closed after failure")
	}
}

func TestCollect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := history.NewMockHistory([]*history.Commit{makeCommit("c1", "a@x", 0)}, nil, nil)
	if err := Collect(ctx, mock, mock, NewSummary(history.OrderDefault)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Collect = %v, expected context.Canceled", err)
	}
}

type countingSink struct {
	commits, changes int
}

func (c *countingSink) Add(_ *history.Commit, changes []history.FileChange) {
	c.commits++
	c.changes += len(changes)
}

func TestCollect_FansOutToEverySink(t *testing.T) {
	commits := []*history.Commit{makeCommit("c2", "a@x", 1, "c1"), makeCommit("c1", "a@x", 0)}
	changes := map[string][]history.FileChange{
		"c2": {change("x.go", history.ChangeKindModified, 1, 0), change("y.go", history.ChangeKindAdded, 1, 0)},
		"c1": {change("x.go", history.ChangeKindAdded, 3, 0)},
	}
	mock := history.NewMockHistory(commits, changes, nil)
	s := NewSummary(history.OrderDefault)
	extra := &countingSink{}

	if err := Collect(context.Background(), mock, mock, s, extra); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if extra.commits != 2 || extra.changes != 3 {
		t.Fatalf("extra sink saw %d commits, %d changes", extra.commits, extra.changes)
	}
	if s.Commits != 2 {
		t.Fatalf("summary commits = %d", s.Commits)
	}
}
