package history

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fixtureEpoch is the date of the first fixture commit; every further commit
// is one hour later so that ordering is deterministic.
var fixtureEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

// fixtureRepo is a scratch repository driven through the git CLI.
type fixtureRepo struct {
	t       *testing.T
	dir     string
	commits int
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	requireGit(t)
	f := &fixtureRepo{t: t, dir: t.TempDir()}
	f.git("init", "-q")
	f.git("symbolic-ref", "HEAD", "refs/heads/main")
	return f
}

func (f *fixtureRepo) env(when time.Time) []string {
	date := when.Format(time.RFC3339)
	return append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
		"HOME="+f.dir,
		"GIT_AUTHOR_NAME=Test Author",
		"GIT_AUTHOR_EMAIL=author@example.com",
		"GIT_AUTHOR_DATE="+date,
		"GIT_COMMITTER_NAME=Test Committer",
		"GIT_COMMITTER_EMAIL=committer@example.com",
		"GIT_COMMITTER_DATE="+date,
	)
}

// git runs a git command in the fixture and returns its trimmed stdout.
func (f *fixtureRepo) git(args ...string) string {
	f.t.Helper()
	return f.gitAt(fixtureEpoch.Add(time.Duration(f.commits)*time.Hour), args...)
}

func (f *fixtureRepo) gitAt(when time.Time, args ...string) string {
	f.t.Helper()
	argv := append([]string{"-c", "commit.gpgsign=false", "-c", "core.autocrlf=false", "-C", f.dir}, args...)
	cmd := exec.Command("git", argv...)
	cmd.Env = f.env(when)
	out, err := cmd.CombinedOutput()
	if err != nil {
		f.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func (f *fixtureRepo) write(rel, content string) {
	f.t.Helper()
	full := filepath.Join(f.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		f.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		f.t.Fatalf("WriteFile: %v", err)
	}
	f.git("add", "--", rel)
}

func (f *fixtureRepo) remove(rel string) {
	f.t.Helper()
	f.git("rm", "-q", "--", rel)
}

// commit records the staged changes and returns the new commit hash.
func (f *fixtureRepo) commit(msg string) string {
	f.t.Helper()
	f.git("commit", "-q", "--allow-empty", "-m", msg)
	f.commits++
	return f.git("rev-parse", "HEAD")
}

func (f *fixtureRepo) open(opts OpenOptions) *Repository {
	f.t.Helper()
	repo, err := Open(f.dir, opts)
	if err != nil {
		f.t.Fatalf("Open: %v", err)
	}
	return repo
}

// collect drains an iterator.
func collect(t *testing.T, it *CommitIterator) []*Commit {
	t.Helper()
	var out []*Commit
	for c, err := range it.All() {
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func commitsOf(t *testing.T, repo *Repository, opts LogOptions) []*Commit {
	t.Helper()
	it, err := repo.Commits(context.Background(), opts)
	if err != nil {
		t.Fatalf("Commits: %v", err)
	}
	return collect(t, it)
}

func subjects(commits []*Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.Subject()
	}
	return out
}

func changeSummary(changes []FileChange) []string {
	out := make([]string, len(changes))
	for i, ch := range changes {
		if ch.OldPath != "" {
			out[i] = fmt.Sprintf("%s %s->%s", ch.Kind, ch.OldPath, ch.Path)
			continue
		}
		out[i] = fmt.Sprintf("%s %s", ch.Kind, ch.Path)
	}
	return out
}
