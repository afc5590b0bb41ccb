package aggregation

import (
	"time"

	"github.com/masmgr/gitstream/history"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func makeCommit(hash, email string, hoursAfter int, parents ...string) *history.Commit {
	return &history.Commit{
		Hash:         hash,
		ParentHashes: parents,
		Author: history.Signature{
			Name:  email,
			Email: email,
			When:  baseTime.Add(time.Duration(hoursAfter) * time.Hour),
		},
		Message: "commit " + hash + "\n\nbody",
	}
}

func change(path string, kind history.ChangeKind, added, deleted int) history.FileChange {
	return history.FileChange{Path: path, Kind: kind, LinesAdded: added, LinesDeleted: deleted}
}

func rename(oldPath, path string) history.FileChange {
	return history.FileChange{Path: path, OldPath: oldPath, Kind: history.ChangeKindRenamed}
}
