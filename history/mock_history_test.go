package history

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestMockHistory(t *testing.T) {
	commits := []*Commit{{Hash: "a"}, {Hash: "b"}}
	changes := map[string][]FileChange{"a": {{Path: "x.go", Kind: ChangeKindAdded}}}

	t.Run("replays commits", func(t *testing.T) {
		m := NewMockHistory(commits, changes, nil)
		for _, want := range []string{"a", "b"} {
			c, err := m.Next()
			if err != nil || c.Hash != want {
				t.Fatalf("Next = %v, %v; expected %s", c, err, want)
			}
		}
		if _, err := m.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next = %v, expected io.EOF", err)
		}
		files, err := m.Files(context.Background(), commits[0])
		if err != nil || len(files) != 1 {
			t.Fatalf("Files = %v, %v", files, err)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		boom := errors.New("boom")
		m := NewMockHistory(nil, nil, boom)
		if _, err := m.Next(); err != boom {
			t.Fatalf("Next = %v, expected %v", err, boom)
		}
	})

	t.Run("closed", func(t *testing.T) {
		m := NewMockHistory(commits, nil, nil)
		_ = m.Close()
		if _, err := m.Next(); !errors.Is(err, ErrIteratorClosed) {
			t.Fatalf("Next = %v, expected ErrIteratorClosed", err)
		}
	})
}
