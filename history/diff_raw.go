package history

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

type rawEntry struct {
	srcMode filemode.FileMode
	dstMode filemode.FileMode
	srcBlob string
	dstBlob string
	status  string // e.g. "M", "A", "D", "R100"
	path    string // destination path (or path for non-renames)
	oldPath string // source path for renames and copies
}

type numstat struct {
	added   int
	deleted int
	binary  bool
}

// parseRawEntries parses the NUL-delimited --raw section at the start of body
// and returns the entries plus the offset where the section ended.
func parseRawEntries(body []byte) ([]rawEntry, int, error) {
	i := skipSeparators(body, 0)

	var entries []rawEntry
	for i < len(body) && body[i] == ':' {
		meta, ok := readUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing NUL)")
		}

		fields := strings.Fields(string(meta))
		if len(fields) < 5 {
			return nil, 0, fmt.Errorf("unexpected git --raw meta: %q", string(meta))
		}
		if strings.HasPrefix(fields[0], "::") {
			return nil, 0, fmt.Errorf("unexpected combined diff entry: %q", string(meta))
		}

		srcMode, err := parseFileMode(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			return nil, 0, err
		}
		dstMode, err := parseFileMode(fields[1])
		if err != nil {
			return nil, 0, err
		}
		status := fields[4]

		path1, ok := readStringUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing path)")
		}

		path := path1
		oldPath := ""
		if isTwoPathStatus(status) {
			path2, ok := readStringUntilNUL(body, &i)
			if !ok {
				return nil, 0, fmt.Errorf("unexpected git --raw format (missing rename path)")
			}
			oldPath = path1
			path = path2
		}

		entries = append(entries, rawEntry{
			srcMode: srcMode,
			dstMode: dstMode,
			srcBlob: fields[2],
			dstBlob: fields[3],
			status:  status,
			path:    path,
			oldPath: oldPath,
		})
		i = skipSeparators(body, i)
	}

	return entries, i, nil
}

// parseNumstat parses the NUL-delimited --numstat section; it must list the
// same paths, in the same order, as the --raw section.
func parseNumstat(body []byte, entries []rawEntry) ([]numstat, error) {
	stats := make([]numstat, 0, len(entries))
	i := 0
	for idx := range entries {
		i = skipSeparators(body, i)

		added, binary, ok, err := readNumstatInt(body, &i, '\t')
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("unexpected git --numstat format (added)")
		}

		deleted, _, ok, err := readNumstatInt(body, &i, '\t')
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("unexpected git --numstat format (deleted)")
		}

		// Paths come from --raw; with -z a rename prints an empty path followed
		// by old\0new\0.
		if _, ok := readStringUntilNUL(body, &i); !ok {
			return nil, fmt.Errorf("unexpected git --numstat format (path)")
		}
		if isTwoPathStatus(entries[idx].status) {
			if _, ok := readStringUntilNUL(body, &i); !ok {
				return nil, fmt.Errorf("unexpected git --numstat format (rename source)")
			}
			if _, ok := readStringUntilNUL(body, &i); !ok {
				return nil, fmt.Errorf("unexpected git --numstat format (rename destination)")
			}
		}

		stats = append(stats, numstat{added: added, deleted: deleted, binary: binary})
	}

	return stats, nil
}

func kindFromStatus(status, oldPath string) (ChangeKind, string) {
	if status == "" {
		return ChangeKindModified, ""
	}
	switch status[0] {
	case 'A':
		return ChangeKindAdded, ""
	case 'D':
		return ChangeKindDeleted, ""
	case 'R':
		return ChangeKindRenamed, oldPath
	case 'C':
		// A copy adds a new path; the source is kept for reference.
		return ChangeKindAdded, oldPath
	default:
		return ChangeKindModified, ""
	}
}

func isTwoPathStatus(status string) bool {
	return len(status) > 0 && (status[0] == 'R' || status[0] == 'C')
}

// skipSeparators steps over the line or NUL terminators git may place between
// output sections.
func skipSeparators(b []byte, i int) int {
	for i < len(b) && (b[i] == '\n' || b[i] == '\r' || b[i] == 0) {
		i++
	}
	return i
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}

func readStringUntilNUL(b []byte, i *int) (string, bool) {
	raw, ok := readUntilNUL(b, i)
	if !ok {
		return "", false
	}
	return string(raw), true
}

func readNumstatInt(b []byte, i *int, delim byte) (n int, binary bool, ok bool, err error) {
	if *i >= len(b) {
		return 0, false, false, nil
	}
	j := bytes.IndexByte(b[*i:], delim)
	if j == -1 {
		return 0, false, false, nil
	}
	field := b[*i : *i+j]
	*i = *i + j + 1

	if len(field) == 1 && field[0] == '-' {
		return 0, true, true, nil
	}
	n, err = strconv.Atoi(string(field))
	if err != nil {
		return 0, false, true, fmt.Errorf("parse numstat int %q: %w", string(field), err)
	}
	return n, false, true, nil
}
