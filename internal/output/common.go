package output

import (
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/masmgr/gitstream/history"
)

const (
	reportDateLayout     = "2006-01-02"
	reportDateTimeLayout = "2006-01-02T15:04:05"
	consoleDateLayout    = "2006-01-02 15:04:05 -0700"
)

func dateRangeLabelAndValue(since, until *time.Time) (string, string) {
	switch {
	case since != nil && until != nil:
		return "Period", since.Format(reportDateLayout) + " to " + until.Format(reportDateLayout)
	case since != nil:
		return "Since", since.Format(reportDateLayout)
	case until != nil:
		return "Until", until.Format(reportDateLayout)
	default:
		return "Period", "all history"
	}
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(reportDateLayout)
	return &formatted
}

// OpenOutput returns stdout when outputPath is empty, otherwise a newly
// created file. The returned close function is always safe to call.
func OpenOutput(outputPath string) (io.Writer, func() error, error) {
	if outputPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

// CloseOutput runs closeOut and records its error in *err unless an earlier
// error is already there. Use it deferred with a named error result.
func CloseOutput(closeOut func() error, err *error) {
	if cerr := closeOut(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}

func indentLines(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func changeCode(kind history.ChangeKind) string {
	switch kind {
	case history.ChangeKindAdded:
		return "A"
	case history.ChangeKindDeleted:
		return "D"
	case history.ChangeKindRenamed:
		return "R"
	default:
		return "M"
	}
}
