package history

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func readAllBlocks(t *testing.T, data []byte) ([][]byte, error) {
	t.Helper()
	br := newBlockReader(bytes.NewReader(data), len(logFields))
	var blocks [][]byte
	for {
		b, err := br.Next()
		if errors.Is(err, io.EOF) {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, b)
	}
}

func TestBlockReader_FramesTformatOutput(t *testing.T) {
	first := recordFields()
	second := recordFields()
	second[11] = "second\n"

	// tformat terminates every record with a newline.
	var stream []byte
	stream = append(stream, frameRecord(first)...)
	stream = append(stream, '\n')
	stream = append(stream, frameRecord(second)...)
	stream = append(stream, '\n')

	blocks, err := readAllBlocks(t, stream)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, expected 2", len(blocks))
	}
	if !bytes.Equal(blocks[0], joinRecord(first)) {
		t.Fatalf("block[0] = %q", blocks[0])
	}
	if !bytes.Equal(blocks[1], joinRecord(second)) {
		t.Fatalf("block[1] = %q", blocks[1])
	}
}

func TestBlockReader_RecordSeparatorInsideMessage(t *testing.T) {
	messages := []string{
		"a\x1eb\n",
		"\x1eleading separator\n",
		"trailing separator\x1e",
		"\x1e\x1e\x1e",
	}
	var stream []byte
	for _, msg := range messages {
		fields := recordFields()
		fields[11] = msg
		stream = append(stream, frameRecord(fields)...)
		stream = append(stream, '\n')
	}

	blocks, err := readAllBlocks(t, stream)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(blocks) != len(messages) {
		t.Fatalf("blocks = %d, expected %d", len(blocks), len(messages))
	}
	for i, b := range blocks {
		c, err := parseCommitRecord(i, b, textDecoder{})
		if err != nil {
			t.Fatalf("parseCommitRecord(%d): %v", i, err)
		}
		if c.Message != messages[i] {
			t.Fatalf("message[%d] = %q, expected %q", i, c.Message, messages[i])
		}
	}
}

func TestBlockReader_EmptyStream(t *testing.T) {
	for _, in := range []string{"", "\n", "\r\n\n"} {
		blocks, err := readAllBlocks(t, []byte(in))
		if err != nil || len(blocks) != 0 {
			t.Fatalf("input %q: blocks=%d err=%v, expected none", in, len(blocks), err)
		}
	}
}

func TestBlockReader_TruncatedRecord(t *testing.T) {
	full := frameRecord(recordFields())
	stream := append(append([]byte{}, full...), '\n')
	stream = append(stream, full[:len(full)/2]...)

	br := newBlockReader(bytes.NewReader(stream), len(logFields))
	if _, err := br.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	_, err := br.Next()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, expected *ParseError", err)
	}
	if pe.Index != 1 {
		t.Fatalf("Index = %d, expected 1", pe.Index)
	}
	if !strings.Contains(pe.Error(), "truncated") {
		t.Fatalf("error = %q, expected truncated record", pe.Error())
	}
}

func TestLogFormat(t *testing.T) {
	if got := strings.Count(logFormat, "%x00"); got != len(logFields) {
		t.Fatalf("field terminators = %d, expected %d", got, len(logFields))
	}
	if !strings.HasSuffix(logFormat, "%B%x00%x1e") {
		t.Fatalf("logFormat = %q, expected message last and record terminator", logFormat)
	}
}
