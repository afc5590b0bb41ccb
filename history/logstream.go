package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// blockSource yields raw commit blocks one at a time.
type blockSource interface {
	Next() ([]byte, error)
	Close() error
}

// blockReader frames a log stream into raw commit blocks. A block is complete
// once it holds one NUL per field and ends with NUL+RS; a message that starts
// with RS directly after a field NUL therefore does not end the record.
type blockReader struct {
	r      *bufio.Reader
	fields int
	index  int
}

// newBlockReader frames r into blocks of the given number of NUL-terminated
// fields.
func newBlockReader(r io.Reader, fields int) *blockReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, streamBufferSize)
	}
	return &blockReader{r: br, fields: fields}
}

// Next returns the next block without its terminator, or io.EOF once the
// stream ended cleanly. Bytes left over after the last complete record are a
// *ParseError: the stream was cut in the middle of a commit.
func (b *blockReader) Next() ([]byte, error) {
	var rec []byte
	for {
		chunk, err := b.r.ReadBytes(recordSep)
		rec = append(rec, chunk...)
		if err == nil {
			if bytes.HasSuffix(rec, recordTerminator) && bytes.Count(rec, []byte{fieldSep}) >= b.fields {
				break
			}
			// A record separator inside a message; keep reading.
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(bytes.TrimLeft(rec, "\r\n")) == 0 {
				return nil, io.EOF
			}
			return nil, &ParseError{Index: b.index, Reason: fmt.Sprintf("truncated record (%d bytes without terminator)", len(rec))}
		}
		return nil, err
	}
	rec = rec[:len(rec)-len(recordTerminator)]
	// tformat ends every record with a newline, which lands at the start of
	// the next one. A hash never starts with a newline.
	rec = bytes.TrimLeft(rec, "\r\n")
	b.index++
	return rec, nil
}

// logStream is a streaming git process (git log or git rev-list) exposed as a
// blockSource.
type logStream struct {
	ctx    context.Context
	proc   *gitProcess
	blocks *blockReader
	done   bool
}

func startLogStream(ctx context.Context, repo *Repository, opts LogOptions) (*logStream, error) {
	args := []string{
		"log",
		"--no-color",
		"--no-show-signature",
		"--encoding=UTF-8",
		"--pretty=tformat:" + logFormat,
	}
	args = append(args, opts.orderArgs()...)
	args = append(args, opts.filterArgs()...)
	args = append(args, opts.revisionArgs()...)
	return startBlockStream(ctx, repo, args, len(logFields))
}

func startBlockStream(ctx context.Context, repo *Repository, args []string, fields int) (*logStream, error) {
	proc, err := startGit(ctx, repo.gitBin, repo.root, args, repo.logger)
	if err != nil {
		return nil, err
	}
	return &logStream{ctx: ctx, proc: proc, blocks: newBlockReader(proc.r, fields)}, nil
}

func (s *logStream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	block, err := s.blocks.Next()
	if err == nil {
		return block, nil
	}
	s.done = true
	var parseErr *ParseError
	if errors.Is(err, io.EOF) || errors.As(err, &parseErr) {
		// Output ended. Whether that is a clean end, a truncated record or a
		// failure is decided by git's exit status first.
		if waitErr := s.proc.wait(); waitErr != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, waitErr
		}
		return nil, err
	}
	s.proc.kill()
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, err
}

// Close terminates git if it is still running and reaps it.
func (s *logStream) Close() error {
	s.done = true
	s.proc.kill()
	return nil
}
