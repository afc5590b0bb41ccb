package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	stderrCaptureLimit = 64 << 10
	processWaitDelay   = 2 * time.Second
	streamBufferSize   = 64 << 10
)

// gitProcess is one running git command whose stdout is consumed incrementally.
// Every gitProcess must end with either wait (after stdout was drained) or
// kill; both reap the process exactly once.
type gitProcess struct {
	args   []string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	r      *bufio.Reader
	stderr *cappedBuffer
	log    *slog.Logger

	waitOnce sync.Once
	waitErr  error
	killed   bool
}

func startGit(ctx context.Context, bin, dir string, args []string, logger *slog.Logger) (*gitProcess, error) {
	if bin == "" {
		bin = "git"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	argv := append([]string{"--no-pager", "-C", dir}, args...)
	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, bin, argv...)
	cmd.WaitDelay = processWaitDelay

	p := &gitProcess{
		args:   args,
		cmd:    cmd,
		cancel: cancel,
		stderr: &cappedBuffer{limit: stderrCaptureLimit},
		log:    logger,
	}
	cmd.Stderr = p.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &ProcessSpawnError{Args: args, Err: err}
	}
	p.stdout = stdout
	p.r = bufio.NewReaderSize(stdout, streamBufferSize)

	logger.Debug("git start", slog.String("dir", dir), slog.String("args", strings.Join(args, " ")))
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		return nil, &ProcessSpawnError{Args: args, Err: err}
	}
	return p, nil
}

// wait reaps the process after its stdout has been fully read and converts an
// abnormal exit into a *ProcessExitError.
func (p *gitProcess) wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.cancel()
		p.log.Debug("git exit", slog.String("args", strings.Join(p.args, " ")), slog.Any("error", err))
		if err == nil || p.killed {
			return
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.waitErr = &ProcessExitError{
				Args:     p.args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   p.stderr.String(),
				Err:      err,
			}
			return
		}
		p.waitErr = fmt.Errorf("git %s: %w", strings.Join(p.args, " "), err)
	})
	return p.waitErr
}

// kill terminates the process if it is still running and reaps it. Errors
// caused by the termination itself are not reported.
func (p *gitProcess) kill() {
	if p.exited() {
		return
	}
	p.killed = true
	p.cancel()
	_ = p.wait()
}

// exited reports whether the process has been reaped.
func (p *gitProcess) exited() bool {
	return p.cmd.ProcessState != nil
}

// runGit runs a git command to completion and returns its stdout.
// allowExit1 treats exit status 1 with empty stderr as success.
func runGit(ctx context.Context, bin, dir string, args []string, logger *slog.Logger, allowExit1 bool) ([]byte, error) {
	p, err := startGit(ctx, bin, dir, args, logger)
	if err != nil {
		return nil, err
	}
	out, readErr := io.ReadAll(p.r)
	if readErr != nil {
		p.kill()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read git %s output: %w", commandLabel(args), readErr)
	}
	if err := p.wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *ProcessExitError
		if allowExit1 && errors.As(err, &exitErr) && exitErr.ExitCode == 1 && strings.TrimSpace(exitErr.Stderr) == "" {
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

// cappedBuffer keeps the first limit bytes written to it and discards the rest,
// so a chatty process can never block on a full stderr pipe.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
