package environment

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/theseusxyz/theseus/internal/eventlog"
	"github.com/theseusxyz/theseus/internal/tool"
	"golang.org/x/term"
)

// chunk is one piece of output read from the child shell, tagged by
// which stream it came from.
type chunk struct {
	stream string // "stdout" or "stderr"
	data   []byte
}

// Local is a persistent `/bin/bash -l` child process environment.
// Grounded on original_source/theseus_agent/enviorments/shell_environment.py.
type Local struct {
	Base

	Path   string
	oldDir string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File

	chunks chan chunk
	mu     sync.Mutex

	stream bool // stream chunks to stdout when attached to a TTY
}

// NewLocal constructs a local shell environment rooted at path.
func NewLocal(log *eventlog.Log, path string) *Local {
	return &Local{
		Base:   NewBase(log),
		Path:   path,
		stream: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (l *Local) Name() string { return "local" }

// Setup starts the persistent bash child and begins draining its
// stdout/stderr into the internal chunk channel.
func (l *Local) Setup(ctx context.Context) error {
	var err error
	l.oldDir, err = os.Getwd()
	if err != nil {
		logErrorf("local environment: getwd failed: %v", err)
	}
	if l.Path != "" {
		if err := os.Chdir(l.Path); err != nil {
			logErrorf("local environment: chdir %s failed: %v", l.Path, err)
		}
	}

	l.cmd = exec.Command("/bin/bash", "-l")
	l.cmd.Dir = l.Path
	l.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdinPipe, err := l.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("local environment: stdin pipe: %w", err)
	}
	stdoutPipe, err := l.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("local environment: stdout pipe: %w", err)
	}
	stderrPipe, err := l.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("local environment: stderr pipe: %w", err)
	}

	if err := l.cmd.Start(); err != nil {
		return fmt.Errorf("local environment: start bash: %w", err)
	}

	l.stdin = stdinPipe
	l.stdout, _ = stdoutPipe.(*os.File)
	l.stderr, _ = stderrPipe.(*os.File)
	l.chunks = make(chan chunk, 256)

	go l.drain("stdout", stdoutPipe)
	go l.drain("stderr", stderrPipe)

	return nil
}

func (l *Local) drain(stream string, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			l.chunks <- chunk{stream: stream, data: data}
		}
		if err != nil {
			return
		}
	}
}

func (l *Local) Teardown(ctx context.Context) error {
	if l.stdin != nil {
		l.stdin.Close()
	}
	if l.cmd != nil && l.cmd.Process != nil {
		_ = l.cmd.Process.Kill()
		_ = l.cmd.Wait()
	}
	if l.oldDir != "" {
		_ = os.Chdir(l.oldDir)
	}
	return nil
}

// Execute writes cmdStr to the shell's stdin, drains output until the
// child's process tree goes quiet or timeoutSeconds elapses, then probes
// the exit code with a 5s bound via `echo $?`. Grounded on
// shell_environment.py's execute()/read_with_timeout().
func (l *Local) Execute(ctx context.Context, cmdStr string, timeoutSeconds int) (string, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.appendRequest(l.Name(), cmdStr)

	if timeoutSeconds <= 0 {
		timeoutSeconds = 25
	}

	if l.cmd == nil || l.cmd.Process == nil {
		err := &ErrCrashed{Environment: l.Name(), Cause: fmt.Errorf("shell not running")}
		l.appendResponse(l.Name(), err.Error())
		return err.Error(), -1, err
	}

	line := cmdStr
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := io.WriteString(l.stdin, line); err != nil {
		wrapped := &ErrCrashed{Environment: l.Name(), Cause: err}
		l.appendResponse(l.Name(), wrapped.Error())
		return wrapped.Error(), -1, wrapped
	}
	time.Sleep(100 * time.Millisecond)

	stdoutBuf, stderrBuf, err := l.readWithTimeout(time.Duration(timeoutSeconds) * time.Second)
	if err != nil {
		partial := stdoutBuf + stderrBuf
		l.appendResponse(l.Name(), partial)
		return partial, -1, err
	}

	if _, err := io.WriteString(l.stdin, "echo $?\n"); err != nil {
		wrapped := &ErrCrashed{Environment: l.Name(), Cause: err}
		l.appendResponse(l.Name(), wrapped.Error())
		return wrapped.Error(), -1, wrapped
	}
	time.Sleep(100 * time.Millisecond)

	exitOut, _, err := l.readWithTimeout(5 * time.Second)
	exitCode := -1
	if err == nil {
		if parsed, perr := strconv.Atoi(strings.TrimSpace(exitOut)); perr == nil {
			exitCode = parsed
		}
	}

	output := stdoutBuf + stderrBuf
	l.appendResponse(l.Name(), map[string]any{"output": output, "exit_code": exitCode})
	return output, exitCode, nil
}

// readWithTimeout multiplexes the drained stdout/stderr chunk channel
// until the child's process tree has no more children running AND no
// data arrives within a short poll window, or timeoutDuration elapses.
func (l *Local) readWithTimeout(timeoutDuration time.Duration) (stdout, stderr string, err error) {
	deadline := time.Now().Add(timeoutDuration)
	var outBuf, errBuf strings.Builder

	for time.Now().Before(deadline) {
		hasChildren := hasRunningChildren(l.cmd.Process.Pid)

		select {
		case c := <-l.chunks:
			if l.stream && c.stream == "stdout" {
				os.Stdout.Write(c.data)
			}
			switch c.stream {
			case "stdout":
				outBuf.Write(c.data)
			case "stderr":
				errBuf.Write(c.data)
			}
		case <-time.After(200 * time.Millisecond):
			if !hasChildren {
				select {
				case c := <-l.chunks:
					switch c.stream {
					case "stdout":
						outBuf.Write(c.data)
					case "stderr":
						errBuf.Write(c.data)
					}
				default:
					return outBuf.String(), errBuf.String(), nil
				}
			}
		}
	}

	return outBuf.String(), errBuf.String(), fmt.Errorf("timeout reached while reading from subprocess")
}

func (l *Local) Save() map[string]any {
	cwd := l.Path
	return map[string]any{
		"type":    "LocalShellEnvironment",
		"path":    l.Path,
		"cwd":     cwd,
		"old_dir": l.oldDir,
	}
}

var _ Environment = (*Local)(nil)
var _ tool.Executor = (*Local)(nil)
