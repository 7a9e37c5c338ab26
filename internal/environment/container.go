package environment

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/theseusxyz/theseus/internal/eventlog"
)

// Container wraps a pre-built image, attaching to it via `docker exec`
// and driving it with the same write-newline/poll/echo-exit-code
// protocol as Local. Grounded on
// original_source/theseus_agent/enviorments/docker_environment.py, with
// semantics identical to the local shell except exit-code parsing must
// also detect the container having exited out from under us (a
// non-numeric exit code is treated as a crash signal, per spec §4.2).
type Container struct {
	Base

	ContainerName string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	chunks chan chunk
	mu     sync.Mutex
}

// NewContainer constructs a container environment attached to an
// already-running container named containerName.
func NewContainer(log *eventlog.Log, containerName string) *Container {
	return &Container{Base: NewBase(log), ContainerName: containerName}
}

func (c *Container) Name() string { return "container" }

func (c *Container) Setup(ctx context.Context) error {
	c.cmd = exec.Command("docker", "exec", "-i", c.ContainerName, "/bin/bash", "-l")

	stdinPipe, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("container environment: stdin pipe: %w", err)
	}
	stdoutPipe, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("container environment: stdout pipe: %w", err)
	}
	stderrPipe, err := c.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("container environment: stderr pipe: %w", err)
	}

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("container environment: docker exec: %w", err)
	}

	c.stdin = stdinPipe
	c.chunks = make(chan chunk, 256)
	go drainInto(c.chunks, "stdout", stdoutPipe)
	go drainInto(c.chunks, "stderr", stderrPipe)

	return nil
}

func drainInto(out chan<- chunk, stream string, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			out <- chunk{stream: stream, data: data}
		}
		if err != nil {
			return
		}
	}
}

func (c *Container) Teardown(ctx context.Context) error {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	return nil
}

func (c *Container) Execute(ctx context.Context, cmdStr string, timeoutSeconds int) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendRequest(c.Name(), cmdStr)

	if timeoutSeconds <= 0 {
		timeoutSeconds = 25
	}

	if c.cmd == nil || c.cmd.Process == nil {
		err := &ErrCrashed{Environment: c.Name(), Cause: fmt.Errorf("container exec not running")}
		c.appendResponse(c.Name(), err.Error())
		return err.Error(), -1, err
	}

	line := cmdStr
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := io.WriteString(c.stdin, line); err != nil {
		wrapped := &ErrCrashed{Environment: c.Name(), Cause: err}
		c.appendResponse(c.Name(), wrapped.Error())
		return wrapped.Error(), -1, wrapped
	}
	time.Sleep(100 * time.Millisecond)

	out := c.drain(time.Duration(timeoutSeconds) * time.Second)

	if _, err := io.WriteString(c.stdin, "echo $?\n"); err != nil {
		wrapped := &ErrCrashed{Environment: c.Name(), Cause: err}
		c.appendResponse(c.Name(), wrapped.Error())
		return wrapped.Error(), -1, wrapped
	}
	time.Sleep(100 * time.Millisecond)

	exitOut := c.drain(5 * time.Second)
	exitCode, perr := strconv.Atoi(strings.TrimSpace(exitOut))
	if perr != nil {
		// Non-numeric exit code: the container exited out from under us.
		crashErr := &ErrCrashed{Environment: c.Name(), Cause: fmt.Errorf("non-numeric exit code %q", exitOut)}
		c.appendResponse(c.Name(), crashErr.Error())
		return out, -1, crashErr
	}

	c.appendResponse(c.Name(), map[string]any{"output": out, "exit_code": exitCode})
	return out, exitCode, nil
}

func (c *Container) drain(timeout time.Duration) string {
	deadline := time.Now().Add(timeout)
	var buf strings.Builder
	for time.Now().Before(deadline) {
		select {
		case ch := <-c.chunks:
			buf.Write(ch.data)
		case <-time.After(200 * time.Millisecond):
			select {
			case ch := <-c.chunks:
				buf.Write(ch.data)
			default:
				return buf.String()
			}
		}
	}
	return buf.String()
}

func (c *Container) Save() map[string]any {
	return map[string]any{"type": "ContainerEnvironment", "container_name": c.ContainerName}
}

var _ Environment = (*Container)(nil)
