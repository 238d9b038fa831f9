package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	apperrors "webtally/internal/platform/errors"
	"webtally/internal/transport/ipc"
)

const (
	startTimeout       = 5 * time.Second
	stopTimeout        = 3 * time.Second
	defaultLogTailSize = 200
)

type Paths struct {
	Home       string
	PIDPath    string
	SocketPath string
	LogPath    string
}

// RuntimeStatus describes the background daemon process as seen from the
// CLI. Status is nil when the daemon does not answer on its socket.
type RuntimeStatus struct {
	PID        int         `json:"pid"`
	Running    bool        `json:"running"`
	SocketPath string      `json:"socketPath"`
	Status     *ipc.Status `json:"status,omitempty"`
}

// Process starts, stops and inspects the background daemon.
type Process struct {
	paths  Paths
	client *ipc.Client
	// Executable defaults to the running binary.
	Executable string
}

func NewProcess(paths Paths, client *ipc.Client) *Process {
	return &Process{paths: paths, client: client}
}

// Start launches `webtally daemon run` detached, logging to LogPath, and
// waits until its socket answers. A daemon that is already up is left alone.
func (p *Process) Start(ctx context.Context) error {
	if err := p.cleanupStale(); err != nil {
		return err
	}
	if pid, err := p.ReadPID(); err == nil && processAlive(pid) {
		if p.client.Reachable() {
			return nil
		}
		return fmt.Errorf("daemon pid=%d is alive but its socket is unavailable", pid)
	}

	execPath := p.Executable
	if execPath == "" {
		resolved, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		execPath = resolved
	}
	if err := os.MkdirAll(filepath.Dir(p.paths.LogPath), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}
	logFile, err := os.OpenFile(p.paths.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, "daemon", "run", "--home", p.paths.Home)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := p.WritePID(cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	deadline := time.Now().Add(startTimeout)
	for time.Now().Before(deadline) {
		if p.client.Reachable() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	_ = p.ClearPID()
	return fmt.Errorf("daemon did not open %s within %s", p.paths.SocketPath, startTimeout)
}

// Stop asks the daemon to exit over IPC and falls back to signals.
func (p *Process) Stop(ctx context.Context) error {
	if p.client.Reachable() {
		_ = p.client.Stop(ctx)
	}
	pid, err := p.ReadPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(p.paths.SocketPath)
			return nil
		}
		return err
	}
	if pid <= 0 || !processAlive(pid) {
		_ = p.ClearPID()
		_ = os.Remove(p.paths.SocketPath)
		return nil
	}
	if !waitExit(pid, stopTimeout) {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
		}
		if !waitExit(pid, stopTimeout) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	if err := p.ClearPID(); err != nil {
		return err
	}
	_ = os.Remove(p.paths.SocketPath)
	return nil
}

func (p *Process) Status(ctx context.Context) (RuntimeStatus, error) {
	out := RuntimeStatus{SocketPath: p.paths.SocketPath}
	if pid, err := p.ReadPID(); err == nil {
		out.PID = pid
		out.Running = processAlive(pid)
	}
	status, err := p.client.Status(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrDaemonNotRunning) {
			return out, nil
		}
		return out, err
	}
	out.Running = true
	out.Status = &status
	return out, nil
}

// Logs returns the last tail lines of the daemon log.
func (p *Process) Logs(tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTailSize
	}
	file, err := os.Open(p.paths.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, tail)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < tail {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func (p *Process) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.paths.PIDPath), 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	return os.WriteFile(p.paths.PIDPath, []byte(strconv.Itoa(pid)), 0o644)
}

func (p *Process) ReadPID() (int, error) {
	raw, err := os.ReadFile(p.paths.PIDPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode daemon pid: %w", err)
	}
	return pid, nil
}

func (p *Process) ClearPID() error {
	if err := os.Remove(p.paths.PIDPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon pid: %w", err)
	}
	return nil
}

// cleanupStale drops a pid file whose process is gone and a socket nobody
// listens on.
func (p *Process) cleanupStale() error {
	pid, err := p.ReadPID()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if pid > 0 && !processAlive(pid) {
		_ = p.ClearPID()
		_ = os.Remove(p.paths.SocketPath)
	}
	if _, statErr := os.Stat(p.paths.SocketPath); statErr == nil && !p.client.Reachable() {
		if err := os.Remove(p.paths.SocketPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale daemon socket: %w", err)
		}
	}
	return nil
}

func waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return !processAlive(pid)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
