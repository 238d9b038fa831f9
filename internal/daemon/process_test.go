package daemon_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"webtally/internal/daemon"
	"webtally/internal/transport/ipc"
)

func newProcess(t *testing.T) (*daemon.Process, daemon.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := daemon.Paths{
		Home:       dir,
		PIDPath:    filepath.Join(dir, "daemon.pid"),
		SocketPath: filepath.Join(dir, "daemon.sock"),
		LogPath:    filepath.Join(dir, "daemon.log"),
	}
	return daemon.NewProcess(paths, ipc.NewClient(paths.SocketPath, 0)), paths
}

func TestPIDRoundTrip(t *testing.T) {
	t.Parallel()
	process, paths := newProcess(t)
	if err := process.WritePID(4242); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := process.ReadPID()
	if err != nil || pid != 4242 {
		t.Fatalf("read pid: %d %v", pid, err)
	}
	if err := process.ClearPID(); err != nil {
		t.Fatalf("clear pid: %v", err)
	}
	if _, err := os.Stat(paths.PIDPath); !os.IsNotExist(err) {
		t.Fatalf("pid file still present: %v", err)
	}
	if err := process.ClearPID(); err != nil {
		t.Fatalf("clearing a missing pid file should be a no-op: %v", err)
	}
}

func TestLogsReturnsTail(t *testing.T) {
	t.Parallel()
	process, paths := newProcess(t)
	if out, err := process.Logs(5); err != nil || out != "" {
		t.Fatalf("missing log should be empty: %q %v", out, err)
	}
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	if err := os.WriteFile(paths.LogPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, err := process.Logs(3)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "line 8\nline 9\nline 10" {
		t.Fatalf("unexpected tail: %q", out)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	t.Parallel()
	process, _ := newProcess(t)
	status, err := process.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Running || status.Status != nil {
		t.Fatalf("expected stopped daemon, got %+v", status)
	}
}

func TestStopWithoutDaemonIsNoop(t *testing.T) {
	t.Parallel()
	process, _ := newProcess(t)
	if err := process.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
