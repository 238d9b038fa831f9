package ipc_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdto "webtally/internal/modules/report/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/notify"
	"webtally/internal/transport/ipc"
)

type fakeHandler struct {
	mu       sync.Mutex
	stopped  bool
	imported []byte
}

func (h *fakeHandler) Today(context.Context) (trackingdto.DayOutput, error) {
	return trackingdto.DayOutput{Date: "2024-03-01", Total: 900, Domains: []trackingdto.DomainTime{{Domain: "github.com", Seconds: 600}, {Domain: "youtube.com", Seconds: 300}}}, nil
}
func (h *fakeHandler) Ledger(_ context.Context, date string) (trackingdto.DayOutput, error) {
	if date == "bad" {
		return trackingdto.DayOutput{}, fmt.Errorf("%w: date %q", apperrors.ErrInvalidInput, date)
	}
	return trackingdto.DayOutput{Date: date}, nil
}
func (h *fakeHandler) Blocking(context.Context) (blockingdto.StatusOutput, error) {
	return blockingdto.StatusOutput{Active: true, BlockedSites: []string{"youtube.com"}, Backend: "file"}, nil
}
func (h *fakeHandler) Decide(_ context.Context, rawURL string) (blockingdto.DecisionOutput, error) {
	return blockingdto.DecisionOutput{URL: rawURL, Host: "m.youtube.com", Decision: "block"}, nil
}
func (h *fakeHandler) Focus(context.Context) (focusdto.SessionOutput, error) {
	return focusdto.SessionOutput{}, nil
}
func (h *fakeHandler) Reports(_ context.Context, limit int) ([]reportdto.ReportOutput, error) {
	out := make([]reportdto.ReportOutput, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, reportdto.ReportOutput{Date: fmt.Sprintf("2024-03-0%d", i+1)})
	}
	return out, nil
}
func (h *fakeHandler) SyncStatus(context.Context) (reconciledto.StatusOutput, error) {
	return reconciledto.StatusOutput{Owner: "client-1", SyncNeeded: true}, nil
}
func (h *fakeHandler) Preferences(context.Context) (prefsdto.PreferencesOutput, error) {
	return prefsdto.PreferencesOutput{Blocked: prefsdto.ListOutput{Name: "blocked", Sites: []string{"reddit.com"}}}, nil
}
func (h *fakeHandler) Status(context.Context) (ipc.Status, error) {
	return ipc.Status{PID: 42, Backend: "file", BlockingActive: true}, nil
}
func (h *fakeHandler) Notifications(context.Context, int) ([]notify.Notification, error) {
	return []notify.Notification{{ID: "n-1", Title: "Focus Session Started"}}, nil
}
func (h *fakeHandler) ToggleBlocking(_ context.Context, enabled bool) (blockingdto.StatusOutput, error) {
	return blockingdto.StatusOutput{ManualEnabled: enabled, Active: enabled}, nil
}
func (h *fakeHandler) AddSite(_ context.Context, list, site string) (prefsdto.ListOutput, error) {
	return prefsdto.ListOutput{Name: list, Sites: []string{site}}, nil
}
func (h *fakeHandler) RemoveSite(_ context.Context, list, _ string) (prefsdto.ListOutput, error) {
	return prefsdto.ListOutput{Name: list, Sites: []string{}}, nil
}
func (h *fakeHandler) StartFocus(_ context.Context, minutes int) (focusdto.SessionOutput, error) {
	return focusdto.SessionOutput{Active: true, DurationMinutes: minutes}, nil
}
func (h *fakeHandler) StopFocus(context.Context) (focusdto.SessionOutput, error) {
	return focusdto.SessionOutput{}, apperrors.ErrNoActiveFocusSession
}
func (h *fakeHandler) SyncNow(context.Context) (reconciledto.SyncOutput, error) {
	return reconciledto.SyncOutput{LedgerCells: 2, ListsReplaced: []string{"blocked"}}, nil
}
func (h *fakeHandler) GenerateReport(_ context.Context, date string) (reportdto.ReportOutput, error) {
	return reportdto.ReportOutput{Date: date, TotalTime: 900, ProductivityScore: 67}, nil
}
func (h *fakeHandler) Export(_ context.Context, format string) (reconciledto.ExportOutput, error) {
	return reconciledto.ExportOutput{Format: format, Payload: []byte(`{"blockingEnabled":true}`)}, nil
}
func (h *fakeHandler) Import(_ context.Context, payload []byte) (reconciledto.ImportOutput, error) {
	h.mu.Lock()
	h.imported = payload
	h.mu.Unlock()
	return reconciledto.ImportOutput{Lists: 3}, nil
}
func (h *fakeHandler) Stop(context.Context) error {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	return nil
}

func TestServerClientContract(t *testing.T) {
	t.Parallel()
	h := &fakeHandler{}
	socketPath := filepath.Join(t.TempDir(), "daemon.sock")
	server := ipc.NewServer(socketPath, h, hclog.NewNullLogger())
	client := ipc.NewClient(socketPath, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !client.Reachable() {
		time.Sleep(20 * time.Millisecond)
	}

	bg := context.Background()
	today, err := client.Today(bg)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today.Total != 900 || len(today.Domains) != 2 {
		t.Fatalf("unexpected today output: %+v", today)
	}
	decision, err := client.Decide(bg, "https://m.youtube.com/watch")
	if err != nil || decision.Decision != "block" {
		t.Fatalf("unexpected decision: %+v %v", decision, err)
	}
	reports, err := client.Reports(bg, 3)
	if err != nil || len(reports) != 3 {
		t.Fatalf("unexpected reports: %d %v", len(reports), err)
	}
	status, err := client.Status(bg)
	if err != nil || status.PID != 42 || !status.BlockingActive {
		t.Fatalf("unexpected status: %+v %v", status, err)
	}
	toggled, err := client.ToggleBlocking(bg, true)
	if err != nil || !toggled.ManualEnabled {
		t.Fatalf("unexpected toggle: %+v %v", toggled, err)
	}
	added, err := client.AddSite(bg, "blocked", "reddit.com")
	if err != nil || added.Name != "blocked" || added.Sites[0] != "reddit.com" {
		t.Fatalf("unexpected add: %+v %v", added, err)
	}
	session, err := client.StartFocus(bg, 30)
	if err != nil || session.DurationMinutes != 30 {
		t.Fatalf("unexpected focus: %+v %v", session, err)
	}
	synced, err := client.SyncNow(bg)
	if err != nil || synced.LedgerCells != 2 {
		t.Fatalf("unexpected sync: %+v %v", synced, err)
	}
	exported, err := client.Export(bg, "json")
	if err != nil || string(exported.Payload) != `{"blockingEnabled":true}` {
		t.Fatalf("unexpected export: %+v %v", exported, err)
	}
	if _, err := client.Import(bg, exported.Payload); err != nil {
		t.Fatalf("import: %v", err)
	}
	h.mu.Lock()
	imported := string(h.imported)
	h.mu.Unlock()
	if imported != `{"blockingEnabled":true}` {
		t.Fatalf("payload not carried: %q", imported)
	}

	if err := client.Stop(bg); err != nil {
		t.Fatalf("stop rpc: %v", err)
	}
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if !stopped {
		t.Fatalf("expected stop hook to run")
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve exit error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not shut down")
	}
}

func TestClientKeepsErrorKinds(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "daemon.sock")
	server := ipc.NewServer(socketPath, &fakeHandler{}, hclog.NewNullLogger())
	client := ipc.NewClient(socketPath, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = server.Serve(ctx)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !client.Reachable() {
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := client.StopFocus(context.Background()); !errors.Is(err, apperrors.ErrNoActiveFocusSession) {
		t.Fatalf("expected no active focus session, got %v", err)
	}
	_, err := client.Ledger(context.Background(), "bad")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err.Error() != `invalid input: date "bad"` {
		t.Fatalf("message not preserved: %q", err.Error())
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	t.Parallel()
	client := ipc.NewClient(filepath.Join(t.TempDir(), "missing.sock"), time.Second)
	if client.Reachable() {
		t.Fatalf("missing socket should not be reachable")
	}
	if _, err := client.Today(context.Background()); !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}
}
