package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	blockingadapter "webtally/internal/modules/blocking/adapter/out"
	"webtally/internal/modules/blocking/domain"
	blockingin "webtally/internal/modules/blocking/port/in"
	"webtally/internal/modules/blocking/service"
	"webtally/internal/modules/blocking/usecase"
	"webtally/internal/platform/kv"
	"webtally/internal/platform/scheduler"
)

type fakeInstaller struct {
	installed domain.RuleSet
	failNext  bool
}

func (f *fakeInstaller) Name() string { return "fake" }

func (f *fakeInstaller) Replace(_ context.Context, rules domain.RuleSet) error {
	if f.failNext {
		f.failNext = false
		return errors.New("backend rejected rules")
	}
	f.installed = rules
	return nil
}

func (f *fakeInstaller) Installed(context.Context) (domain.RuleSet, error) {
	return f.installed, nil
}

func (f *fakeInstaller) Close() error { return nil }

func newBlocking(t *testing.T, installer *fakeInstaller, store kv.Store) (blockingin.Usecase, *service.Engine) {
	t.Helper()
	clk := scheduler.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	engine := service.NewEngine(installer, blockingadapter.NewKVStateStore(store), clk, hclog.NewNullLogger(), "http://127.0.0.1:5002/blocked")
	uc := usecase.NewInteractor(engine)
	if err := uc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return uc, engine
}

func TestManualToggleInstallsAndDecides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	installer := &fakeInstaller{}
	store := kv.NewMemory()
	uc, _ := newBlocking(t, installer, store)

	if _, err := uc.SetBlockedDomains(ctx, []string{"YouTube.com", "reddit.com", "youtube.com"}); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if got := uc.Decide("https://www.youtube.com/watch?v=1"); got.Decision != string(domain.Allow) {
		t.Fatalf("expected allow while inactive, got %+v", got)
	}

	status, err := uc.SetManual(ctx, true)
	if err != nil {
		t.Fatalf("set manual: %v", err)
	}
	if !status.Active || len(status.Rules) != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Rules[0].Domain != "reddit.com" || status.Rules[0].URLFilter != "*://*.reddit.com/*" {
		t.Fatalf("unexpected first rule: %+v", status.Rules[0])
	}
	decision := uc.Decide("https://www.youtube.com/watch?v=1")
	if decision.Decision != string(domain.Block) || decision.RedirectURL == "" || decision.Host != "www.youtube.com" {
		t.Fatalf("expected block with redirect, got %+v", decision)
	}
	if got := uc.Decide("https://github.com"); got.Decision != string(domain.Allow) {
		t.Fatalf("expected allow for unlisted host, got %+v", got)
	}

	enabled := false
	if _, err := store.Get(ctx, "blockingEnabled", &enabled); err != nil || !enabled {
		t.Fatalf("manual toggle not persisted: %v %v", enabled, err)
	}
}

func TestFocusEndDoesNotRecomputeWhileManualOn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	installer := &fakeInstaller{}
	uc, engine := newBlocking(t, installer, kv.NewMemory())

	if _, err := uc.SetBlockedDomains(ctx, []string{"reddit.com"}); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if _, err := uc.SetManual(ctx, true); err != nil {
		t.Fatalf("set manual: %v", err)
	}
	if _, err := uc.SetFocusActive(ctx, true); err != nil {
		t.Fatalf("focus on: %v", err)
	}
	before := engine.Applies()
	status, err := uc.SetFocusActive(ctx, false)
	if err != nil {
		t.Fatalf("focus off: %v", err)
	}
	if engine.Applies() != before {
		t.Fatalf("expected no recompute, applies went %d -> %d", before, engine.Applies())
	}
	if !status.Active || status.FocusActive {
		t.Fatalf("unexpected status after focus end: %+v", status)
	}
}

func TestFocusActivationBlocksWithoutManualToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _ := newBlocking(t, &fakeInstaller{}, kv.NewMemory())

	if _, err := uc.SetBlockedDomains(ctx, []string{"reddit.com"}); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if _, err := uc.SetFocusActive(ctx, true); err != nil {
		t.Fatalf("focus on: %v", err)
	}
	if got := uc.Decide("https://old.reddit.com/r/golang"); got.Decision != string(domain.Block) {
		t.Fatalf("expected block during focus, got %+v", got)
	}
	status, err := uc.SetFocusActive(ctx, false)
	if err != nil {
		t.Fatalf("focus off: %v", err)
	}
	if status.Active || len(status.Rules) != 0 {
		t.Fatalf("expected rules cleared, got %+v", status)
	}
	if got := uc.Decide("https://old.reddit.com/r/golang"); got.Decision != string(domain.Allow) {
		t.Fatalf("expected allow after focus, got %+v", got)
	}
}

func TestInstallFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	installer := &fakeInstaller{}
	uc, _ := newBlocking(t, installer, kv.NewMemory())

	if _, err := uc.SetBlockedDomains(ctx, []string{"reddit.com"}); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if _, err := uc.SetManual(ctx, true); err != nil {
		t.Fatalf("set manual: %v", err)
	}

	installer.failNext = true
	status, err := uc.SetBlockedDomains(ctx, []string{"reddit.com", "youtube.com"})
	if err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	if status.LastError == "" {
		t.Fatalf("expected last error in status")
	}
	if len(status.Rules) != 1 || status.Rules[0].Domain != "reddit.com" {
		t.Fatalf("expected previous rules retained, got %+v", status.Rules)
	}
	if got := uc.Decide("https://youtube.com"); got.Decision != string(domain.Allow) {
		t.Fatalf("snapshot swapped despite failure: %+v", got)
	}
	if got := installer.installed.Domains(); len(got) != 1 || got[0] != "reddit.com" {
		t.Fatalf("backend lost previous rules after failed replace: %v", got)
	}

	status, err = uc.Recompute(ctx)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if status.LastError != "" || len(status.Rules) != 2 {
		t.Fatalf("retry did not converge: %+v", status)
	}
	if got := uc.Decide("https://youtube.com"); got.Decision != string(domain.Block) {
		t.Fatalf("expected block after retry, got %+v", got)
	}
}

func TestInitRestoresManualToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	if err := store.Put(ctx, "blockingEnabled", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc, _ := newBlocking(t, &fakeInstaller{}, store)
	status, err := uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.ManualEnabled || !status.Active {
		t.Fatalf("manual toggle not restored: %+v", status)
	}
}
