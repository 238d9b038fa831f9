package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	blockingin "webtally/internal/modules/blocking/port/in"
	focusin "webtally/internal/modules/focus/port/in"
	prefsin "webtally/internal/modules/preferences/port/in"
	reconcilein "webtally/internal/modules/reconcile/port/in"
	reportdomain "webtally/internal/modules/report/domain"
	reportin "webtally/internal/modules/report/port/in"
	trackingin "webtally/internal/modules/tracking/port/in"
	"webtally/internal/platform/clock"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/notify"
	"webtally/internal/platform/scheduler"
)

const (
	timerIdle        = "tracking.idle"
	timerEmit        = "tracking.emit"
	timerFocusCheck  = "focus.check"
	timerFocusEnd    = "focus.end"
	timerDailyReport = "report.daily"
	timerSync        = "sync.periodic"
)

// Modules are the use cases the daemon owns. Only the event loop calls into
// them, except Blocking.Decide and the notification feed.
type Modules struct {
	Tracking    trackingin.Usecase
	Preferences prefsin.Usecase
	Blocking    blockingin.Usecase
	Focus       focusin.Usecase
	Reports     reportin.Usecase
	Reconcile   reconcilein.Usecase
	Feed        *notify.Feed
}

type Options struct {
	IdleCheck    time.Duration
	EmitInterval time.Duration
	FocusCheck   time.Duration
	SyncInterval time.Duration
	SocketPath   string
	HTTPAddr     string
	PID          int
}

// Server is a transport the daemon runs for its lifetime.
type Server interface {
	Serve(ctx context.Context) error
}

// Daemon is the single owner of all module state. Commands, ingest events
// and timer firings run one at a time on its event loop.
type Daemon struct {
	mods    Modules
	sched   scheduler.Scheduler
	clock   clock.Clock
	logger  hclog.Logger
	options Options

	cmds     chan func(context.Context)
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	ready    chan struct{}

	runCtx    context.Context
	startedAt time.Time
	syncing   atomic.Bool

	// bgMu orders background.Add against close(done) so Wait never races
	// a late Add.
	bgMu       sync.Mutex
	background sync.WaitGroup
}

func New(mods Modules, sched scheduler.Scheduler, clk clock.Clock, logger hclog.Logger, options Options) *Daemon {
	return &Daemon{
		mods:    mods,
		sched:   sched,
		clock:   clk,
		logger:  logger,
		options: options,
		cmds:    make(chan func(context.Context)),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the daemon has loaded state and armed its timers.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Run loads state, arms timers, starts servers and processes work until ctx
// is cancelled or Stop is called. Teardown flushes the ledger and releases
// the rule backend.
func (d *Daemon) Run(ctx context.Context, servers ...Server) error {
	if err := d.init(ctx); err != nil {
		d.closeDone()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.runCtx = runCtx
	d.startedAt = d.clock.Now()

	serveErr := make(chan error, len(servers))
	for _, server := range servers {
		go func(server Server) {
			serveErr <- server.Serve(runCtx)
		}(server)
	}
	d.armTimers(runCtx)
	d.logger.Info("daemon started", "pid", d.options.PID, "socket", d.options.SocketPath, "http", d.options.HTTPAddr)
	close(d.ready)

	var runErr error
loop:
	for {
		select {
		case <-runCtx.Done():
			break loop
		case <-d.stopCh:
			break loop
		case err := <-serveErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("transport failed", "error", err)
				runErr = err
				break loop
			}
		case fn := <-d.cmds:
			fn(runCtx)
		}
	}

	cancel()
	d.closeDone()
	d.background.Wait()
	d.teardown()
	return runErr
}

func (d *Daemon) Stop(context.Context) error {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
	return nil
}

func (d *Daemon) init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"blocking", d.mods.Blocking.Init},
		{"preferences", d.mods.Preferences.Load},
		{"focus", d.mods.Focus.Load},
		{"tracking", d.mods.Tracking.Load},
		{"reconcile", d.mods.Reconcile.Load},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("load %s: %w", step.name, err)
		}
	}
	return nil
}

func (d *Daemon) armTimers(ctx context.Context) {
	d.sched.Every(timerIdle, d.options.IdleCheck, d.onLoop(func(ctx context.Context) {
		if err := d.mods.Tracking.CheckIdle(ctx); err != nil {
			d.logger.Warn("idle check failed", "error", err)
		}
	}))
	d.sched.Every(timerEmit, d.options.EmitInterval, d.onLoop(func(ctx context.Context) {
		if _, err := d.mods.Tracking.EmitActive(ctx); err != nil {
			d.logger.Warn("emit active time failed", "error", err)
		}
	}))
	d.sched.Every(timerFocusCheck, d.options.FocusCheck, d.onLoop(d.focusTick))
	d.sched.Every(timerSync, d.options.SyncInterval, func() {
		d.goBackground(func(ctx context.Context) {
			if _, err := d.syncOnce(ctx); err != nil {
				d.logger.Warn("periodic sync failed", "error", err)
			}
		})
	})
	d.armDailyReport()

	session, err := d.mods.Focus.Current(ctx)
	if err == nil && session.Active {
		d.sched.At(timerFocusEnd, session.EndTime, d.onLoop(d.focusTick))
	}
	d.catchUpReport(ctx)
}

func (d *Daemon) armDailyReport() {
	d.sched.At(timerDailyReport, reportdomain.NextMidnight(d.clock.Now()), d.onLoop(d.dailyReport))
}

func (d *Daemon) teardown() {
	d.sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.mods.Tracking.Shutdown(ctx); err != nil {
		d.logger.Warn("flush ledger on shutdown failed", "error", err)
	}
	if err := d.mods.Blocking.Close(); err != nil {
		d.logger.Warn("close rule backend failed", "error", err)
	}
	d.logger.Info("daemon stopped")
}

// post hands fn to the event loop. It reports false once the loop is gone.
func (d *Daemon) post(ctx context.Context, fn func(context.Context)) bool {
	select {
	case d.cmds <- fn:
		return true
	case <-d.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// onLoop adapts fn into a timer callback that runs on the event loop and
// returns once fn has finished.
func (d *Daemon) onLoop(fn func(context.Context)) func() {
	return func() {
		finished := make(chan struct{})
		posted := d.post(d.runCtx, func(ctx context.Context) {
			defer close(finished)
			fn(ctx)
		})
		if !posted {
			return
		}
		select {
		case <-finished:
		case <-d.done:
		}
	}
}

func (d *Daemon) closeDone() {
	d.bgMu.Lock()
	defer d.bgMu.Unlock()
	close(d.done)
}

func (d *Daemon) goBackground(fn func(context.Context)) {
	d.bgMu.Lock()
	select {
	case <-d.done:
		d.bgMu.Unlock()
		return
	default:
	}
	d.background.Add(1)
	d.bgMu.Unlock()
	go func() {
		defer d.background.Done()
		fn(d.runCtx)
	}()
}

// call runs fn on the event loop and waits for its result.
func call[T any](ctx context.Context, d *Daemon, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	var zero T
	reply := make(chan result, 1)
	posted := d.post(ctx, func(loopCtx context.Context) {
		value, err := fn(loopCtx)
		reply <- result{value: value, err: err}
	})
	if !posted {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, apperrors.ErrDaemonNotRunning
	}
	select {
	case r := <-reply:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
