package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/daemon"
	blockingoutadapter "webtally/internal/modules/blocking/adapter/out"
	blockingout "webtally/internal/modules/blocking/port/out"
	blockingservice "webtally/internal/modules/blocking/service"
	blockingusecase "webtally/internal/modules/blocking/usecase"
	focusoutadapter "webtally/internal/modules/focus/adapter/out"
	focusservice "webtally/internal/modules/focus/service"
	focususecase "webtally/internal/modules/focus/usecase"
	prefsoutadapter "webtally/internal/modules/preferences/adapter/out"
	prefsservice "webtally/internal/modules/preferences/service"
	prefsusecase "webtally/internal/modules/preferences/usecase"
	reconcileoutadapter "webtally/internal/modules/reconcile/adapter/out"
	reconcileout "webtally/internal/modules/reconcile/port/out"
	reconcileservice "webtally/internal/modules/reconcile/service"
	reconcileusecase "webtally/internal/modules/reconcile/usecase"
	reportoutadapter "webtally/internal/modules/report/adapter/out"
	reportservice "webtally/internal/modules/report/service"
	reportusecase "webtally/internal/modules/report/usecase"
	trackingoutadapter "webtally/internal/modules/tracking/adapter/out"
	trackingdomain "webtally/internal/modules/tracking/domain"
	trackingservice "webtally/internal/modules/tracking/service"
	trackingusecase "webtally/internal/modules/tracking/usecase"
	"webtally/internal/platform/clock"
	"webtally/internal/platform/config"
	"webtally/internal/platform/id"
	"webtally/internal/platform/kv"
	"webtally/internal/platform/notify"
	"webtally/internal/platform/scheduler"
	"webtally/internal/platform/sqlitedb"
	"webtally/internal/transport/httpapi"
	"webtally/internal/transport/ipc"
	uiapp "webtally/internal/ui/app"
)

// Deps are the outer resources the modules are built on.
type Deps struct {
	Config    config.Config
	Store     kv.Store
	DB        *sql.DB
	Installer blockingout.RuleInstaller
	Remote    reconcileout.RemoteStore
	Clock     clock.Clock
	IDs       id.Generator
	Logger    hclog.Logger
}

// NewModules wires every module against deps. Cross-module calls go through
// the adapters in each module's adapter/out.
func NewModules(deps Deps) (daemon.Modules, error) {
	cfg := deps.Config
	logger := deps.Logger
	feed := notify.NewFeed(logger.Named("notify"), deps.Clock, deps.IDs, 0)

	engine := blockingservice.NewEngine(
		deps.Installer,
		blockingoutadapter.NewKVStateStore(deps.Store),
		deps.Clock,
		logger.Named("blocking"),
		cfg.Blocking.RedirectURL,
	)
	blockingUC := blockingusecase.NewInteractor(engine)

	prefsUC := prefsusecase.NewInteractor(
		prefsservice.NewPreferencesService(prefsoutadapter.NewKVPreferencesStore(deps.Store), deps.Clock),
		prefsoutadapter.NewBlockingSinkAdapter(blockingUC),
		logger.Named("preferences"),
	)

	ledger := trackingservice.NewLedgerService(trackingoutadapter.NewKVLedgerStore(deps.Store), deps.Clock, logger.Named("ledger"))
	detector := trackingservice.NewDetectorService(
		trackingdomain.NewDetector(cfg.Tracking.IdleThreshold, cfg.Tracking.EmitInterval),
		ledger,
		deps.Clock,
		logger.Named("detector"),
	)
	trackingUC := trackingusecase.NewInteractor(ledger, detector)

	focusUC := focususecase.NewInteractor(focusservice.NewFocusService(
		focusoutadapter.NewKVSessionStore(deps.Store),
		focusoutadapter.NewBlockingControllerAdapter(blockingUC),
		feed,
		deps.Clock,
		logger.Named("focus"),
	))

	reportStore, err := reportoutadapter.NewSQLiteReportStore(deps.DB)
	if err != nil {
		return daemon.Modules{}, fmt.Errorf("new report store: %w", err)
	}
	reportUC := reportusecase.NewInteractor(reportservice.NewReportService(
		reportoutadapter.NewTrackingLedgerAdapter(trackingUC),
		reportoutadapter.NewPreferencesListAdapter(prefsUC),
		reportStore,
		reportoutadapter.NewMarkdownNoteWriter(cfg.ReportsDir),
		feed,
		deps.Clock,
		logger.Named("report"),
	))

	reconcileSvc := reconcileservice.NewReconcileService(
		reconcileservice.Ports{
			Remote:      deps.Remote,
			Ledger:      reconcileoutadapter.NewTrackingLedgerAdapter(trackingUC),
			Preferences: reconcileoutadapter.NewPreferencesAdapter(prefsUC),
			Reports:     reconcileoutadapter.NewReportAdapter(reportUC),
			Blocking:    reconcileoutadapter.NewBlockingAdapter(blockingUC),
			Focus:       reconcileoutadapter.NewFocusAdapter(focusUC),
			Meta:        reconcileoutadapter.NewKVMetaStore(deps.Store),
		},
		deps.IDs,
		deps.Clock,
		logger.Named("reconcile"),
		reconcileservice.Options{StaleAfter: cfg.Sync.StaleAfter, Owner: cfg.Remote.Owner},
	)

	return daemon.Modules{
		Tracking:    trackingUC,
		Preferences: prefsUC,
		Blocking:    blockingUC,
		Focus:       focusUC,
		Reports:     reportUC,
		Reconcile:   reconcileusecase.NewInteractor(reconcileSvc, logger.Named("reconcile")),
		Feed:        feed,
	}, nil
}

// NewInstaller picks the rule backend named in the config.
func NewInstaller(cfg config.Config, logger hclog.Logger) blockingout.RuleInstaller {
	if cfg.Blocking.Backend == "plugin" {
		return blockingoutadapter.NewPluginRuleInstaller(cfg.Blocking.PluginBinary, logger.Named("rules"))
	}
	return blockingoutadapter.NewFileRuleInstaller(cfg.RulesPath)
}

// Runtime is a fully wired daemon with its transports.
type Runtime struct {
	Config  config.Config
	Daemon  *daemon.Daemon
	Servers []daemon.Server
	db      *sql.DB
	logger  hclog.Logger
}

func NewRuntime(cfg config.Config, logger hclog.Logger) (*Runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := kv.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("new kv store: %w", err)
	}
	clk := clock.SystemClock{Location: loc}
	mods, err := NewModules(Deps{
		Config:    cfg,
		Store:     store,
		DB:        db,
		Installer: NewInstaller(cfg, logger),
		Remote:    reconcileoutadapter.NewHTTPRemoteStore(cfg.Remote.BaseURL, cfg.Remote.Timeout),
		Clock:     clk,
		IDs:       id.UUID{},
		Logger:    logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	d := daemon.New(mods, scheduler.NewTimers(), clk, logger.Named("daemon"), daemon.Options{
		IdleCheck:    cfg.Tracking.IdleCheck,
		EmitInterval: cfg.Tracking.EmitInterval,
		FocusCheck:   cfg.Focus.CheckInterval,
		SyncInterval: cfg.Sync.Interval,
		SocketPath:   cfg.SocketPath,
		HTTPAddr:     cfg.HTTP.Listen,
		PID:          os.Getpid(),
	})
	servers := []daemon.Server{
		ipc.NewServer(cfg.SocketPath, d, logger.Named("ipc")),
		httpapi.NewServer(httpapi.Options{Addr: cfg.HTTP.Listen, AllowedOrigins: cfg.HTTP.AllowedOrigins}, d, logger.Named("http")),
	}
	return &Runtime{Config: cfg, Daemon: d, Servers: servers, db: db, logger: logger}, nil
}

// Run holds the pid file for the daemon's lifetime.
func (r *Runtime) Run(ctx context.Context) error {
	process := NewProcess(r.Config)
	if err := process.WritePID(os.Getpid()); err != nil {
		return err
	}
	runErr := r.Daemon.Run(ctx, r.Servers...)
	if err := process.ClearPID(); err != nil {
		r.logger.Warn("clear pid file failed", "error", err)
	}
	return errors.Join(runErr, r.db.Close())
}

func NewClient(cfg config.Config) *ipc.Client {
	return ipc.NewClient(cfg.SocketPath, 0)
}

func NewProcess(cfg config.Config) *daemon.Process {
	return daemon.NewProcess(daemon.Paths{
		Home:       cfg.Home,
		PIDPath:    cfg.PIDPath,
		SocketPath: cfg.SocketPath,
		LogPath:    cfg.LogPath,
	}, NewClient(cfg))
}

func RunTUI(cfg config.Config) error {
	model := uiapp.NewModel(NewClient(cfg))
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
