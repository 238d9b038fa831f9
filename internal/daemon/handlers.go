package daemon

import (
	"context"
	"errors"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconcileadapter "webtally/internal/modules/reconcile/adapter/out"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdomain "webtally/internal/modules/report/domain"
	reportdto "webtally/internal/modules/report/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/notify"
	"webtally/internal/transport/httpapi"
	"webtally/internal/transport/ipc"
)

var (
	_ ipc.Handler     = (*Daemon)(nil)
	_ httpapi.Backend = (*Daemon)(nil)
)

func (d *Daemon) HandleEvent(ctx context.Context, input trackingdto.EventInput) error {
	_, err := call(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.mods.Tracking.HandleEvent(ctx, input)
	})
	return err
}

// Decide reads the published rule snapshot and never waits for the loop.
func (d *Daemon) Decide(_ context.Context, rawURL string) (blockingdto.DecisionOutput, error) {
	return d.mods.Blocking.Decide(rawURL), nil
}

func (d *Daemon) Today(ctx context.Context) (trackingdto.DayOutput, error) {
	return call(ctx, d, d.mods.Tracking.Today)
}

func (d *Daemon) Ledger(ctx context.Context, date string) (trackingdto.DayOutput, error) {
	return call(ctx, d, func(ctx context.Context) (trackingdto.DayOutput, error) {
		return d.mods.Tracking.Day(ctx, date)
	})
}

func (d *Daemon) Blocking(ctx context.Context) (blockingdto.StatusOutput, error) {
	return call(ctx, d, d.mods.Blocking.Status)
}

func (d *Daemon) Focus(ctx context.Context) (focusdto.SessionOutput, error) {
	return call(ctx, d, d.mods.Focus.Current)
}

func (d *Daemon) Reports(ctx context.Context, limit int) ([]reportdto.ReportOutput, error) {
	return call(ctx, d, func(ctx context.Context) ([]reportdto.ReportOutput, error) {
		return d.mods.Reports.Recent(ctx, limit)
	})
}

// SyncStatus reads local bookkeeping on the loop and asks the remote store
// from the caller's goroutine.
func (d *Daemon) SyncStatus(ctx context.Context) (reconciledto.StatusOutput, error) {
	status, err := call(ctx, d, d.mods.Reconcile.LocalStatus)
	if err != nil {
		return reconciledto.StatusOutput{}, err
	}
	remote, err := d.mods.Reconcile.RemoteStatus(ctx, status.Owner)
	if err != nil {
		d.logger.Debug("remote sync status unavailable", "error", err)
		return status, nil
	}
	status.Remote = remote
	return status, nil
}

func (d *Daemon) Preferences(ctx context.Context) (prefsdto.PreferencesOutput, error) {
	return call(ctx, d, d.mods.Preferences.Get)
}

func (d *Daemon) Status(ctx context.Context) (ipc.Status, error) {
	return call(ctx, d, func(ctx context.Context) (ipc.Status, error) {
		out := ipc.Status{
			PID:        d.options.PID,
			StartedAt:  d.startedAt,
			SocketPath: d.options.SocketPath,
			HTTPAddr:   d.options.HTTPAddr,
		}
		today, err := d.mods.Tracking.Today(ctx)
		if err != nil {
			return ipc.Status{}, err
		}
		out.TodaySeconds = today.Total
		out.TrackedDomains = len(today.Domains)
		contexts, err := d.mods.Tracking.Contexts(ctx)
		if err != nil {
			return ipc.Status{}, err
		}
		for _, item := range contexts {
			if item.Active {
				out.ActiveContexts++
			}
		}
		blocking, err := d.mods.Blocking.Status(ctx)
		if err != nil {
			return ipc.Status{}, err
		}
		out.Backend = blocking.Backend
		out.BlockingActive = blocking.Active
		focus, err := d.mods.Focus.Current(ctx)
		if err != nil {
			return ipc.Status{}, err
		}
		out.FocusActive = focus.Active
		syncStatus, err := d.mods.Reconcile.LocalStatus(ctx)
		if err != nil {
			return ipc.Status{}, err
		}
		out.SyncNeeded = syncStatus.SyncNeeded
		out.LastSync = syncStatus.LastSync
		return out, nil
	})
}

func (d *Daemon) Notifications(_ context.Context, limit int) ([]notify.Notification, error) {
	if d.mods.Feed == nil {
		return []notify.Notification{}, nil
	}
	return d.mods.Feed.Recent(limit), nil
}

func (d *Daemon) ToggleBlocking(ctx context.Context, enabled bool) (blockingdto.StatusOutput, error) {
	return call(ctx, d, func(ctx context.Context) (blockingdto.StatusOutput, error) {
		return d.mods.Blocking.SetManual(ctx, enabled)
	})
}

func (d *Daemon) AddSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error) {
	return call(ctx, d, func(ctx context.Context) (prefsdto.ListOutput, error) {
		return d.mods.Preferences.AddSite(ctx, prefsdto.SiteInput{List: list, Site: site})
	})
}

func (d *Daemon) RemoveSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error) {
	return call(ctx, d, func(ctx context.Context) (prefsdto.ListOutput, error) {
		return d.mods.Preferences.RemoveSite(ctx, prefsdto.SiteInput{List: list, Site: site})
	})
}

func (d *Daemon) StartFocus(ctx context.Context, minutes int) (focusdto.SessionOutput, error) {
	return call(ctx, d, func(ctx context.Context) (focusdto.SessionOutput, error) {
		session, err := d.mods.Focus.Start(ctx, focusdto.StartInput{Minutes: minutes})
		if err != nil {
			return focusdto.SessionOutput{}, err
		}
		d.sched.At(timerFocusEnd, session.EndTime, d.onLoop(d.focusTick))
		return session, nil
	})
}

func (d *Daemon) StopFocus(ctx context.Context) (focusdto.SessionOutput, error) {
	return call(ctx, d, func(ctx context.Context) (focusdto.SessionOutput, error) {
		session, err := d.mods.Focus.Stop(ctx)
		if err != nil {
			return focusdto.SessionOutput{}, err
		}
		d.sched.Cancel(timerFocusEnd)
		return session, nil
	})
}

func (d *Daemon) SyncNow(ctx context.Context) (reconciledto.SyncOutput, error) {
	return d.syncOnce(ctx)
}

func (d *Daemon) GenerateReport(ctx context.Context, date string) (reportdto.ReportOutput, error) {
	return call(ctx, d, func(ctx context.Context) (reportdto.ReportOutput, error) {
		if date == "" {
			return d.mods.Reports.Generate(ctx, reportdomain.PreviousDate(d.clock.Now()))
		}
		return d.mods.Reports.Generate(ctx, date)
	})
}

func (d *Daemon) Export(ctx context.Context, format string) (reconciledto.ExportOutput, error) {
	return call(ctx, d, func(ctx context.Context) (reconciledto.ExportOutput, error) {
		return d.mods.Reconcile.Export(ctx, reconciledto.ExportInput{Format: format})
	})
}

func (d *Daemon) Import(ctx context.Context, payload []byte) (reconciledto.ImportOutput, error) {
	return call(ctx, d, func(ctx context.Context) (reconciledto.ImportOutput, error) {
		out, err := d.mods.Reconcile.Import(ctx, reconciledto.ImportInput{Payload: payload})
		if err != nil || !out.FocusRestored {
			return out, err
		}
		if session, err := d.mods.Focus.Current(ctx); err == nil && session.Active {
			d.sched.At(timerFocusEnd, session.EndTime, d.onLoop(d.focusTick))
		}
		return out, nil
	})
}

// syncOnce prepares and commits on the loop; the remote round trip runs on
// the calling goroutine so tracking keeps going meanwhile.
func (d *Daemon) syncOnce(ctx context.Context) (reconciledto.SyncOutput, error) {
	if !d.syncing.CompareAndSwap(false, true) {
		return reconciledto.SyncOutput{}, errSyncInProgress
	}
	defer d.syncing.Store(false)

	envelope, err := call(ctx, d, d.mods.Reconcile.Prepare)
	if err != nil {
		return reconciledto.SyncOutput{}, err
	}
	response, err := d.mods.Reconcile.Exchange(ctx, envelope)
	if err != nil {
		status, failErr := call(ctx, d, func(ctx context.Context) (reconciledto.StatusOutput, error) {
			return d.mods.Reconcile.Fail(ctx, err)
		})
		if failErr != nil {
			return reconciledto.SyncOutput{}, failErr
		}
		return reconciledto.SyncOutput{Status: status, ListsReplaced: []string{}}, nil
	}
	return call(ctx, d, func(ctx context.Context) (reconciledto.SyncOutput, error) {
		return d.mods.Reconcile.Commit(ctx, envelope, response)
	})
}

var errSyncInProgress = errors.New("sync already in progress")

func (d *Daemon) focusTick(ctx context.Context) {
	out, err := d.mods.Focus.Tick(ctx)
	if err != nil {
		d.logger.Warn("focus tick failed", "error", err)
		return
	}
	if out.Ended {
		d.sched.Cancel(timerFocusEnd)
	}
}

// dailyReport runs at local midnight: it reports on the day that just ended,
// re-arms itself and forwards the report to the remote store off the loop.
func (d *Daemon) dailyReport(ctx context.Context) {
	d.armDailyReport()
	d.generateDaily(ctx)
}

// catchUpReport covers a midnight the daemon missed. It reports on
// yesterday when time was tracked that day and no report exists yet.
func (d *Daemon) catchUpReport(ctx context.Context) {
	date := reportdomain.PreviousDate(d.clock.Now())
	_, err := d.mods.Reports.Get(ctx, date)
	if err == nil {
		return
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		d.logger.Warn("check missed daily report failed", "date", date, "error", err)
		return
	}
	day, err := d.mods.Tracking.Day(ctx, date)
	if err != nil || len(day.Domains) == 0 {
		return
	}
	d.logger.Info("generating missed daily report", "date", date)
	d.generateDaily(ctx)
}

func (d *Daemon) generateDaily(ctx context.Context) {
	report, err := d.mods.Reports.GenerateDaily(ctx)
	if err != nil {
		d.logger.Warn("daily report failed", "error", err)
		return
	}
	status, err := d.mods.Reconcile.LocalStatus(ctx)
	if err != nil {
		return
	}
	payload := reconcileadapter.ToReport(report)
	delivered := reportdto.ReportVersion{Date: report.Date, GeneratedAt: report.GeneratedAt}
	d.goBackground(func(ctx context.Context) {
		if err := d.mods.Reconcile.ForwardReport(ctx, status.Owner, payload); err != nil {
			d.logger.Info("daily report not forwarded, next sync will carry it", "date", payload.Date, "error", err)
			return
		}
		d.post(ctx, func(ctx context.Context) {
			err := d.mods.Reports.MarkSynced(ctx, reportdto.MarkSyncedInput{Reports: []reportdto.ReportVersion{delivered}})
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				d.logger.Warn("mark daily report synced failed", "error", err)
			}
		})
	})
}
