package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/modules/reconcile/domain"
	"webtally/internal/modules/reconcile/dto"
	reconcileout "webtally/internal/modules/reconcile/port/out"
	"webtally/internal/platform/clock"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/id"
)

type Options struct {
	StaleAfter time.Duration
	// Owner overrides the generated client id as the remote owner key.
	Owner string
}

type Ports struct {
	Remote      reconcileout.RemoteStore
	Ledger      reconcileout.LedgerPort
	Preferences reconcileout.PreferencesPort
	Reports     reconcileout.ReportPort
	Blocking    reconcileout.BlockingPort
	Focus       reconcileout.FocusPort
	Meta        reconcileout.MetaStore
}

// ReconcileService merges local state with the remote store. Remote failures
// never change local state; they only surface in the status.
type ReconcileService struct {
	ports   Ports
	ids     id.Generator
	clock   clock.Clock
	logger  hclog.Logger
	options Options

	meta    reconcileout.Meta
	lastErr string
}

func NewReconcileService(ports Ports, ids id.Generator, clk clock.Clock, logger hclog.Logger, options Options) *ReconcileService {
	if options.StaleAfter <= 0 {
		options.StaleAfter = time.Hour
	}
	return &ReconcileService{ports: ports, ids: ids, clock: clk, logger: logger, options: options}
}

// Load restores sync bookkeeping, minting a client id on first run.
func (s *ReconcileService) Load(ctx context.Context) error {
	meta, err := s.ports.Meta.LoadMeta(ctx)
	if err != nil {
		return err
	}
	if meta.ClientID == "" {
		meta.ClientID = s.ids.New()
		if err := s.ports.Meta.SaveMeta(ctx, meta); err != nil {
			return err
		}
	}
	s.meta = meta
	return nil
}

func (s *ReconcileService) Owner() string {
	if owner := strings.TrimSpace(s.options.Owner); owner != "" {
		return owner
	}
	return s.meta.ClientID
}

func (s *ReconcileService) Prepare(ctx context.Context) (domain.Envelope, error) {
	ledger, err := s.ports.Ledger.Snapshot(ctx)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("snapshot ledger: %w", err)
	}
	lists, err := s.ports.Preferences.Lists(ctx)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("snapshot preferences: %w", err)
	}
	reports, err := s.ports.Reports.Pending(ctx)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("pending reports: %w", err)
	}
	return domain.Envelope{
		Owner:           s.Owner(),
		TimeData:        ledger,
		Preferences:     lists,
		Reports:         reports,
		ClientTimestamp: s.clock.Now(),
	}, nil
}

// Exchange performs the remote round trip. It reads no local state.
func (s *ReconcileService) Exchange(ctx context.Context, envelope domain.Envelope) (domain.Response, error) {
	response, err := s.ports.Remote.Push(ctx, envelope)
	if err != nil {
		if errors.Is(err, apperrors.ErrRemoteUnavailable) {
			return domain.Response{}, err
		}
		return domain.Response{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}
	return response, nil
}

// Commit applies the remote response against current local state, which may
// have moved on since Prepare.
func (s *ReconcileService) Commit(ctx context.Context, envelope domain.Envelope, response domain.Response) (dto.SyncOutput, error) {
	ledger, err := s.ports.Ledger.Snapshot(ctx)
	if err != nil {
		return dto.SyncOutput{}, fmt.Errorf("snapshot ledger: %w", err)
	}
	lists, err := s.ports.Preferences.Lists(ctx)
	if err != nil {
		return dto.SyncOutput{}, fmt.Errorf("snapshot preferences: %w", err)
	}
	plan := domain.PlanCommit(ledger, lists, response)

	out := dto.SyncOutput{ListsReplaced: []string{}, RemoteTimestamp: response.Timestamp}
	if len(plan.Ledger) > 0 {
		changed, err := s.ports.Ledger.Merge(ctx, plan.Ledger)
		if err != nil {
			return dto.SyncOutput{}, fmt.Errorf("merge ledger: %w", err)
		}
		out.LedgerCells = changed
	}
	names := make([]string, 0, len(plan.Lists))
	for name := range plan.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.ports.Preferences.Replace(ctx, name, plan.Lists[name]); err != nil {
			return dto.SyncOutput{}, fmt.Errorf("replace %s list: %w", name, err)
		}
		out.ListsReplaced = append(out.ListsReplaced, name)
	}

	now := s.clock.Now()
	if versions := envelope.ReportVersions(); len(versions) > 0 {
		if err := s.ports.Reports.MarkSynced(ctx, versions, now); err != nil {
			s.logger.Warn("mark reports synced failed", "error", err)
		} else {
			out.ReportsSynced = len(versions)
		}
	}

	s.meta.LastSync = now
	s.lastErr = ""
	if err := s.ports.Meta.SaveMeta(ctx, s.meta); err != nil {
		s.logger.Warn("persist last sync failed", "error", err)
	}
	s.logger.Info("sync committed", "ledger_cells", out.LedgerCells, "lists", len(out.ListsReplaced), "reports", out.ReportsSynced)
	out.Status = s.LocalStatus()
	return out, nil
}

// Fail records a failed exchange. Local state and lastSync stay as they were.
func (s *ReconcileService) Fail(cause error) dto.StatusOutput {
	s.lastErr = cause.Error()
	s.logger.Warn("sync failed", "error", cause)
	return s.LocalStatus()
}

func (s *ReconcileService) Sync(ctx context.Context) (dto.SyncOutput, error) {
	envelope, err := s.Prepare(ctx)
	if err != nil {
		return dto.SyncOutput{}, err
	}
	response, err := s.Exchange(ctx, envelope)
	if err != nil {
		return dto.SyncOutput{Status: s.Fail(err), ListsReplaced: []string{}}, nil
	}
	return s.Commit(ctx, envelope, response)
}

func (s *ReconcileService) LocalStatus() dto.StatusOutput {
	return dto.StatusOutput{
		Owner:      s.Owner(),
		LastSync:   s.meta.LastSync,
		SyncNeeded: s.lastErr != "" || domain.NeedsSync(s.meta.LastSync, s.clock.Now(), s.options.StaleAfter),
		LastError:  s.lastErr,
	}
}

func (s *ReconcileService) RemoteStatus(ctx context.Context, owner string) (*dto.RemoteStatus, error) {
	remote, err := s.ports.Remote.Status(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &remote, nil
}

func (s *ReconcileService) ForwardReport(ctx context.Context, owner string, report domain.Report) error {
	return s.ports.Remote.PushReport(ctx, owner, report)
}

func (s *ReconcileService) Export(ctx context.Context) (domain.StateDocument, error) {
	ledger, err := s.ports.Ledger.Snapshot(ctx)
	if err != nil {
		return domain.StateDocument{}, err
	}
	lists, err := s.ports.Preferences.Lists(ctx)
	if err != nil {
		return domain.StateDocument{}, err
	}
	manual, err := s.ports.Blocking.Manual(ctx)
	if err != nil {
		return domain.StateDocument{}, err
	}
	doc := domain.StateDocument{
		TimeLedger:       ledger,
		ProductiveSites:  nonNil(lists.Productive.Sites),
		DistractingSites: nonNil(lists.Distracting.Sites),
		BlockedSites:     nonNil(lists.Blocked.Sites),
		PreferencesUpdatedAt: map[string]time.Time{
			"productive":  lists.Productive.UpdatedAt,
			"distracting": lists.Distracting.UpdatedAt,
			"blocked":     lists.Blocked.UpdatedAt,
		},
		BlockingEnabled: manual,
		ExportDate:      s.clock.Now(),
	}
	if s.ports.Focus != nil {
		session, err := s.ports.Focus.Current(ctx)
		if err != nil {
			return domain.StateDocument{}, err
		}
		if session.Active {
			doc.FocusSession = &session
		}
	}
	if !s.meta.LastSync.IsZero() {
		last := s.meta.LastSync
		doc.LastSync = &last
	}
	return doc, nil
}

// Import merges the ledger by maximum, replaces the three lists and restores
// the manual blocking toggle, lastSync and a still running focus session.
// Lists keep the document's edit times so an old backup never outranks a
// newer remote edit; documents without them fall back to the export date.
func (s *ReconcileService) Import(ctx context.Context, doc domain.StateDocument) (dto.ImportOutput, error) {
	if err := doc.Validate(); err != nil {
		return dto.ImportOutput{}, err
	}
	out := dto.ImportOutput{BlockingEnabled: doc.BlockingEnabled}
	changed, err := s.ports.Ledger.Merge(ctx, doc.TimeLedger)
	if err != nil {
		return dto.ImportOutput{}, fmt.Errorf("merge ledger: %w", err)
	}
	out.LedgerCells = changed

	stamp := doc.ExportDate
	if stamp.IsZero() {
		stamp = s.clock.Now()
	}
	for _, item := range []struct {
		name  string
		sites []string
	}{
		{"productive", doc.ProductiveSites},
		{"distracting", doc.DistractingSites},
		{"blocked", doc.BlockedSites},
	} {
		if item.sites == nil {
			continue
		}
		updatedAt := doc.PreferencesUpdatedAt[item.name]
		if updatedAt.IsZero() {
			updatedAt = stamp
		}
		if err := s.ports.Preferences.Replace(ctx, item.name, domain.List{Sites: item.sites, UpdatedAt: updatedAt}); err != nil {
			return dto.ImportOutput{}, fmt.Errorf("replace %s list: %w", item.name, err)
		}
		out.Lists++
	}
	if err := s.ports.Blocking.SetManual(ctx, doc.BlockingEnabled); err != nil {
		s.logger.Warn("restore blocking toggle failed", "error", err)
	}
	if doc.LastSync != nil {
		s.meta.LastSync = *doc.LastSync
		if err := s.ports.Meta.SaveMeta(ctx, s.meta); err != nil {
			s.logger.Warn("persist last sync failed", "error", err)
		}
	}
	if doc.FocusSession != nil && doc.FocusSession.Active && s.ports.Focus != nil {
		restored, err := s.ports.Focus.Restore(ctx, *doc.FocusSession)
		if err != nil {
			s.logger.Warn("restore focus session failed", "error", err)
		}
		out.FocusRestored = restored
	}
	s.logger.Info("state imported", "ledger_cells", out.LedgerCells, "lists", out.Lists, "focus", out.FocusRestored)
	return out, nil
}

func nonNil(sites []string) []string {
	if sites == nil {
		return []string{}
	}
	return append([]string{}, sites...)
}
