package ipc

import (
	"context"
	"time"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdto "webtally/internal/modules/report/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	"webtally/internal/platform/notify"
)

// ServiceName is the net/rpc service the daemon registers.
const ServiceName = "Webtally"

// Status summarizes the running daemon.
type Status struct {
	PID            int       `json:"pid"`
	StartedAt      time.Time `json:"startedAt"`
	SocketPath     string    `json:"socketPath"`
	HTTPAddr       string    `json:"httpAddr"`
	Backend        string    `json:"backend"`
	TodaySeconds   int64     `json:"todaySeconds"`
	TrackedDomains int       `json:"trackedDomains"`
	ActiveContexts int       `json:"activeContexts"`
	BlockingActive bool      `json:"blockingActive"`
	FocusActive    bool      `json:"focusActive"`
	SyncNeeded     bool      `json:"syncNeeded"`
	LastSync       time.Time `json:"lastSync,omitempty"`
}

// Handler is implemented by the daemon and, over the socket, by Client.
type Handler interface {
	Today(ctx context.Context) (trackingdto.DayOutput, error)
	Ledger(ctx context.Context, date string) (trackingdto.DayOutput, error)
	Blocking(ctx context.Context) (blockingdto.StatusOutput, error)
	Decide(ctx context.Context, rawURL string) (blockingdto.DecisionOutput, error)
	Focus(ctx context.Context) (focusdto.SessionOutput, error)
	Reports(ctx context.Context, limit int) ([]reportdto.ReportOutput, error)
	SyncStatus(ctx context.Context) (reconciledto.StatusOutput, error)
	Preferences(ctx context.Context) (prefsdto.PreferencesOutput, error)
	Status(ctx context.Context) (Status, error)
	Notifications(ctx context.Context, limit int) ([]notify.Notification, error)

	ToggleBlocking(ctx context.Context, enabled bool) (blockingdto.StatusOutput, error)
	AddSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error)
	RemoveSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error)
	StartFocus(ctx context.Context, minutes int) (focusdto.SessionOutput, error)
	StopFocus(ctx context.Context) (focusdto.SessionOutput, error)
	SyncNow(ctx context.Context) (reconciledto.SyncOutput, error)
	GenerateReport(ctx context.Context, date string) (reportdto.ReportOutput, error)
	Export(ctx context.Context, format string) (reconciledto.ExportOutput, error)
	Import(ctx context.Context, payload []byte) (reconciledto.ImportOutput, error)
	Stop(ctx context.Context) error
}

type Empty struct{}

type DateArgs struct {
	Date string
}

type LimitArgs struct {
	Limit int
}

type URLArgs struct {
	URL string
}

type ToggleArgs struct {
	Enabled bool
}

type SiteArgs struct {
	List string
	Site string
}

type FocusArgs struct {
	Minutes int
}

type ExportArgs struct {
	Format string
}

type ImportArgs struct {
	Payload []byte
}
