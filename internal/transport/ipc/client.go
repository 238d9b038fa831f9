package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdto "webtally/internal/modules/report/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	apperrors "webtally/internal/platform/errors"
	"webtally/internal/platform/notify"
)

const defaultCallTimeout = 30 * time.Second

// Client dials the daemon socket once per call.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{socketPath: socketPath, timeout: timeout}
}

var _ Handler = (*Client)(nil)

func (c *Client) Today(ctx context.Context) (trackingdto.DayOutput, error) {
	return invoke[trackingdto.DayOutput](ctx, c, "Today", Empty{})
}

func (c *Client) Ledger(ctx context.Context, date string) (trackingdto.DayOutput, error) {
	return invoke[trackingdto.DayOutput](ctx, c, "Ledger", DateArgs{Date: date})
}

func (c *Client) Blocking(ctx context.Context) (blockingdto.StatusOutput, error) {
	return invoke[blockingdto.StatusOutput](ctx, c, "Blocking", Empty{})
}

func (c *Client) Decide(ctx context.Context, rawURL string) (blockingdto.DecisionOutput, error) {
	return invoke[blockingdto.DecisionOutput](ctx, c, "Decide", URLArgs{URL: rawURL})
}

func (c *Client) Focus(ctx context.Context) (focusdto.SessionOutput, error) {
	return invoke[focusdto.SessionOutput](ctx, c, "Focus", Empty{})
}

func (c *Client) Reports(ctx context.Context, limit int) ([]reportdto.ReportOutput, error) {
	return invoke[[]reportdto.ReportOutput](ctx, c, "Reports", LimitArgs{Limit: limit})
}

func (c *Client) SyncStatus(ctx context.Context) (reconciledto.StatusOutput, error) {
	return invoke[reconciledto.StatusOutput](ctx, c, "SyncStatus", Empty{})
}

func (c *Client) Preferences(ctx context.Context) (prefsdto.PreferencesOutput, error) {
	return invoke[prefsdto.PreferencesOutput](ctx, c, "Preferences", Empty{})
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	return invoke[Status](ctx, c, "Status", Empty{})
}

func (c *Client) Notifications(ctx context.Context, limit int) ([]notify.Notification, error) {
	return invoke[[]notify.Notification](ctx, c, "Notifications", LimitArgs{Limit: limit})
}

func (c *Client) ToggleBlocking(ctx context.Context, enabled bool) (blockingdto.StatusOutput, error) {
	return invoke[blockingdto.StatusOutput](ctx, c, "ToggleBlocking", ToggleArgs{Enabled: enabled})
}

func (c *Client) AddSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error) {
	return invoke[prefsdto.ListOutput](ctx, c, "AddSite", SiteArgs{List: list, Site: site})
}

func (c *Client) RemoveSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error) {
	return invoke[prefsdto.ListOutput](ctx, c, "RemoveSite", SiteArgs{List: list, Site: site})
}

func (c *Client) StartFocus(ctx context.Context, minutes int) (focusdto.SessionOutput, error) {
	return invoke[focusdto.SessionOutput](ctx, c, "StartFocus", FocusArgs{Minutes: minutes})
}

func (c *Client) StopFocus(ctx context.Context) (focusdto.SessionOutput, error) {
	return invoke[focusdto.SessionOutput](ctx, c, "StopFocus", Empty{})
}

func (c *Client) SyncNow(ctx context.Context) (reconciledto.SyncOutput, error) {
	return invoke[reconciledto.SyncOutput](ctx, c, "SyncNow", Empty{})
}

func (c *Client) GenerateReport(ctx context.Context, date string) (reportdto.ReportOutput, error) {
	return invoke[reportdto.ReportOutput](ctx, c, "GenerateReport", DateArgs{Date: date})
}

func (c *Client) Export(ctx context.Context, format string) (reconciledto.ExportOutput, error) {
	return invoke[reconciledto.ExportOutput](ctx, c, "Export", ExportArgs{Format: format})
}

func (c *Client) Import(ctx context.Context, payload []byte) (reconciledto.ImportOutput, error) {
	return invoke[reconciledto.ImportOutput](ctx, c, "Import", ImportArgs{Payload: payload})
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c, "Stop", Empty{})
	return err
}

// Reachable reports whether something accepts connections on the socket.
func (c *Client) Reachable() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func invoke[T any](ctx context.Context, c *Client, method string, args any) (T, error) {
	var resp T
	client, err := c.dial(ctx)
	if err != nil {
		return resp, err
	}
	defer client.Close()
	if err := client.Call(ServiceName+"."+method, args, &resp); err != nil {
		return resp, decodeError(err)
	}
	return resp, nil
}

func (c *Client) dial(ctx context.Context) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
	}
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}

// remoteError carries the daemon's error text and, when recognized, the
// sentinel it was built from.
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }

func decodeError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		if errors.Is(err, rpc.ErrShutdown) {
			return fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
		}
		return err
	}
	msg := string(serverErr)
	for _, sentinel := range apperrors.Known {
		if strings.Contains(msg, sentinel.Error()) {
			return &remoteError{msg: msg, sentinel: sentinel}
		}
	}
	return errors.New(msg)
}
