package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdto "webtally/internal/modules/report/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	"webtally/internal/platform/notify"
)

// Server exposes a Handler as JSON-RPC over a unix socket.
type Server struct {
	socketPath string
	handler    Handler
	logger     hclog.Logger
}

func NewServer(socketPath string, handler Handler, logger hclog.Logger) *Server {
	return &Server{socketPath: socketPath, handler: handler, logger: logger}
}

func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts connections until ctx is done. The socket file is removed on
// return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(s.socketPath)
	}()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(ServiceName, &rpcService{h: s.handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	s.logger.Debug("ipc listening", "socket", s.socketPath)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// rpcService adapts Handler to the net/rpc method shape. Each call gets a
// fresh background context; cancellation does not cross the socket.
type rpcService struct {
	h Handler
}

func (s *rpcService) Today(_ Empty, resp *trackingdto.DayOutput) error {
	return fill(resp)(s.h.Today(context.Background()))
}

func (s *rpcService) Ledger(req DateArgs, resp *trackingdto.DayOutput) error {
	return fill(resp)(s.h.Ledger(context.Background(), req.Date))
}

func (s *rpcService) Blocking(_ Empty, resp *blockingdto.StatusOutput) error {
	return fill(resp)(s.h.Blocking(context.Background()))
}

func (s *rpcService) Decide(req URLArgs, resp *blockingdto.DecisionOutput) error {
	return fill(resp)(s.h.Decide(context.Background(), req.URL))
}

func (s *rpcService) Focus(_ Empty, resp *focusdto.SessionOutput) error {
	return fill(resp)(s.h.Focus(context.Background()))
}

func (s *rpcService) Reports(req LimitArgs, resp *[]reportdto.ReportOutput) error {
	return fill(resp)(s.h.Reports(context.Background(), req.Limit))
}

func (s *rpcService) SyncStatus(_ Empty, resp *reconciledto.StatusOutput) error {
	return fill(resp)(s.h.SyncStatus(context.Background()))
}

func (s *rpcService) Preferences(_ Empty, resp *prefsdto.PreferencesOutput) error {
	return fill(resp)(s.h.Preferences(context.Background()))
}

func (s *rpcService) Status(_ Empty, resp *Status) error {
	return fill(resp)(s.h.Status(context.Background()))
}

func (s *rpcService) Notifications(req LimitArgs, resp *[]notify.Notification) error {
	return fill(resp)(s.h.Notifications(context.Background(), req.Limit))
}

func (s *rpcService) ToggleBlocking(req ToggleArgs, resp *blockingdto.StatusOutput) error {
	return fill(resp)(s.h.ToggleBlocking(context.Background(), req.Enabled))
}

func (s *rpcService) AddSite(req SiteArgs, resp *prefsdto.ListOutput) error {
	return fill(resp)(s.h.AddSite(context.Background(), req.List, req.Site))
}

func (s *rpcService) RemoveSite(req SiteArgs, resp *prefsdto.ListOutput) error {
	return fill(resp)(s.h.RemoveSite(context.Background(), req.List, req.Site))
}

func (s *rpcService) StartFocus(req FocusArgs, resp *focusdto.SessionOutput) error {
	return fill(resp)(s.h.StartFocus(context.Background(), req.Minutes))
}

func (s *rpcService) StopFocus(_ Empty, resp *focusdto.SessionOutput) error {
	return fill(resp)(s.h.StopFocus(context.Background()))
}

func (s *rpcService) SyncNow(_ Empty, resp *reconciledto.SyncOutput) error {
	return fill(resp)(s.h.SyncNow(context.Background()))
}

func (s *rpcService) GenerateReport(req DateArgs, resp *reportdto.ReportOutput) error {
	return fill(resp)(s.h.GenerateReport(context.Background(), req.Date))
}

func (s *rpcService) Export(req ExportArgs, resp *reconciledto.ExportOutput) error {
	return fill(resp)(s.h.Export(context.Background(), req.Format))
}

func (s *rpcService) Import(req ImportArgs, resp *reconciledto.ImportOutput) error {
	return fill(resp)(s.h.Import(context.Background(), req.Payload))
}

func (s *rpcService) Stop(_ Empty, _ *Empty) error {
	return s.h.Stop(context.Background())
}

func fill[T any](dst *T) func(T, error) error {
	return func(value T, err error) error {
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}
}
