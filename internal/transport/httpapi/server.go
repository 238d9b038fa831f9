package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/rs/cors"

	blockingdto "webtally/internal/modules/blocking/dto"
	trackingdto "webtally/internal/modules/tracking/dto"
	apperrors "webtally/internal/platform/errors"
)

// Backend is what the browser-facing API needs from the daemon.
type Backend interface {
	HandleEvent(ctx context.Context, input trackingdto.EventInput) error
	Decide(ctx context.Context, rawURL string) (blockingdto.DecisionOutput, error)
}

type Options struct {
	Addr           string
	AllowedOrigins []string
}

// Server is the ingest and navigation-decision API used by the browser
// extension.
type Server struct {
	options Options
	backend Backend
	logger  hclog.Logger
	handler http.Handler
}

type eventRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewServer(options Options, backend Backend, logger hclog.Logger) *Server {
	s := &Server{options: options, backend: backend, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/api/contexts/{id}/events", s.postEvent).Methods("POST")
	router.HandleFunc("/api/decide", s.getDecision).Methods("GET")
	router.HandleFunc("/blocked", s.getBlockedPage).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"status": "ok"}})
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: options.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(router)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return fmt.Errorf("listen http api: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("http api listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http api: %w", err)
	}
	return nil
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	contextID := mux.Vars(r)["id"]
	request := eventRequest{}
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&request); err != nil {
		writeError(w, fmt.Errorf("%w: decode event: %v", apperrors.ErrInvalidInput, err))
		return
	}
	err := s.backend.HandleEvent(r.Context(), trackingdto.EventInput{
		ContextID: contextID,
		Type:      strings.TrimSpace(request.Type),
		URL:       strings.TrimSpace(request.URL),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{Success: true})
}

func (s *Server) getDecision(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if strings.TrimSpace(rawURL) == "" {
		writeError(w, fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput))
		return
	}
	decision, err := s.backend.Decide(r.Context(), rawURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: decision})
}

var blockedPage = template.Must(template.New("blocked").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Blocked</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
<h1>This site is blocked</h1>
{{if .}}<p>{{.}}</p>{{end}}
<p>Stay focused. It will be available again when blocking is turned off.</p>
</body></html>
`))

func (s *Server) getBlockedPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := blockedPage.Execute(w, r.URL.Query().Get("url")); err != nil {
		s.logger.Warn("render blocked page failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrDaemonNotRunning):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
