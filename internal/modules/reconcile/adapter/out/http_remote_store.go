package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webtally/internal/modules/reconcile/domain"
	"webtally/internal/modules/reconcile/dto"
	reconcileout "webtally/internal/modules/reconcile/port/out"
	apperrors "webtally/internal/platform/errors"
)

type syncRequest struct {
	UserID               string               `json:"userId"`
	TimeData             domain.TimeData      `json:"timeData"`
	BlockedSites         []string             `json:"blockedSites"`
	ProductiveSites      []string             `json:"productiveSites"`
	DistractingSites     []string             `json:"distractingSites"`
	PreferencesUpdatedAt map[string]time.Time `json:"preferencesUpdatedAt"`
	Reports              []domain.Report      `json:"reports"`
	ClientTimestamp      time.Time            `json:"clientTimestamp"`
}

type remotePreferences struct {
	BlockedSites     []string             `json:"blockedSites"`
	ProductiveSites  []string             `json:"productiveSites"`
	DistractingSites []string             `json:"distractingSites"`
	UpdatedAt        map[string]time.Time `json:"updatedAt"`
}

type syncResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Data      *struct {
		TimeData    domain.TimeData    `json:"timeData"`
		Preferences *remotePreferences `json:"preferences"`
	} `json:"data"`
}

type reportRequest struct {
	domain.Report
	UserID string `json:"userId"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		LastSync        *time.Time `json:"lastSync"`
		LatestTimeEntry *time.Time `json:"latestTimeEntry"`
		LatestReport    *time.Time `json:"latestReport"`
		SyncNeeded      bool       `json:"syncNeeded"`
	} `json:"data"`
}

type ackResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HTTPRemoteStore talks JSON to the remote activity store. Every failure is
// reported as apperrors.ErrRemoteUnavailable.
type HTTPRemoteStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRemoteStore(baseURL string, timeout time.Duration) *HTTPRemoteStore {
	return &HTTPRemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

var _ reconcileout.RemoteStore = (*HTTPRemoteStore)(nil)

func (s *HTTPRemoteStore) Push(ctx context.Context, envelope domain.Envelope) (domain.Response, error) {
	request := syncRequest{
		UserID:           envelope.Owner,
		TimeData:         envelope.TimeData,
		BlockedSites:     envelope.Preferences.Blocked.Sites,
		ProductiveSites:  envelope.Preferences.Productive.Sites,
		DistractingSites: envelope.Preferences.Distracting.Sites,
		PreferencesUpdatedAt: map[string]time.Time{
			"blocked":     envelope.Preferences.Blocked.UpdatedAt,
			"productive":  envelope.Preferences.Productive.UpdatedAt,
			"distracting": envelope.Preferences.Distracting.UpdatedAt,
		},
		Reports:         envelope.Reports,
		ClientTimestamp: envelope.ClientTimestamp,
	}
	if request.Reports == nil {
		request.Reports = []domain.Report{}
	}
	response := syncResponse{}
	if err := s.do(ctx, http.MethodPost, "/api/sync", request, &response); err != nil {
		return domain.Response{}, err
	}
	if !response.Success {
		return domain.Response{}, fmt.Errorf("%w: sync rejected: %s", apperrors.ErrRemoteUnavailable, response.Error)
	}
	out := domain.Response{Timestamp: response.Timestamp}
	if response.Data == nil {
		return out, nil
	}
	out.TimeData = response.Data.TimeData
	if prefs := response.Data.Preferences; prefs != nil {
		out.Preferences = &domain.Lists{
			Productive:  domain.List{Sites: prefs.ProductiveSites, UpdatedAt: prefs.UpdatedAt["productive"]},
			Distracting: domain.List{Sites: prefs.DistractingSites, UpdatedAt: prefs.UpdatedAt["distracting"]},
			Blocked:     domain.List{Sites: prefs.BlockedSites, UpdatedAt: prefs.UpdatedAt["blocked"]},
		}
	}
	return out, nil
}

func (s *HTTPRemoteStore) PushReport(ctx context.Context, owner string, report domain.Report) error {
	response := ackResponse{}
	if err := s.do(ctx, http.MethodPost, "/api/daily-report", reportRequest{Report: report, UserID: owner}, &response); err != nil {
		return err
	}
	if !response.Success {
		return fmt.Errorf("%w: report rejected: %s", apperrors.ErrRemoteUnavailable, response.Error)
	}
	return nil
}

func (s *HTTPRemoteStore) Status(ctx context.Context, owner string) (dto.RemoteStatus, error) {
	response := statusResponse{}
	if err := s.do(ctx, http.MethodGet, "/api/sync/status/"+url.PathEscape(owner), nil, &response); err != nil {
		return dto.RemoteStatus{}, err
	}
	if !response.Success {
		return dto.RemoteStatus{}, fmt.Errorf("%w: status rejected: %s", apperrors.ErrRemoteUnavailable, response.Error)
	}
	out := dto.RemoteStatus{SyncNeeded: response.Data.SyncNeeded}
	if response.Data.LastSync != nil {
		out.LastSync = *response.Data.LastSync
	}
	if response.Data.LatestTimeEntry != nil {
		out.LatestTimeEntry = *response.Data.LatestTimeEntry
	}
	if response.Data.LatestReport != nil {
		out.LatestReport = *response.Data.LatestReport
	}
	return out, nil
}

func (s *HTTPRemoteStore) do(ctx context.Context, method, path string, body any, dst any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", apperrors.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", apperrors.ErrRemoteUnavailable, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d", apperrors.ErrRemoteUnavailable, method, path, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperrors.ErrRemoteUnavailable, path, err)
	}
	return nil
}
