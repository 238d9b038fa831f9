package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	reconcileadapter "webtally/internal/modules/reconcile/adapter/out"
	"webtally/internal/modules/reconcile/domain"
	apperrors "webtally/internal/platform/errors"
)

func TestHTTPRemoteStorePushDecodesMergedView(t *testing.T) {
	t.Parallel()
	stamp := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sync" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"timestamp": stamp,
			"data": map[string]any{
				"timeData": map[string]map[string]int64{"2024-03-01": {"github.com": 200}},
				"preferences": map[string]any{
					"blockedSites":     []string{"reddit.com"},
					"productiveSites":  []string{"github.com"},
					"distractingSites": []string{},
					"updatedAt":        map[string]time.Time{"blocked": stamp},
				},
			},
		})
	}))
	defer server.Close()

	store := reconcileadapter.NewHTTPRemoteStore(server.URL+"/", time.Second)
	response, err := store.Push(context.Background(), domain.Envelope{
		Owner:    "client-1",
		TimeData: domain.TimeData{"2024-03-01": {"github.com": 120}},
	})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if received["userId"] != "client-1" {
		t.Fatalf("owner not sent: %+v", received)
	}
	if response.TimeData["2024-03-01"]["github.com"] != 200 || !response.Timestamp.Equal(stamp) {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.Preferences == nil || !response.Preferences.Blocked.UpdatedAt.Equal(stamp) || response.Preferences.Blocked.Sites[0] != "reddit.com" {
		t.Fatalf("unexpected preferences: %+v", response.Preferences)
	}
}

func TestHTTPRemoteStoreAcceptsBareAcknowledgement(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Daily report saved"}`))
	}))
	defer server.Close()

	store := reconcileadapter.NewHTTPRemoteStore(server.URL, time.Second)
	if err := store.PushReport(context.Background(), "client-1", domain.Report{Date: "2024-03-01", TotalTime: 900}); err != nil {
		t.Fatalf("push report: %v", err)
	}
	response, err := store.Push(context.Background(), domain.Envelope{Owner: "client-1"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if response.Preferences != nil || len(response.TimeData) != 0 {
		t.Fatalf("expected empty merged view, got %+v", response)
	}
}

func TestHTTPRemoteStoreStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync/status/client-1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"lastSync":"2024-03-01T10:00:00Z","latestTimeEntry":null,"latestReport":"2024-03-01T00:00:00Z","syncNeeded":false}}`))
	}))
	defer server.Close()

	status, err := reconcileadapter.NewHTTPRemoteStore(server.URL, time.Second).Status(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.SyncNeeded || status.LastSync.IsZero() || !status.LatestTimeEntry.IsZero() || status.LatestReport.IsZero() {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestHTTPRemoteStoreFailuresAreRemoteUnavailable(t *testing.T) {
	t.Parallel()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"Sync failed"}`, http.StatusInternalServerError)
	}))
	defer failing.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer slow.Close()

	for name, store := range map[string]*reconcileadapter.HTTPRemoteStore{
		"status-500": reconcileadapter.NewHTTPRemoteStore(failing.URL, time.Second),
		"timeout":    reconcileadapter.NewHTTPRemoteStore(slow.URL, 20*time.Millisecond),
		"refused":    reconcileadapter.NewHTTPRemoteStore("http://127.0.0.1:1", time.Second),
	} {
		if _, err := store.Push(context.Background(), domain.Envelope{Owner: "x"}); !errors.Is(err, apperrors.ErrRemoteUnavailable) {
			t.Fatalf("%s: expected remote unavailable, got %v", name, err)
		}
	}
}
