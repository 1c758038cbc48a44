package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRefresher struct {
	latest    map[string]*domain.Snapshot
	refreshed []string
	untracked []string
	abandon   bool
}

func (f *fakeRefresher) Latest(accountID string) *domain.Snapshot {
	return f.latest[accountID]
}

func (f *fakeRefresher) RefreshNow(_ context.Context, accountID string) *domain.Snapshot {
	f.refreshed = append(f.refreshed, accountID)
	if f.abandon {
		return nil
	}
	return &domain.Snapshot{AccountID: accountID, FeedKind: domain.FeedEmpty}
}

func (f *fakeRefresher) Untrack(accountID string) {
	f.untracked = append(f.untracked, accountID)
}

type fakeSnapshots struct {
	cached  map[string]*domain.Snapshot
	deleted []string
}

func (f *fakeSnapshots) GetSnapshot(_ context.Context, accountID string) (*domain.Snapshot, error) {
	return f.cached[accountID], nil
}

func (f *fakeSnapshots) DeleteSnapshot(_ context.Context, accountID string) error {
	f.deleted = append(f.deleted, accountID)
	return nil
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGetSnapshotPrefersSchedulerThenCache(t *testing.T) {
	refresher := &fakeRefresher{latest: map[string]*domain.Snapshot{
		"live": {AccountID: "live", FeedKind: domain.FeedFull},
	}}
	snapshots := &fakeSnapshots{cached: map[string]*domain.Snapshot{
		"cached": {AccountID: "cached", FeedKind: domain.FeedNoChannels},
	}}
	s := New(Config{}, Dependencies{Refresher: refresher, Snapshots: snapshots}, zap.NewNop())

	for id, want := range map[string]domain.FeedKind{"live": domain.FeedFull, "cached": domain.FeedNoChannels} {
		rec := serve(s, http.MethodGet, "/api/accounts/"+id+"/snapshot")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", id, rec.Code)
		}
		var body domain.Snapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid json: %v", id, err)
		}
		if body.AccountID != id || body.FeedKind != want {
			t.Fatalf("%s: unexpected snapshot %+v", id, body)
		}
	}

	if rec := serve(s, http.MethodGet, "/api/accounts/missing/snapshot"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRefreshAndUntrack(t *testing.T) {
	refresher := &fakeRefresher{}
	snapshots := &fakeSnapshots{}
	s := New(Config{}, Dependencies{Refresher: refresher, Snapshots: snapshots}, zap.NewNop())

	rec := serve(s, http.MethodPost, "/api/accounts/acct-1/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(refresher.refreshed) != 1 || refresher.refreshed[0] != "acct-1" {
		t.Fatalf("expected refresh of acct-1, got %v", refresher.refreshed)
	}

	rec = serve(s, http.MethodDelete, "/api/accounts/acct-1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(refresher.untracked) != 1 || len(snapshots.deleted) != 1 {
		t.Fatalf("expected untrack and eviction, got %v / %v", refresher.untracked, snapshots.deleted)
	}
}

func TestRefreshWithoutResult(t *testing.T) {
	s := New(Config{}, Dependencies{Refresher: &fakeRefresher{abandon: true}}, zap.NewNop())

	rec := serve(s, http.MethodPost, "/api/accounts/acct-1/refresh")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no snapshot is available, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	healthy := New(Config{}, Dependencies{Checks: map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	}}, nil)
	if rec := serve(healthy, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	unhealthy := New(Config{}, Dependencies{Checks: map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	}}, nil)
	rec := serve(unhealthy, http.MethodGet, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Checks["redis"] != "dial tcp: refused" || body.Checks["postgres"] != "ok" {
		t.Fatalf("unexpected checks %v", body.Checks)
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("engine_up 1\n"))
	})
	s := New(Config{}, Dependencies{Metrics: metrics}, nil)

	rec := serve(s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || rec.Body.String() != "engine_up 1\n" {
		t.Fatalf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}
}
