package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errSourceDown = errors.New("source down")

type fakeStore struct {
	mu sync.Mutex

	request    *domain.PrimaryRequest
	requestErr error
	records    []*domain.ChannelRecord
	recordsErr error
	ids        map[string]string
	idsErr     error

	channelRows []domain.DailyChannelMetric
	videoRows   []domain.DailyVideoMetric
	failChannel map[string]error
	failVideo   map[string]error

	// onChannelMetrics runs before every channel metrics read
	onChannelMetrics func()

	lookupCalls  [][]string
	channelCalls int
}

func (f *fakeStore) GetPrimaryRequest(_ context.Context, _ string) (*domain.PrimaryRequest, error) {
	return f.request, f.requestErr
}

func (f *fakeStore) ListApprovedChannels(_ context.Context, _, _ string) ([]*domain.ChannelRecord, error) {
	return f.records, f.recordsErr
}

func (f *fakeStore) LookupAnalyticsIDs(_ context.Context, names []string) (map[string]string, error) {
	f.mu.Lock()
	f.lookupCalls = append(f.lookupCalls, append([]string(nil), names...))
	f.mu.Unlock()

	if f.idsErr != nil {
		return nil, f.idsErr
	}
	out := make(map[string]string)
	for _, name := range names {
		if id, ok := f.ids[name]; ok {
			out[name] = id
		}
	}
	return out, nil
}

func (f *fakeStore) GetChannelMetrics(_ context.Context, analyticsIDs []string, from, to string) ([]domain.DailyChannelMetric, error) {
	f.mu.Lock()
	f.channelCalls++
	hook := f.onChannelMetrics
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	wanted := make(map[string]bool, len(analyticsIDs))
	for _, id := range analyticsIDs {
		if err := f.failChannel[id]; err != nil {
			return nil, err
		}
		wanted[id] = true
	}

	var rows []domain.DailyChannelMetric
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.channelRows {
		if wanted[row.AnalyticsID] && util.InRange(row.Date, from, to) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeStore) GetVideoMetrics(_ context.Context, analyticsID, from, to string) ([]domain.DailyVideoMetric, error) {
	if err := f.failVideo[analyticsID]; err != nil {
		return nil, err
	}

	var rows []domain.DailyVideoMetric
	for _, row := range f.videoRows {
		if row.AnalyticsID == analyticsID && util.InRange(row.Date, from, to) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	failures map[string]int
	feeds    []domain.FeedKind
	runs     []string
	tracked  int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failures: make(map[string]int)}
}

func (r *fakeRecorder) SourceFailure(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[component]++
}

func (r *fakeRecorder) FeedBuilt(kind domain.FeedKind, _ []domain.ActivityItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = append(r.feeds, kind)
}

func (r *fakeRecorder) RefreshCompleted(kind, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, kind+":"+status)
}

func (r *fakeRecorder) SetTrackedAccounts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked = n
}

func (r *fakeRecorder) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func (r *fakeRecorder) failureCount(component string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[component]
}

// midday on 2024-05-15 UTC
var testNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, store Store, rec Recorder) *Engine {
	t.Helper()
	return NewEngine(store, EngineConfig{
		Calendar:    util.NewCalendar(time.UTC),
		Concurrency: 2,
		Recorder:    rec,
	}, zap.NewNop())
}

func approvedRequest(channelName string) *domain.PrimaryRequest {
	return &domain.PrimaryRequest{
		ID:          "req-1",
		UserID:      "acct-1",
		Status:      domain.ChannelStatusApproved,
		ChannelName: channelName,
		CreatedAt:   testNow.Add(-30 * 24 * time.Hour),
		UpdatedAt:   testNow.Add(-20 * 24 * time.Hour),
	}
}

func channelRow(cid, date string, views int64, revenue string, premium int64) domain.DailyChannelMetric {
	return domain.DailyChannelMetric{
		AnalyticsID:  cid,
		Date:         date,
		Views:        views,
		Revenue:      decimal.RequireFromString(revenue),
		PremiumViews: premium,
	}
}

func videoRow(cid, vid, date string, views int64, revenue string) domain.DailyVideoMetric {
	return domain.DailyVideoMetric{
		AnalyticsID: cid,
		VideoID:     vid,
		Date:        date,
		Views:       views,
		Revenue:     decimal.RequireFromString(revenue),
	}
}

func itemIDs(items []domain.ActivityItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
