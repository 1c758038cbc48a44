package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheServiceFromClient(client, zap.NewNop()), mr
}

func TestSnapshotPublishReadDelete(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	snapshot := &domain.Snapshot{
		AccountID:      "acct-1",
		MonthlyViews:   1200,
		MonthlyRevenue: decimal.RequireFromString("12.34"),
		FeedKind:       domain.FeedFull,
		RealtimeViews:  domain.RealtimeWindow{Current: 1, Last24h: 2, Last48h: 3, Last7Days: 4},
		RecentActivity: []domain.ActivityItem{{ID: "monthly_views_2024-05", Type: domain.ActivityView}},
		GeneratedAt:    time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
	}

	if err := c.PublishSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("PublishSnapshot: %v", err)
	}
	if ttl := mr.TTL(constants.CacheKeys.SnapshotPrefix + "acct-1"); ttl != constants.CacheTTL.Snapshot {
		t.Fatalf("expected ttl %v, got %v", constants.CacheTTL.Snapshot, ttl)
	}

	got, err := c.GetSnapshot(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got == nil || got.MonthlyViews != 1200 || !got.MonthlyRevenue.Equal(snapshot.MonthlyRevenue) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.RealtimeViews != snapshot.RealtimeViews || got.RecentActivity[0].ID != "monthly_views_2024-05" {
		t.Fatalf("snapshot did not round trip: %+v", got)
	}

	if err := c.DeleteSnapshot(ctx, "acct-1"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if got, err := c.GetSnapshot(ctx, "acct-1"); err != nil || got != nil {
		t.Fatalf("expected missing snapshot, got %+v, %v", got, err)
	}
}

func TestPublishSnapshotRequiresAccount(t *testing.T) {
	c, _ := setupTestCache(t)
	if err := c.PublishSnapshot(context.Background(), &domain.Snapshot{}); err == nil {
		t.Fatal("expected error for snapshot without account id")
	}
}

func TestAnalyticsIDLookupHash(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	found, missing, err := c.GetAnalyticsIDs(ctx, []string{"Main"})
	if err != nil || len(found) != 0 || len(missing) != 1 {
		t.Fatalf("expected cold cache miss, got %v %v %v", found, missing, err)
	}

	if err := c.StoreAnalyticsIDs(ctx, map[string]string{"Main": "cid1", "Second": "cid2"}); err != nil {
		t.Fatalf("StoreAnalyticsIDs: %v", err)
	}
	if ttl := mr.TTL(constants.CacheKeys.AnalyticsIDs); ttl != constants.CacheTTL.AnalyticsIDs {
		t.Fatalf("expected ttl %v, got %v", constants.CacheTTL.AnalyticsIDs, ttl)
	}

	found, missing, err = c.GetAnalyticsIDs(ctx, []string{"Main", "Unknown", "Second"})
	if err != nil {
		t.Fatalf("GetAnalyticsIDs: %v", err)
	}
	if found["Main"] != "cid1" || found["Second"] != "cid2" {
		t.Fatalf("unexpected found %v", found)
	}
	if len(missing) != 1 || missing[0] != "Unknown" {
		t.Fatalf("unexpected missing %v", missing)
	}
}

func TestGetAnalyticsIDsReportsCacheError(t *testing.T) {
	c, mr := setupTestCache(t)
	mr.Close()

	_, missing, err := c.GetAnalyticsIDs(context.Background(), []string{"Main"})
	if err == nil {
		t.Fatal("expected error with redis down")
	}
	if len(missing) != 1 {
		t.Fatalf("all names must be reported missing on error, got %v", missing)
	}
}
