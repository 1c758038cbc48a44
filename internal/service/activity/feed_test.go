package activity

import (
	"testing"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func item(id string, typ domain.ActivityType) domain.ActivityItem {
	return domain.ActivityItem{ID: id, Type: typ, Timestamp: testNow}
}

func TestDecideFeed(t *testing.T) {
	approvals := []domain.ActivityItem{item("channel_approval_r1", domain.ActivityChannelApproval)}
	channelInc := []domain.ActivityItem{item("views_increase_cid1_2024-05-15", domain.ActivityView)}
	videoInc := []domain.ActivityItem{item("video_views_surge_v1_2024-05-15", domain.ActivityView)}
	monthly := MonthlyTotals{Views: 1200, Revenue: decimal.RequireFromString("12.5"), Rows: 3}

	tests := []struct {
		name     string
		in       FeedInputs
		wantKind domain.FeedKind
		wantIDs  []string
	}{
		{
			name:     "no channels wins over approvals",
			in:       FeedInputs{LinkedChannels: 0, Approvals: approvals, ChannelIncreases: channelInc},
			wantKind: domain.FeedNoChannels,
			wantIDs:  []string{"no_channels_connected", "get_started"},
		},
		{
			name:     "monthly only",
			in:       FeedInputs{LinkedChannels: 1, Monthly: monthly},
			wantKind: domain.FeedFull,
			wantIDs:  []string{"monthly_views_2024-05", "monthly_revenue_2024-05"},
		},
		{
			name: "full keeps approvals then increases",
			in: FeedInputs{
				LinkedChannels:   2,
				Monthly:          monthly,
				Approvals:        approvals,
				ChannelIncreases: channelInc,
				VideoIncreases:   videoInc,
			},
			wantKind: domain.FeedFull,
			wantIDs: []string{
				"monthly_views_2024-05",
				"monthly_revenue_2024-05",
				"channel_approval_r1",
				"views_increase_cid1_2024-05-15",
				"video_views_surge_v1_2024-05-15",
			},
		},
		{
			name:     "increases replace approvals",
			in:       FeedInputs{LinkedChannels: 1, Approvals: approvals, ChannelIncreases: channelInc, VideoIncreases: videoInc},
			wantKind: domain.FeedIncreases,
			wantIDs:  []string{"views_increase_cid1_2024-05-15", "video_views_surge_v1_2024-05-15"},
		},
		{
			name:     "approvals only",
			in:       FeedInputs{LinkedChannels: 1, Approvals: approvals},
			wantKind: domain.FeedApprovalsOnly,
			wantIDs:  []string{"channel_approval_r1"},
		},
		{
			name:     "nothing to show",
			in:       FeedInputs{LinkedChannels: 1},
			wantKind: domain.FeedEmpty,
			wantIDs:  []string{"no_recent_activity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Now = testNow
			tt.in.Month = "2024-05"

			result := DecideFeed(tt.in)
			if result.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s", tt.wantKind, result.Kind)
			}
			if got := itemIDs(result.Items()); !equalStrings(got, tt.wantIDs) {
				t.Fatalf("expected %v, got %v", tt.wantIDs, got)
			}
		})
	}
}

func TestMonthlySummariesCarryTotals(t *testing.T) {
	result := DecideFeed(FeedInputs{
		Now:            testNow,
		Month:          "2024-05",
		LinkedChannels: 1,
		Monthly:        MonthlyTotals{Views: 1234567, Revenue: decimal.RequireFromString("42.1"), Rows: 10},
	})
	items := result.Items()

	if items[0].Description != "Your channels have 1,234,567 views so far this month" {
		t.Fatalf("unexpected views description %q", items[0].Description)
	}
	if items[1].Description != "Your channels earned $42.10 so far this month" {
		t.Fatalf("unexpected revenue description %q", items[1].Description)
	}
	if *items[1].Metadata.Amount != 42.1 {
		t.Fatalf("expected revenue amount 42.1, got %v", *items[1].Metadata.Amount)
	}
	if items[0].Metadata.Trend != domain.TrendUp || items[1].Metadata.Trend != domain.TrendUp {
		t.Fatal("expected upward trends for positive totals")
	}
}

func TestFeedItemsReturnsCopy(t *testing.T) {
	result := DecideFeed(FeedInputs{Now: testNow, LinkedChannels: 1})
	items := result.Items()
	items[0].ID = "mutated"

	if result.Items()[0].ID != "no_recent_activity" {
		t.Fatal("mutating the returned slice must not change the feed")
	}
}

func TestBuildApprovalActivities(t *testing.T) {
	older := testNow.Add(-48 * time.Hour)
	newer := testNow.Add(-2 * time.Hour)
	records := []*domain.ChannelRecord{
		{ID: "r1", ChannelName: "First", Status: domain.ChannelStatusApproved, CreatedAt: older},
		{ID: "r2", ChannelName: "Pending", Status: domain.ChannelStatusPending, CreatedAt: newer},
		{ID: "r3", ChannelName: "Second", Link: "https://example.com/second", Status: domain.ChannelStatusApproved, CreatedAt: older, UpdatedAt: &newer},
		nil,
	}

	items := BuildApprovalActivities(records)

	want := []string{"channel_approval_r3", "channel_approval_r1"}
	if got := itemIDs(items); !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !items[0].Timestamp.Equal(newer) {
		t.Fatalf("expected updated_at timestamp, got %v", items[0].Timestamp)
	}
	if !items[1].Timestamp.Equal(older) {
		t.Fatalf("expected created_at fallback, got %v", items[1].Timestamp)
	}
	if items[0].Type != domain.ActivityChannelApproval || items[0].Metadata.Trend != domain.TrendUp {
		t.Fatalf("unexpected approval item %+v", items[0])
	}
	if items[0].Metadata.ChannelLink != "https://example.com/second" {
		t.Fatalf("expected channel link in metadata, got %q", items[0].Metadata.ChannelLink)
	}
}
