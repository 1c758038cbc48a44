package activity

import (
	"fmt"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
)

// FeedInputs are the detector and builder outputs of one refresh cycle
type FeedInputs struct {
	Now              time.Time
	Month            string
	LinkedChannels   int
	Monthly          MonthlyTotals
	Approvals        []domain.ActivityItem
	ChannelIncreases []domain.ActivityItem
	VideoIncreases   []domain.ActivityItem
}

// FeedResult is the outcome of the feed policy: which branch applied and the
// items it renders.
type FeedResult struct {
	Kind  domain.FeedKind
	items []domain.ActivityItem
}

// Items returns a copy of the rendered feed
func (r FeedResult) Items() []domain.ActivityItem {
	return append([]domain.ActivityItem{}, r.items...)
}

// DecideFeed applies the feed precedence:
//
//	no linked channels            → NoChannels placeholders
//	monthly totals available      → Full: summaries, approvals, channel and video increases
//	any increase events           → Increases (replaces approvals and placeholder)
//	approvals only                → ApprovalsOnly
//	otherwise                     → Empty placeholder
func DecideFeed(in FeedInputs) FeedResult {
	increases := len(in.ChannelIncreases) + len(in.VideoIncreases)

	switch {
	case in.LinkedChannels == 0:
		return FeedResult{Kind: domain.FeedNoChannels, items: noChannelsPlaceholders(in.Now)}

	case in.Monthly.Available():
		items := make([]domain.ActivityItem, 0, 2+len(in.Approvals)+increases)
		items = append(items, monthlySummaries(in)...)
		items = append(items, in.Approvals...)
		items = append(items, in.ChannelIncreases...)
		items = append(items, in.VideoIncreases...)
		return FeedResult{Kind: domain.FeedFull, items: items}

	case increases > 0:
		items := make([]domain.ActivityItem, 0, increases)
		items = append(items, in.ChannelIncreases...)
		items = append(items, in.VideoIncreases...)
		return FeedResult{Kind: domain.FeedIncreases, items: items}

	case len(in.Approvals) > 0:
		return FeedResult{Kind: domain.FeedApprovalsOnly, items: append([]domain.ActivityItem{}, in.Approvals...)}

	default:
		return FeedResult{Kind: domain.FeedEmpty, items: []domain.ActivityItem{noRecentActivity(in.Now)}}
	}
}

func monthlySummaries(in FeedInputs) []domain.ActivityItem {
	viewsTrend := domain.TrendNeutral
	if in.Monthly.Views > 0 {
		viewsTrend = domain.TrendUp
	}
	revenueTrend := domain.TrendNeutral
	if in.Monthly.Revenue.IsPositive() {
		revenueTrend = domain.TrendUp
	}

	return []domain.ActivityItem{
		{
			ID:          fmt.Sprintf("monthly_views_%s", in.Month),
			Type:        domain.ActivityView,
			Title:       "Monthly Views",
			Description: fmt.Sprintf("Your channels have %s views so far this month", formatCount(in.Monthly.Views)),
			Timestamp:   in.Now,
			Metadata: domain.ActivityMetadata{
				Amount: domain.Float64Ptr(float64(in.Monthly.Views)),
				Trend:  viewsTrend,
			},
		},
		{
			ID:          fmt.Sprintf("monthly_revenue_%s", in.Month),
			Type:        domain.ActivityRevenue,
			Title:       "Monthly Revenue",
			Description: fmt.Sprintf("Your channels earned %s so far this month", formatMoney(in.Monthly.Revenue)),
			Timestamp:   in.Now,
			Metadata: domain.ActivityMetadata{
				Amount: domain.Float64Ptr(in.Monthly.Revenue.InexactFloat64()),
				Trend:  revenueTrend,
			},
		},
	}
}

func noChannelsPlaceholders(now time.Time) []domain.ActivityItem {
	return []domain.ActivityItem{
		{
			ID:          "no_channels_connected",
			Type:        domain.ActivityMilestone,
			Title:       "No Channels Connected",
			Description: "Connect a channel to start tracking views and revenue",
			Timestamp:   now,
			Metadata:    domain.ActivityMetadata{Trend: domain.TrendNeutral},
		},
		{
			ID:          "get_started",
			Type:        domain.ActivityMilestone,
			Title:       "Get Started",
			Description: "Submit your channel for review to unlock analytics",
			Timestamp:   now,
			Metadata:    domain.ActivityMetadata{Trend: domain.TrendNeutral},
		},
	}
}

func noRecentActivity(now time.Time) domain.ActivityItem {
	return domain.ActivityItem{
		ID:          "no_recent_activity",
		Type:        domain.ActivityView,
		Title:       "No Recent Activity",
		Description: "New activity on your channels will show up here",
		Timestamp:   now,
		Metadata:    domain.ActivityMetadata{Trend: domain.TrendNeutral},
	}
}
