package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
)

// DayPair holds one subject's totals for today and yesterday
type DayPair struct {
	Today     domain.MetricTotals
	Yesterday domain.MetricTotals
}

// DetectChannelIncreases compares each channel's totals for today against
// yesterday. Channels without an analytics id are skipped; a failed read
// drops only that channel.
func (e *Engine) DetectChannelIncreases(ctx context.Context, channels []domain.Channel, now time.Time) []domain.ActivityItem {
	today := e.calendar.DayFloor(now)
	yesterday := e.calendar.DaysAgo(now, 1)

	return fanOut(withAnalytics(channels), e.concurrency, func(ch domain.Channel) []domain.ActivityItem {
		rows, err := e.store.GetChannelMetrics(ctx, []string{ch.AnalyticsID}, yesterday, today)
		if err != nil {
			e.sourceFailed("channel_detector", ch.AnalyticsID, err)
			return nil
		}

		pair := partitionChannelRows(rows, today, yesterday)
		return ChannelIncreaseItems(ch, pair, today, now)
	})
}

func partitionChannelRows(rows []domain.DailyChannelMetric, today, yesterday string) DayPair {
	var pair DayPair
	for _, row := range rows {
		switch row.Date {
		case today:
			pair.Today.AddChannel(row)
		case yesterday:
			pair.Yesterday.AddChannel(row)
		}
	}
	return pair
}

// ChannelIncreaseItems classifies one channel's day-over-day change into
// views, revenue and premium-views increase events, in that order.
func ChannelIncreaseItems(ch domain.Channel, pair DayPair, today string, now time.Time) []domain.ActivityItem {
	var items []domain.ActivityItem
	label := channelLabel(ch.Name)
	th := constants.ChannelThresholds

	viewsDelta := pair.Today.Views - pair.Yesterday.Views
	if countIncrease(viewsDelta, pair.Yesterday.Views, th.MinViewsDelta, th.ViewsPercent) {
		pct := countPercent(viewsDelta, pair.Yesterday.Views)
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("views_increase_%s_%s", ch.AnalyticsID, today),
			Type:        domain.ActivityView,
			Title:       "Views Increased",
			Description: fmt.Sprintf("%s views are up %d%% from yesterday (+%s views)", label, pct, formatCount(viewsDelta)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, float64(viewsDelta)),
		})
	}

	revenueDelta := pair.Today.Revenue.Sub(pair.Yesterday.Revenue)
	if amountIncrease(revenueDelta, pair.Yesterday.Revenue, channelMinRevenue, th.RevenuePercent) {
		pct := amountPercent(revenueDelta, pair.Yesterday.Revenue)
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("revenue_increase_%s_%s", ch.AnalyticsID, today),
			Type:        domain.ActivityRevenue,
			Title:       "Revenue Increased",
			Description: fmt.Sprintf("%s revenue is up %d%% from yesterday (+%s)", label, pct, formatMoney(revenueDelta)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, revenueDelta.InexactFloat64()),
		})
	}

	premiumDelta := pair.Today.PremiumViews - pair.Yesterday.PremiumViews
	if countIncrease(premiumDelta, pair.Yesterday.PremiumViews, th.MinPremiumViewsDelta, th.PremiumViewsPercent) {
		pct := countPercent(premiumDelta, pair.Yesterday.PremiumViews)
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("premium_views_increase_%s_%s", ch.AnalyticsID, today),
			Type:        domain.ActivityView,
			Title:       "Premium Views Increased",
			Description: fmt.Sprintf("%s premium views are up %d%% from yesterday (+%s premium views)", label, pct, formatCount(premiumDelta)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, float64(premiumDelta)),
		})
	}

	return items
}

func increaseMetadata(ch domain.Channel, amount float64) domain.ActivityMetadata {
	return domain.ActivityMetadata{
		Amount:      domain.Float64Ptr(amount),
		Trend:       domain.TrendUp,
		ChannelName: ch.Name,
		ChannelLink: ch.Link,
	}
}

func withAnalytics(channels []domain.Channel) []domain.Channel {
	out := make([]domain.Channel, 0, len(channels))
	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if !ch.HasAnalytics() {
			continue
		}
		if _, dup := seen[ch.AnalyticsID]; dup {
			continue
		}
		seen[ch.AnalyticsID] = struct{}{}
		out = append(out, ch)
	}
	return out
}
