package domain

import "github.com/shopspring/decimal"

// DailyChannelMetric is one row of daily_channel_analytics.
// Date is a calendar day formatted as YYYY-MM-DD.
type DailyChannelMetric struct {
	AnalyticsID  string          `json:"cid"`
	Date         string          `json:"date"`
	Views        int64           `json:"total_views"`
	Revenue      decimal.Decimal `json:"total_revenue"`
	PremiumViews int64           `json:"total_premium_views"`
}

// DailyVideoMetric is one row of daily_video_analytics. A video can have
// several rows for the same day (one per traffic source).
type DailyVideoMetric struct {
	AnalyticsID      string          `json:"cid"`
	VideoID          string          `json:"vid"`
	Date             string          `json:"date"`
	Views            int64           `json:"views"`
	Revenue          decimal.Decimal `json:"estimated_partner_revenue"`
	WatchTimeMinutes float64         `json:"watch_time_minutes"`
}

// MetricTotals is a per-day sum of channel or video metrics
type MetricTotals struct {
	Views            int64
	Revenue          decimal.Decimal
	PremiumViews     int64
	WatchTimeMinutes float64
}

// AddChannel accumulates a channel metric row
func (t *MetricTotals) AddChannel(m DailyChannelMetric) {
	t.Views += m.Views
	t.Revenue = t.Revenue.Add(m.Revenue)
	t.PremiumViews += m.PremiumViews
}

// AddVideo accumulates a video metric row
func (t *MetricTotals) AddVideo(m DailyVideoMetric) {
	t.Views += m.Views
	t.Revenue = t.Revenue.Add(m.Revenue)
	t.WatchTimeMinutes += m.WatchTimeMinutes
}

// RealtimeWindow holds rolling view sums. Every field is always present.
type RealtimeWindow struct {
	Current   int64 `json:"current"`
	Last24h   int64 `json:"last24h"`
	Last48h   int64 `json:"last48h"`
	Last7Days int64 `json:"last7Days"`
}
