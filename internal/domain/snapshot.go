package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedKind names which branch of the feed policy produced the activity list
type FeedKind string

const (
	FeedNoChannels    FeedKind = "no_channels"
	FeedEmpty         FeedKind = "empty"
	FeedApprovalsOnly FeedKind = "approvals_only"
	FeedIncreases     FeedKind = "increases"
	FeedFull          FeedKind = "full"
)

// Snapshot is the output of one refresh cycle. Consumers replace their view
// with a new snapshot wholesale; a published snapshot is never modified.
type Snapshot struct {
	AccountID      string          `json:"accountId"`
	ActiveSection  string          `json:"activeSection"`
	MonthlyViews   int64           `json:"monthlyViews"`
	MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
	SplitPercent   float64         `json:"splitPercent"`
	LinkedChannels int             `json:"linkedChannels"`
	Channels       []Channel       `json:"channels"`
	RecentActivity []ActivityItem  `json:"recentActivity"`
	RealtimeViews  RealtimeWindow  `json:"realtimeViews"`
	FeedKind       FeedKind        `json:"feedKind"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	RealtimeAt     time.Time       `json:"realtimeAt"`
}

// AnalyticsIDs returns the analytics identifiers of the resolved channels
func (s *Snapshot) AnalyticsIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Channels))
	for i := range s.Channels {
		if s.Channels[i].HasAnalytics() {
			ids = append(ids, s.Channels[i].AnalyticsID)
		}
	}
	return ids
}

// WithRealtime returns a copy of the snapshot carrying a new realtime window
func (s *Snapshot) WithRealtime(window RealtimeWindow, at time.Time) *Snapshot {
	next := *s
	next.Channels = append([]Channel(nil), s.Channels...)
	next.RecentActivity = append([]ActivityItem(nil), s.RecentActivity...)
	next.RealtimeViews = window
	next.RealtimeAt = at
	return &next
}
