package domain

import "time"

type ActivityType string

const (
	ActivityView            ActivityType = "view"
	ActivitySubscriber      ActivityType = "subscriber"
	ActivityRevenue         ActivityType = "revenue"
	ActivityMilestone       ActivityType = "milestone"
	ActivityChannelApproval ActivityType = "channel_approval"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

type ActivityMetadata struct {
	Amount      *float64 `json:"amount,omitempty"`
	Trend       Trend    `json:"trend"`
	ChannelName string   `json:"channelName,omitempty"`
	ChannelLink string   `json:"channelLink,omitempty"`
}

// ActivityItem is one entry of the recent activity feed. The ID is derived
// from the event kind, subject and day so recomputation yields the same ID.
type ActivityItem struct {
	ID          string           `json:"id"`
	Type        ActivityType     `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Timestamp   time.Time        `json:"timestamp"`
	Metadata    ActivityMetadata `json:"metadata"`
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
