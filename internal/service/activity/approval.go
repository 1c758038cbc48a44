package activity

import (
	"fmt"
	"sort"

	"github.com/kapu/creator-activity-engine/internal/domain"
)

// BuildApprovalActivities emits one channel_approval item per approved
// channel row, most recently updated first.
func BuildApprovalActivities(records []*domain.ChannelRecord) []domain.ActivityItem {
	approved := make([]*domain.ChannelRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil && rec.Status == domain.ChannelStatusApproved {
			approved = append(approved, rec)
		}
	}

	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].LastChanged().After(approved[j].LastChanged())
	})

	items := make([]domain.ActivityItem, 0, len(approved))
	for _, rec := range approved {
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("channel_approval_%s", rec.ID),
			Type:        domain.ActivityChannelApproval,
			Title:       "Channel Approved",
			Description: fmt.Sprintf("%s was approved and linked to your account", channelLabel(rec.ChannelName)),
			Timestamp:   rec.LastChanged(),
			Metadata: domain.ActivityMetadata{
				Trend:       domain.TrendUp,
				ChannelName: rec.ChannelName,
				ChannelLink: rec.Link,
			},
		})
	}
	return items
}
