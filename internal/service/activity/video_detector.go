package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
)

// DetectVideoIncreases runs the per-video comparison for every channel
func (e *Engine) DetectVideoIncreases(ctx context.Context, channels []domain.Channel, now time.Time) []domain.ActivityItem {
	today := e.calendar.DayFloor(now)
	yesterday := e.calendar.DaysAgo(now, 1)

	return fanOut(withAnalytics(channels), e.concurrency, func(ch domain.Channel) []domain.ActivityItem {
		rows, err := e.store.GetVideoMetrics(ctx, ch.AnalyticsID, yesterday, today)
		if err != nil {
			e.sourceFailed("video_detector", ch.AnalyticsID, err)
			return nil
		}

		var items []domain.ActivityItem
		for _, video := range GroupVideoRows(rows, today, yesterday) {
			items = append(items, VideoIncreaseItems(ch, video, today, now)...)
		}
		return items
	})
}

// VideoDay is one video's summed totals for today and yesterday
type VideoDay struct {
	VideoID string
	DayPair
}

// GroupVideoRows sums rows per video and day. Only videos with at least one
// row today are returned, ordered by video id.
func GroupVideoRows(rows []domain.DailyVideoMetric, today, yesterday string) []VideoDay {
	byVideo := make(map[string]*VideoDay)
	presentToday := make(map[string]bool)

	for _, row := range rows {
		if row.Date != today && row.Date != yesterday {
			continue
		}
		v, ok := byVideo[row.VideoID]
		if !ok {
			v = &VideoDay{VideoID: row.VideoID}
			byVideo[row.VideoID] = v
		}
		if row.Date == today {
			v.Today.AddVideo(row)
			presentToday[row.VideoID] = true
		} else {
			v.Yesterday.AddVideo(row)
		}
	}

	videos := make([]VideoDay, 0, len(presentToday))
	for id := range presentToday {
		videos = append(videos, *byVideo[id])
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].VideoID < videos[j].VideoID
	})
	return videos
}

// VideoIncreaseItems emits surge, revenue boost and high-performing events
// for one video. High-performing is independent of the surge rule.
func VideoIncreaseItems(ch domain.Channel, video VideoDay, today string, now time.Time) []domain.ActivityItem {
	var items []domain.ActivityItem
	label := channelLabel(ch.Name)
	th := constants.VideoThresholds

	viewsDelta := video.Today.Views - video.Yesterday.Views
	if countIncrease(viewsDelta, video.Yesterday.Views, th.MinViewsDelta, th.ViewsPercent) {
		pct := countPercent(viewsDelta, video.Yesterday.Views)
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("video_views_surge_%s_%s", video.VideoID, today),
			Type:        domain.ActivityView,
			Title:       "Video Views Surge",
			Description: fmt.Sprintf("A video on %s is up %d%% from yesterday (+%s views)", label, pct, formatCount(viewsDelta)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, float64(viewsDelta)),
		})
	}

	revenueDelta := video.Today.Revenue.Sub(video.Yesterday.Revenue)
	if amountIncrease(revenueDelta, video.Yesterday.Revenue, videoMinRevenue, th.RevenuePercent) {
		pct := amountPercent(revenueDelta, video.Yesterday.Revenue)
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("video_revenue_boost_%s_%s", video.VideoID, today),
			Type:        domain.ActivityRevenue,
			Title:       "Video Revenue Boost",
			Description: fmt.Sprintf("A video on %s earned %d%% more than yesterday (+%s)", label, pct, formatMoney(revenueDelta)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, revenueDelta.InexactFloat64()),
		})
	}

	if video.Today.Views > th.HighPerformingMinViews && viewsDelta > 0 {
		items = append(items, domain.ActivityItem{
			ID:          fmt.Sprintf("high_performing_video_%s_%s", video.VideoID, today),
			Type:        domain.ActivityMilestone,
			Title:       "High-Performing Video",
			Description: fmt.Sprintf("A video on %s reached %s views today", label, formatCount(video.Today.Views)),
			Timestamp:   now,
			Metadata:    increaseMetadata(ch, float64(video.Today.Views)),
		})
	}

	return items
}
