package activity

import (
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/sourcegraph/conc/pool"
)

// fanOut runs task once per channel with bounded concurrency and returns the
// items in input order. Tasks report their own failures and return nil, so
// one channel can never cancel or drop the results of another.
func fanOut(channels []domain.Channel, concurrency int, task func(ch domain.Channel) []domain.ActivityItem) []domain.ActivityItem {
	if len(channels) == 0 {
		return []domain.ActivityItem{}
	}

	results := make([][]domain.ActivityItem, len(channels))
	p := pool.New().WithMaxGoroutines(concurrency)

	for idx, ch := range channels {
		idx, ch := idx, ch
		p.Go(func() {
			results[idx] = task(ch)
		})
	}
	p.Wait()

	items := make([]domain.ActivityItem, 0)
	for _, r := range results {
		items = append(items, r...)
	}
	return items
}
