package activity

import (
	"context"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/kapu/creator-activity-engine/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WindowBounds are the first calendar day of each rolling window
type WindowBounds struct {
	Today     string
	Last24h   string
	Last48h   string
	Last7Days string
}

// Bounds derives the window edges for now
func (e *Engine) Bounds(now time.Time) WindowBounds {
	return WindowBounds{
		Today:     e.calendar.DayFloor(now),
		Last24h:   e.calendar.HoursAgo(now, 24),
		Last48h:   e.calendar.HoursAgo(now, 48),
		Last7Days: e.calendar.DaysAgo(now, 7),
	}
}

// SumWindows folds channel rows into the four window sums. Rows outside
// [Last7Days, Today] are ignored.
func SumWindows(rows []domain.DailyChannelMetric, b WindowBounds) domain.RealtimeWindow {
	var w domain.RealtimeWindow
	for _, row := range rows {
		if !util.InRange(row.Date, b.Last7Days, b.Today) {
			continue
		}
		if row.Date == b.Today {
			w.Current += row.Views
		}
		if row.Date >= b.Last24h {
			w.Last24h += row.Views
		}
		if row.Date >= b.Last48h {
			w.Last48h += row.Views
		}
		w.Last7Days += row.Views
	}

	w.Current = util.ClampNonNegative(w.Current)
	w.Last24h = util.ClampNonNegative(w.Last24h)
	w.Last48h = util.ClampNonNegative(w.Last48h)
	w.Last7Days = util.ClampNonNegative(w.Last7Days)
	return w
}

// AggregateWindows computes the realtime view window with one ranged read
func (e *Engine) AggregateWindows(ctx context.Context, analyticsIDs []string, now time.Time) domain.RealtimeWindow {
	if len(analyticsIDs) == 0 {
		return domain.RealtimeWindow{}
	}

	b := e.Bounds(now)
	rows, err := e.store.GetChannelMetrics(ctx, analyticsIDs, b.Last7Days, b.Today)
	if err != nil {
		e.sourceFailed("window", "", err)
		return domain.RealtimeWindow{}
	}

	return SumWindows(rows, b)
}

// MonthlyTotals sums channel rows of the current month
type MonthlyTotals struct {
	Views   int64
	Revenue decimal.Decimal
	// Rows counts contributing rows; zero means no monthly data exists
	Rows int
}

func (m MonthlyTotals) Available() bool {
	return m.Rows > 0
}

// AggregateMonthly sums views and revenue from the first of the month to today
func (e *Engine) AggregateMonthly(ctx context.Context, analyticsIDs []string, now time.Time) MonthlyTotals {
	if len(analyticsIDs) == 0 {
		return MonthlyTotals{}
	}

	from := e.calendar.MonthStart(now)
	to := e.calendar.DayFloor(now)
	rows, err := e.store.GetChannelMetrics(ctx, analyticsIDs, from, to)
	if err != nil {
		e.sourceFailed("monthly", "", err)
		return MonthlyTotals{}
	}

	var totals MonthlyTotals
	for _, row := range rows {
		if !util.InRange(row.Date, from, to) {
			continue
		}
		totals.Views += row.Views
		totals.Revenue = totals.Revenue.Add(row.Revenue)
		totals.Rows++
	}
	totals.Views = util.ClampNonNegative(totals.Views)
	return totals
}

func (e *Engine) sourceFailed(component, analyticsID string, cause error) {
	e.recorder.SourceFailure(component)
	e.logger.Warn("Analytics source read failed",
		zap.String("component", component),
		zap.String("analytics_id", analyticsID),
		zap.Error(errors.NewSourceError("read failed", component, analyticsID, cause)))
}
