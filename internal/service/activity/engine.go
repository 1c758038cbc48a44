package activity

import (
	"context"
	"time"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/internal/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the read-only view of the dashboard database the engine needs
type Store interface {
	GetPrimaryRequest(ctx context.Context, accountID string) (*domain.PrimaryRequest, error)
	ListApprovedChannels(ctx context.Context, accountID, requestID string) ([]*domain.ChannelRecord, error)
	LookupAnalyticsIDs(ctx context.Context, names []string) (map[string]string, error)
	GetChannelMetrics(ctx context.Context, analyticsIDs []string, from, to string) ([]domain.DailyChannelMetric, error)
	GetVideoMetrics(ctx context.Context, analyticsID, from, to string) ([]domain.DailyVideoMetric, error)
}

// Recorder receives engine and scheduler telemetry
type Recorder interface {
	SourceFailure(component string)
	FeedBuilt(kind domain.FeedKind, items []domain.ActivityItem)
	RefreshCompleted(kind, status string, duration time.Duration)
	SetTrackedAccounts(n int)
}

type nopRecorder struct{}

func (nopRecorder) SourceFailure(string) {}
func (nopRecorder) FeedBuilt(domain.FeedKind, []domain.ActivityItem) {}
func (nopRecorder) RefreshCompleted(string, string, time.Duration) {}
func (nopRecorder) SetTrackedAccounts(int) {}

type EngineConfig struct {
	Calendar      util.Calendar
	Concurrency   int
	ActiveSection string
	Recorder      Recorder
}

// Engine computes dashboard snapshots. Every method degrades to an empty or
// placeholder result on read failures; nothing is returned as an error.
type Engine struct {
	store         Store
	calendar      util.Calendar
	concurrency   int
	activeSection string
	recorder      Recorder
	logger        *zap.Logger
}

func NewEngine(store Store, cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = constants.RefreshConfig.Concurrency
	}
	if cfg.ActiveSection == "" {
		cfg.ActiveSection = constants.DefaultActiveSection
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		store:         store,
		calendar:      cfg.Calendar,
		concurrency:   cfg.Concurrency,
		activeSection: cfg.ActiveSection,
		recorder:      cfg.Recorder,
		logger:        logger,
	}
}

// ComputeSnapshot runs the full pipeline for one account at instant now
func (e *Engine) ComputeSnapshot(ctx context.Context, now time.Time, accountID string) *domain.Snapshot {
	snapshot, _ := e.computeSnapshot(ctx, now, accountID)
	return snapshot
}

// computeSnapshot also reports ctx's error when the run was abandoned; the
// snapshot is then built from partial reads and must not replace a good one.
func (e *Engine) computeSnapshot(ctx context.Context, now time.Time, accountID string) (*domain.Snapshot, error) {
	resolution := e.ResolveChannels(ctx, accountID)
	analyticsIDs := resolution.AnalyticsIDs()

	var (
		window           domain.RealtimeWindow
		monthly          MonthlyTotals
		channelIncreases []domain.ActivityItem
		videoIncreases   []domain.ActivityItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		window = e.AggregateWindows(gctx, analyticsIDs, now)
		return gctx.Err()
	})
	g.Go(func() error {
		monthly = e.AggregateMonthly(gctx, analyticsIDs, now)
		return gctx.Err()
	})
	g.Go(func() error {
		channelIncreases = e.DetectChannelIncreases(gctx, resolution.Channels, now)
		return gctx.Err()
	})
	g.Go(func() error {
		videoIncreases = e.DetectVideoIncreases(gctx, resolution.Channels, now)
		return gctx.Err()
	})
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	feed := DecideFeed(FeedInputs{
		Now:              now,
		Month:            e.calendar.MonthKey(now),
		LinkedChannels:   len(resolution.Channels),
		Monthly:          monthly,
		Approvals:        BuildApprovalActivities(resolution.Approved),
		ChannelIncreases: channelIncreases,
		VideoIncreases:   videoIncreases,
	})
	items := feed.Items()
	if err != nil {
		e.logger.Debug("Snapshot computation abandoned",
			zap.String("account", accountID),
			zap.Error(err))
	} else {
		e.recorder.FeedBuilt(feed.Kind, items)
		e.logger.Debug("Snapshot computed",
			zap.String("account", accountID),
			zap.Int("channels", len(resolution.Channels)),
			zap.Int("analytics_ids", len(analyticsIDs)),
			zap.String("feed", string(feed.Kind)),
			zap.Int("items", len(items)))
	}

	return &domain.Snapshot{
		AccountID:      accountID,
		ActiveSection:  e.activeSection,
		MonthlyViews:   monthly.Views,
		MonthlyRevenue: monthly.Revenue,
		SplitPercent:   resolution.SplitPercent,
		LinkedChannels: len(resolution.Channels),
		Channels:       resolution.Channels,
		RecentActivity: items,
		RealtimeViews:  window,
		FeedKind:       feed.Kind,
		GeneratedAt:    now,
		RealtimeAt:     now,
	}, err
}

// RefreshRealtime recomputes only the realtime window of prev
func (e *Engine) RefreshRealtime(ctx context.Context, now time.Time, prev *domain.Snapshot) *domain.Snapshot {
	if prev == nil {
		return nil
	}
	window := e.AggregateWindows(ctx, prev.AnalyticsIDs(), now)
	return prev.WithRealtime(window, now)
}
