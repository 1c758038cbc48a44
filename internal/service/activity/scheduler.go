package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// SnapshotPublisher hands finished snapshots to the presentation boundary
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
}

type SchedulerConfig struct {
	FullInterval     time.Duration
	RealtimeInterval time.Duration
	CycleTimeout     time.Duration
	Concurrency      int
	Recorder         Recorder
}

// Scheduler re-runs the pipeline for tracked accounts on two timers: a full
// refresh and a realtime-window-only refresh. It holds the latest snapshot
// per account; business logic stays in Engine.
type Scheduler struct {
	engine    *Engine
	publisher SnapshotPublisher
	recorder  Recorder
	logger    *zap.Logger
	cfg       SchedulerConfig
	now       func() time.Time

	mu       sync.Mutex
	accounts map[string]*domain.Snapshot

	fullTicker     *time.Ticker
	realtimeTicker *time.Ticker
	cancel         context.CancelFunc
	stopCh         chan struct{}
	started        bool
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

func NewScheduler(engine *Engine, publisher SnapshotPublisher, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		engine:    engine,
		publisher: publisher,
		recorder:  cfg.Recorder,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		accounts:  make(map[string]*domain.Snapshot),
		stopCh:    make(chan struct{}),
	}
}

// Track adds an account to the refresh set
func (s *Scheduler) Track(accountID string) {
	if accountID == "" {
		return
	}
	s.mu.Lock()
	if _, ok := s.accounts[accountID]; !ok {
		s.accounts[accountID] = nil
	}
	n := len(s.accounts)
	s.mu.Unlock()
	s.recorder.SetTrackedAccounts(n)
}

// Untrack removes an account and forgets its latest snapshot
func (s *Scheduler) Untrack(accountID string) {
	s.mu.Lock()
	delete(s.accounts, accountID)
	n := len(s.accounts)
	s.mu.Unlock()
	s.recorder.SetTrackedAccounts(n)
}

// Latest returns the most recent snapshot computed for the account
func (s *Scheduler) Latest(accountID string) *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountID]
}

func (s *Scheduler) trackedAccounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start runs a full refresh immediately and then on both intervals until
// Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.fullTicker = time.NewTicker(s.cfg.FullInterval)
	s.realtimeTicker = time.NewTicker(s.cfg.RealtimeInterval)
	s.mu.Unlock()

	s.logger.Info("Activity refresh scheduler started",
		zap.Duration("full_interval", s.cfg.FullInterval),
		zap.Duration("realtime_interval", s.cfg.RealtimeInterval),
		zap.Int("accounts", len(s.trackedAccounts())))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.runFull(runCtx)
		s.loop(runCtx, s.fullTicker.C, s.runFull, "full")
	}()
	go func() {
		defer s.wg.Done()
		s.loop(runCtx, s.realtimeTicker.C, s.runRealtime, "realtime")
	}()
}

func (s *Scheduler) loop(ctx context.Context, tick <-chan time.Time, run func(context.Context), name string) {
	for {
		select {
		case <-tick:
			run(ctx)
		case <-s.stopCh:
			s.logger.Debug("Refresh loop stopped", zap.String("loop", name))
			return
		case <-ctx.Done():
			s.logger.Debug("Refresh loop context cancelled", zap.String("loop", name))
			return
		}
	}
}

// Stop cancels both timers and any in-flight cycle, then waits for the loops
// to exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.fullTicker != nil {
			s.fullTicker.Stop()
		}
		if s.realtimeTicker != nil {
			s.realtimeTicker.Stop()
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
		s.logger.Info("Activity refresh scheduler stopped")
	})
}

// RefreshNow tracks the account and runs a full refresh for it synchronously.
// The cycle is detached from ctx cancellation and bounded by the cycle
// timeout instead. It returns the latest snapshot, which stays the previous
// one when the cycle does not complete.
func (s *Scheduler) RefreshNow(ctx context.Context, accountID string) *domain.Snapshot {
	s.Track(accountID)
	return s.refreshAccount(context.WithoutCancel(ctx), accountID)
}

func (s *Scheduler) runFull(ctx context.Context) {
	started := time.Now()
	accounts := s.trackedAccounts()

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for _, accountID := range accounts {
		accountID := accountID
		p.Go(func() {
			s.refreshAccount(ctx, accountID)
		})
	}
	p.Wait()

	s.recorder.RefreshCompleted("full", cycleStatus(ctx), time.Since(started))
	s.logger.Info("Full activity refresh completed",
		zap.Int("accounts", len(accounts)),
		zap.Duration("took", time.Since(started)))
}

func (s *Scheduler) refreshAccount(ctx context.Context, accountID string) *domain.Snapshot {
	cycleCtx, cancel := s.cycleContext(ctx)
	defer cancel()

	snapshot, err := s.engine.computeSnapshot(cycleCtx, s.now(), accountID)
	if err != nil {
		s.logger.Warn("Dropping abandoned refresh",
			zap.String("account", accountID),
			zap.Error(err))
		return s.Latest(accountID)
	}

	s.mu.Lock()
	_, tracked := s.accounts[accountID]
	if tracked {
		s.accounts[accountID] = snapshot
	}
	s.mu.Unlock()

	if !tracked {
		s.logger.Debug("Discarding refresh for untracked account", zap.String("account", accountID))
		return snapshot
	}
	s.publish(cycleCtx, snapshot)
	return snapshot
}

func (s *Scheduler) runRealtime(ctx context.Context) {
	started := time.Now()
	accounts := s.trackedAccounts()

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for _, accountID := range accounts {
		accountID := accountID
		p.Go(func() {
			s.refreshRealtime(ctx, accountID)
		})
	}
	p.Wait()

	s.recorder.RefreshCompleted("realtime", cycleStatus(ctx), time.Since(started))
	s.logger.Debug("Realtime refresh completed",
		zap.Int("accounts", len(accounts)),
		zap.Duration("took", time.Since(started)))
}

func (s *Scheduler) refreshRealtime(ctx context.Context, accountID string) {
	prev := s.Latest(accountID)
	if prev == nil {
		// nothing resolved yet for this account
		s.refreshAccount(ctx, accountID)
		return
	}

	cycleCtx, cancel := s.cycleContext(ctx)
	defer cancel()

	next := s.engine.RefreshRealtime(cycleCtx, s.now(), prev)
	if err := cycleCtx.Err(); err != nil {
		s.logger.Debug("Dropping abandoned realtime refresh",
			zap.String("account", accountID),
			zap.Error(err))
		return
	}

	// a full refresh that finished meanwhile wins
	s.mu.Lock()
	current, tracked := s.accounts[accountID]
	stale := !tracked || current != prev
	if !stale {
		s.accounts[accountID] = next
	}
	s.mu.Unlock()

	if stale {
		s.logger.Debug("Discarding superseded realtime window", zap.String("account", accountID))
		return
	}
	s.publish(cycleCtx, next)
}

func (s *Scheduler) publish(ctx context.Context, snapshot *domain.Snapshot) {
	if s.publisher == nil || snapshot == nil {
		return
	}
	if err := s.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		s.recorder.SourceFailure("publisher")
		s.logger.Warn("Failed to publish snapshot",
			zap.String("account", snapshot.AccountID),
			zap.Error(err))
	}
}

func (s *Scheduler) cycleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CycleTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.CycleTimeout)
	}
	return context.WithCancel(ctx)
}

func cycleStatus(ctx context.Context) string {
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "ok"
}
