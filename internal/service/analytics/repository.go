package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/internal/service/database"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/kapu/creator-activity-engine/pkg/errors"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// IDCache caches the analytics_channels name lookup
type IDCache interface {
	GetAnalyticsIDs(ctx context.Context, names []string) (map[string]string, []string, error)
	StoreAnalyticsIDs(ctx context.Context, ids map[string]string) error
}

// Repository reads the dashboard tables the activity engine consumes.
// It never writes.
type Repository struct {
	db      *sql.DB
	ids     IDCache
	breaker *util.CircuitBreaker
	logger  *zap.Logger
}

func NewRepository(postgres *database.PostgresService, ids IDCache, logger *zap.Logger) *Repository {
	return &Repository{
		db:  postgres.GetDB(),
		ids: ids,
		breaker: util.NewCircuitBreaker("analytics-store",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger),
		logger: logger,
	}
}

// guard runs fn through the circuit breaker. A call abandoned because ctx
// ended is not held against the store.
func (r *Repository) guard(ctx context.Context, fn func() error) error {
	if !r.breaker.Allow() {
		return errors.ErrStoreUnavailable
	}
	err := fn()
	if err != nil && ctx.Err() != nil {
		r.breaker.Release()
		return err
	}
	r.breaker.Record(err)
	return err
}

// GetPrimaryRequest returns the account's latest onboarding request, or nil
func (r *Repository) GetPrimaryRequest(ctx context.Context, accountID string) (*domain.PrimaryRequest, error) {
	query := `
		SELECT id, user_id, status,
		       COALESCE(youtube_channel_name, ''), COALESCE(youtube_channel_thumbnail, ''),
		       split_percent, created_at, updated_at
		FROM user_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		req          domain.PrimaryRequest
		status       string
		splitPercent sql.NullFloat64
		updatedAt    sql.NullTime
		found        = true
	)

	err := r.guard(ctx, func() error {
		err := r.db.QueryRowContext(ctx, query, accountID).Scan(
			&req.ID, &req.UserID, &status,
			&req.ChannelName, &req.ChannelThumbnail,
			&splitPercent, &req.CreatedAt, &updatedAt,
		)
		if err == sql.ErrNoRows {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query primary request: %w", err)
	}
	if !found {
		return nil, nil
	}

	req.Status = domain.ChannelStatus(status)
	if splitPercent.Valid {
		v := splitPercent.Float64
		req.SplitPercent = &v
	}
	if updatedAt.Valid {
		req.UpdatedAt = updatedAt.Time
	} else {
		req.UpdatedAt = req.CreatedAt
	}

	return &req, nil
}

// ListApprovedChannels returns approved channel rows owned by the account or
// attached to its primary request, most recently updated first.
func (r *Repository) ListApprovedChannels(ctx context.Context, accountID, requestID string) ([]*domain.ChannelRecord, error) {
	query := `
		SELECT id, COALESCE(user_id, ''), COALESCE(main_request_id::text, ''), channel_name,
		       COALESCE(link, ''), status, COALESCE(analytics_cid, ''), COALESCE(thumbnail, ''),
		       created_at, updated_at
		FROM channels
		WHERE status = $1
		  AND (user_id = $2 OR ($3::text IS NOT NULL AND main_request_id::text = $3::text))
		ORDER BY COALESCE(updated_at, created_at) DESC, id
	`

	request := sql.NullString{String: requestID, Valid: requestID != ""}

	var records []*domain.ChannelRecord
	err := r.guard(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, string(domain.ChannelStatusApproved), accountID, request)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec       domain.ChannelRecord
				status    string
				updatedAt sql.NullTime
			)
			if err := rows.Scan(&rec.ID, &rec.UserID, &rec.MainRequestID, &rec.ChannelName,
				&rec.Link, &status, &rec.AnalyticsCID, &rec.Thumbnail,
				&rec.CreatedAt, &updatedAt); err != nil {
				r.logger.Warn("Failed to scan channel row", zap.Error(err))
				continue
			}
			rec.Status = domain.ChannelStatus(status)
			if updatedAt.Valid {
				t := updatedAt.Time
				rec.UpdatedAt = &t
			}
			records = append(records, &rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query approved channels: %w", err)
	}

	return records, nil
}

// LookupAnalyticsIDs maps channel names to analytics identifiers. Names with
// no match are absent from the result.
func (r *Repository) LookupAnalyticsIDs(ctx context.Context, names []string) (map[string]string, error) {
	names = util.Unique(names)
	result := make(map[string]string, len(names))
	if len(names) == 0 {
		return result, nil
	}

	pending := names
	if r.ids != nil {
		cached, missing, err := r.ids.GetAnalyticsIDs(ctx, names)
		if err == nil {
			for name, cid := range cached {
				result[name] = cid
			}
			pending = missing
		}
	}
	if len(pending) == 0 {
		return result, nil
	}

	query := `
		SELECT cname, cid
		FROM analytics_channels
		WHERE cname = ANY($1)
	`

	fetched := make(map[string]string, len(pending))
	err := r.guard(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, pq.Array(pending))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name, cid string
			if err := rows.Scan(&name, &cid); err != nil {
				r.logger.Warn("Failed to scan analytics channel", zap.Error(err))
				continue
			}
			if _, exists := fetched[name]; !exists {
				fetched[name] = cid
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics channels: %w", err)
	}

	for name, cid := range fetched {
		result[name] = cid
	}
	if r.ids != nil && len(fetched) > 0 {
		_ = r.ids.StoreAnalyticsIDs(ctx, fetched)
	}

	return result, nil
}

// GetChannelMetrics returns daily channel rows for the identifiers with
// from <= date <= to, ordered by date.
func (r *Repository) GetChannelMetrics(ctx context.Context, analyticsIDs []string, from, to string) ([]domain.DailyChannelMetric, error) {
	if len(analyticsIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT cid, date, COALESCE(total_views, 0), COALESCE(total_revenue, 0), COALESCE(total_premium_views, 0)
		FROM daily_channel_analytics
		WHERE cid = ANY($1) AND date >= $2 AND date <= $3
		ORDER BY date, cid
	`

	var metrics []domain.DailyChannelMetric
	err := r.guard(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, pq.Array(analyticsIDs), from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				m    domain.DailyChannelMetric
				date time.Time
			)
			if err := rows.Scan(&m.AnalyticsID, &date, &m.Views, &m.Revenue, &m.PremiumViews); err != nil {
				return fmt.Errorf("failed to scan channel metric: %w", err)
			}
			m.Date = util.FormatDay(date)
			metrics = append(metrics, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query channel metrics: %w", err)
	}

	return metrics, nil
}

// GetVideoMetrics returns daily video rows of one channel with from <= date <= to
func (r *Repository) GetVideoMetrics(ctx context.Context, analyticsID, from, to string) ([]domain.DailyVideoMetric, error) {
	query := `
		SELECT cid, vid, date, COALESCE(views, 0), COALESCE(estimated_partner_revenue, 0), COALESCE(watch_time_minutes, 0)
		FROM daily_video_analytics
		WHERE cid = $1 AND date >= $2 AND date <= $3
		ORDER BY date, vid
	`

	var metrics []domain.DailyVideoMetric
	err := r.guard(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, analyticsID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				m    domain.DailyVideoMetric
				date time.Time
			)
			if err := rows.Scan(&m.AnalyticsID, &m.VideoID, &date, &m.Views, &m.Revenue, &m.WatchTimeMinutes); err != nil {
				return fmt.Errorf("failed to scan video metric: %w", err)
			}
			m.Date = util.FormatDay(date)
			metrics = append(metrics, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query video metrics: %w", err)
	}

	return metrics, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
