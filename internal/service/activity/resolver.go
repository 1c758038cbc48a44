package activity

import (
	"context"

	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/kapu/creator-activity-engine/pkg/errors"
	"go.uber.org/zap"
)

// Resolution is the set of approved channels linked to an account
type Resolution struct {
	RequestID    string
	SplitPercent float64
	Channels     []domain.Channel
	// Approved holds the approved channel rows the channels were built from
	Approved []*domain.ChannelRecord
}

// AnalyticsIDs returns the identifiers of channels that resolved to one
func (r Resolution) AnalyticsIDs() []string {
	ids := make([]string, 0, len(r.Channels))
	for i := range r.Channels {
		if r.Channels[i].HasAnalytics() {
			ids = append(ids, r.Channels[i].AnalyticsID)
		}
	}
	return util.Unique(ids)
}

func emptyResolution(splitPercent float64) Resolution {
	return Resolution{
		SplitPercent: splitPercent,
		Channels:     []domain.Channel{},
	}
}

// ResolveChannels joins the account's primary request with its approved
// secondary channels and resolves each name to an analytics identifier.
// Read failures yield the empty resolution.
func (e *Engine) ResolveChannels(ctx context.Context, accountID string) Resolution {
	req, err := e.store.GetPrimaryRequest(ctx, accountID)
	if err != nil {
		e.resolutionFailed(accountID, "failed to load primary request", err)
		return emptyResolution(constants.DefaultSplitPercent)
	}
	if req == nil {
		return emptyResolution(constants.DefaultSplitPercent)
	}

	splitPercent := constants.DefaultSplitPercent
	if req.SplitPercent != nil {
		splitPercent = util.ClampPercent(*req.SplitPercent)
	}
	if !req.IsApproved() {
		return emptyResolution(splitPercent)
	}

	records, err := e.store.ListApprovedChannels(ctx, accountID, req.ID)
	if err != nil {
		e.resolutionFailed(accountID, "failed to load linked channels", err)
		return emptyResolution(constants.DefaultSplitPercent)
	}

	channels := collectChannels(req, records)

	var unresolved []string
	for i := range channels {
		if !channels[i].HasAnalytics() {
			unresolved = append(unresolved, channels[i].Name)
		}
	}

	if len(unresolved) > 0 {
		ids, err := e.store.LookupAnalyticsIDs(ctx, unresolved)
		if err != nil {
			e.resolutionFailed(accountID, "failed to resolve analytics ids", err)
			return emptyResolution(constants.DefaultSplitPercent)
		}
		for i := range channels {
			if !channels[i].HasAnalytics() {
				channels[i].AnalyticsID = ids[channels[i].Name]
			}
		}
	}

	return Resolution{
		RequestID:    req.ID,
		SplitPercent: splitPercent,
		Channels:     channels,
		Approved:     records,
	}
}

// collectChannels builds the channel list: the primary request's channel
// first, then approved rows, skipping names already seen.
func collectChannels(req *domain.PrimaryRequest, records []*domain.ChannelRecord) []domain.Channel {
	channels := make([]domain.Channel, 0, len(records)+1)
	seen := make(map[string]int)

	if name := util.Normalize(req.ChannelName); name != "" {
		seen[name] = len(channels)
		channels = append(channels, domain.Channel{
			ID:               req.ID,
			Name:             req.ChannelName,
			Status:           domain.ChannelStatusApproved,
			Thumbnail:        req.ChannelThumbnail,
			RegistrationDate: req.CreatedAt,
			ApprovalDate:     req.UpdatedAt,
		})
	}

	for _, rec := range records {
		if rec == nil || rec.Status != domain.ChannelStatusApproved {
			continue
		}
		key := util.Normalize(rec.ChannelName)
		if key == "" {
			continue
		}
		if idx, dup := seen[key]; dup {
			// the primary entry has no link or cid of its own
			if channels[idx].AnalyticsID == "" {
				channels[idx].AnalyticsID = rec.AnalyticsCID
			}
			if channels[idx].Link == "" {
				channels[idx].Link = rec.Link
			}
			continue
		}
		seen[key] = len(channels)
		channels = append(channels, domain.Channel{
			ID:               rec.ID,
			Name:             rec.ChannelName,
			Status:           rec.Status,
			AnalyticsID:      rec.AnalyticsCID,
			Link:             rec.Link,
			Thumbnail:        rec.Thumbnail,
			RegistrationDate: rec.CreatedAt,
			ApprovalDate:     rec.LastChanged(),
		})
	}

	return channels
}

func (e *Engine) resolutionFailed(accountID, message string, cause error) {
	e.recorder.SourceFailure("resolver")
	e.logger.Warn("Channel resolution failed",
		zap.String("account", accountID),
		zap.Error(errors.NewResolutionError(message, accountID, cause)))
}
