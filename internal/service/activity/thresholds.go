package activity

import (
	"github.com/kapu/creator-activity-engine/internal/constants"
	"github.com/kapu/creator-activity-engine/internal/util"
	"github.com/shopspring/decimal"
)

var (
	hundred           = decimal.NewFromInt(100)
	revenueBaseFloor  = decimal.RequireFromString(constants.RevenueBaselineFloor)
	channelMinRevenue = decimal.RequireFromString(constants.ChannelThresholds.MinRevenueDelta)
	videoMinRevenue   = decimal.RequireFromString(constants.VideoThresholds.MinRevenueDelta)
)

// countIncrease reports delta > minDelta and delta/max(base,1) > percent/100.
// The relative test is done in integers so a delta of exactly percent% fails.
func countIncrease(delta, base, minDelta, percent int64) bool {
	if delta <= minDelta {
		return false
	}
	return delta*100 > percent*util.MaxInt64(base, 1)
}

// amountIncrease reports delta > minDelta and delta/max(base,0.001) > percent/100
func amountIncrease(delta, base, minDelta decimal.Decimal, percent int64) bool {
	if !delta.GreaterThan(minDelta) {
		return false
	}
	floor := util.MaxDecimal(base, revenueBaseFloor)
	return delta.Mul(hundred).GreaterThan(floor.Mul(decimal.NewFromInt(percent)))
}

// countPercent is round(delta/max(base,1)*100)
func countPercent(delta, base int64) int64 {
	return util.RoundPercent(delta, util.MaxInt64(base, 1))
}

// amountPercent is round(delta/max(base,0.001)*100)
func amountPercent(delta, base decimal.Decimal) int64 {
	floor := util.MaxDecimal(base, revenueBaseFloor)
	return delta.Mul(hundred).Div(floor).Round(0).IntPart()
}
