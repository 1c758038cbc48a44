package constants

import "time"

// ChannelThresholds gate day-over-day channel increase events.
// Relative thresholds are percentages; every comparison is strict.
var ChannelThresholds = struct {
	MinViewsDelta        int64
	ViewsPercent         int64
	MinRevenueDelta      string
	RevenuePercent       int64
	MinPremiumViewsDelta int64
	PremiumViewsPercent  int64
}{
	MinViewsDelta:        5,
	ViewsPercent:         10,
	MinRevenueDelta:      "0.001",
	RevenuePercent:       10,
	MinPremiumViewsDelta: 2,
	PremiumViewsPercent:  10,
}

var VideoThresholds = struct {
	MinViewsDelta          int64
	ViewsPercent           int64
	MinRevenueDelta        string
	RevenuePercent         int64
	HighPerformingMinViews int64
}{
	MinViewsDelta:          10,
	ViewsPercent:           15,
	MinRevenueDelta:        "0.001",
	RevenuePercent:         20,
	HighPerformingMinViews: 100,
}

// RevenueBaselineFloor replaces a zero revenue baseline in relative checks
const RevenueBaselineFloor = "0.001"

var RefreshConfig = struct {
	FullInterval     time.Duration
	RealtimeInterval time.Duration
	CycleTimeout     time.Duration
	Concurrency      int
}{
	FullInterval:     1 * time.Hour,
	RealtimeInterval: 5 * time.Minute,
	CycleTimeout:     2 * time.Minute,
	Concurrency:      4,
}

var CacheTTL = struct {
	Snapshot     time.Duration
	AnalyticsIDs time.Duration
}{
	Snapshot:     2 * time.Hour,
	AnalyticsIDs: 30 * time.Minute,
}

var CacheKeys = struct {
	SnapshotPrefix string
	AnalyticsIDs   string
}{
	SnapshotPrefix: "activity:snapshot:",
	AnalyticsIDs:   "activity:analytics_cids",
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
}

// DefaultSplitPercent applies when the primary request has no split on record
const DefaultSplitPercent = 100.0

const DefaultActiveSection = "dashboard"
