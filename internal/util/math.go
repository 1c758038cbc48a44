package util

import (
	"math"

	"github.com/shopspring/decimal"
)

func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func ClampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// ClampPercent bounds v to [0, 100]
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// MaxDecimal returns the larger of a and b
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// RoundPercent returns round(num/den*100), den must be positive
func RoundPercent(num, den int64) int64 {
	return int64(math.Round(float64(num) * 100 / float64(den)))
}

// Unique returns values in first-seen order without duplicates or empties
func Unique(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := seen[v]; !exists {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
