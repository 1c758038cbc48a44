package activity

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// formatCount renders n with thousands separators: 1234567 → "1,234,567"
func formatCount(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// formatMoney renders a dollar amount with two decimals
func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func channelLabel(name string) string {
	if name == "" {
		return "Your channel"
	}
	return name
}
