// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMoney formats an amount with thousands separators and two decimals.
// e.g., 1234.5 -> "$1,234.50", -12 -> "-$12.00"
func FormatMoney(v float64) string {
	if v < 0 && math.Round(v*100) != 0 {
		return "-" + FormatMoney(-v)
	}
	cents := int64(math.Round(math.Abs(v) * 100))
	return fmt.Sprintf("$%s.%02d", FormatNumber(cents/100), cents%100)
}

// FormatMoneyShort formats an amount compactly for narrow columns.
// e.g., 1234.5 -> "$1,235", 45.2 -> "$45.2", 3.456 -> "$3.46"
func FormatMoneyShort(v float64) string {
	if v < 0 {
		return "-" + FormatMoneyShort(-v)
	}
	if v >= 1000 {
		return "$" + FormatNumber(int64(math.Round(v)))
	}
	if v >= 100 {
		return fmt.Sprintf("$%.0f", v)
	}
	if v >= 10 {
		return fmt.Sprintf("$%.1f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatAmount formats a raw item amount the way it was entered.
// e.g., 1000 -> "1000", 12.5 -> "12.5"
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatShare formats part as a percentage of total. A zero total yields "-".
func FormatShare(part, total float64) string {
	if total == 0 {
		return "-"
	}
	return FormatPercent(part / total)
}
