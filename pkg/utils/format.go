// Package utils provides common formatting helpers shared by the analysis
// and reporting layers.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount renders a monetary amount with thousands separators and no
// decimal places, e.g. 1234567.8 → "1,234,568". Negative amounts keep a
// leading minus sign.
func FormatAmount(amount float64) string {
	negative := amount < 0
	rounded := int64(math.Round(math.Abs(amount)))

	formatted := groupThousands(rounded)
	if negative && rounded != 0 {
		return "-" + formatted
	}
	return formatted
}

// FormatPercent renders a percentage with one decimal place, e.g. "12.3%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatCompact renders large amounts in compact notation for console
// output: 1234567 → "1.23M", 1234 → "1.23K".
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	abs := math.Abs(amount)

	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s%.2fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%.2fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%.2fK", sign, abs/1e3)
	default:
		return fmt.Sprintf("%s%.2f", sign, abs)
	}
}

func groupThousands(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
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
	return b.String()
}
