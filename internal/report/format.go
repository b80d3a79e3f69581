package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatShares formats a share count with thousands separators, keeping
// up to four decimals for fractional holdings.
// e.g., 12345.5 → "12,345.5", 900 → "900"
func FormatShares(n float64) string {
	s := strconv.FormatFloat(math.Abs(n), 'f', 4, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	out := groupThousands(intPart)
	if frac = strings.TrimRight(frac, "0"); frac != "" {
		out += "." + frac
	}
	if n < 0 {
		return "-" + out
	}
	return out
}

// FormatChange formats a signed share delta.
// e.g., -100 → "-100", 1000 → "+1,000"
func FormatChange(n int64) string {
	s := strconv.FormatInt(n, 10)
	if digits, neg := strings.CutPrefix(s, "-"); neg {
		return "-" + groupThousands(digits)
	}
	return "+" + groupThousands(s)
}

// FormatPrice formats a per-share price in dollars.
func FormatPrice(p float64) string {
	return "$" + strings.TrimSuffix(fmt.Sprintf("%.4f", p), "00")
}

// groupThousands puts commas every 3 digits into an unsigned digit string.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
