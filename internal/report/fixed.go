package report

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// FormatFixed2 formats v with exactly two decimals. Exact ties round away
// from zero (0.125 -> "0.13") and negative zero prints as "0.00".
// strconv on its own rounds ties to even.
func FormatFixed2(v float64) string {
	if v == 0 {
		return "0.00"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	neg := v < 0
	abs := math.Abs(v)

	// abs*1000 is exact at 64+ bits of precision.
	scaled := new(big.Float).SetPrec(128).SetFloat64(abs)
	scaled.Mul(scaled, big.NewFloat(1000).SetPrec(128))
	if scaled.IsInt() {
		thousandths, _ := scaled.Int(nil)
		if new(big.Int).Mod(thousandths, big.NewInt(10)).Int64() == 5 {
			cents := thousandths.Add(thousandths, big.NewInt(5))
			cents.Quo(cents, big.NewInt(10))
			return sign(neg) + centsString(cents)
		}
	}

	return sign(neg) + strconv.FormatFloat(abs, 'f', 2, 64)
}

func sign(neg bool) string {
	if neg {
		return "-"
	}
	return ""
}

func centsString(cents *big.Int) string {
	s := cents.String()
	if len(s) < 3 {
		s = strings.Repeat("0", 3-len(s)) + s
	}
	return s[:len(s)-2] + "." + s[len(s)-2:]
}
