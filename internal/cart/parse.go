package cart

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	leadingInt    = regexp.MustCompile(`^[+-]?\d+`)
	leadingNumber = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d+)?|\.\d+)([eE][+-]?\d+)?`)
)

// ParseQty reads the leading integer of raw, ignoring anything after it.
// ok is false when raw has no leading integer at all.
func ParseQty(raw string) (qty int, ok bool) {
	m := leadingInt.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// out of int range: saturate, the caller clamps anyway
		if strings.HasPrefix(m, "-") {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return n, true
}

// ParseAmount reads the leading decimal number of raw. Anything unparsable is zero.
func ParseAmount(raw string) decimal.Decimal {
	m := leadingNumber.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return decimal.Zero
	}
	sign, digits, exp := m[1], m[2], m[3]
	if sign == "+" {
		sign = ""
	}
	if strings.HasPrefix(digits, ".") {
		digits = "0" + digits
	}
	d, err := decimal.NewFromString(sign + digits + exp)
	if err != nil {
		return decimal.Zero
	}
	return d
}
