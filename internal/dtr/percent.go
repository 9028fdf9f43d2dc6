package dtr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPercentChange is shown whenever the change cannot be computed.
const DefaultPercentChange = "+0.00%"

// PercentChange returns (mark-entry)/entry*100 as a signed, two-decimal
// percentage such as "+50.00%". Unparsable input, a zero entry price or a
// non-finite result all yield DefaultPercentChange; nothing is reported.
func PercentChange(entry, mark string) string {
	e, err := strconv.ParseFloat(strings.TrimSpace(entry), 64)
	if err != nil {
		return DefaultPercentChange
	}
	m, err := strconv.ParseFloat(strings.TrimSpace(mark), 64)
	if err != nil {
		return DefaultPercentChange
	}
	if e == 0 {
		return DefaultPercentChange
	}

	change := (m - e) / e * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return DefaultPercentChange
	}
	return fmt.Sprintf("%+.2f%%", change)
}

// IsNegativeChange reports whether a formatted percent-change string carries a
// minus sign.
func IsNegativeChange(percent string) bool {
	return strings.HasPrefix(percent, "-")
}
