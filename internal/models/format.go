package models

import (
	"fmt"
	"strconv"
)

// FormatGBP renders an amount the way the dashboard and digest show it:
// £1.2m, £450k, £900.
func FormatGBP(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("£%.1fm", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("£%.0fk", v/1_000)
	default:
		return "£" + strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// FormatValue is FormatGBP for a nullable amount; nil and zero render as
// the given placeholder.
func FormatValue(v *float64, undisclosed string) string {
	if v == nil || *v == 0 {
		return undisclosed
	}
	return FormatGBP(*v)
}
