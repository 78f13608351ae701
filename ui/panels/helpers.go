package panels

import (
	"math"
	"strconv"
	"strings"

	"printboard/internal/workspace"
)

// parseNumber reads a numeric entry. Anything that is not a finite number
// yields an InvalidDimensionError naming field.
func parseNumber(field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &workspace.InvalidDimensionError{Field: field, Value: math.NaN(), Reason: "not a number"}
	}
	return v, nil
}

// formatNumber shows at most one decimal.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
