package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLenRange parses a length range given either as a single number ("4") or
// as two numbers separated by a dash ("1-6"). Both ends must be positive, and
// min may not exceed max.
func ParseLenRange(rangeStr string) (min int, max int, err error) {
	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" {
		return 0, 0, fmt.Errorf("length range is empty")
	}

	rangeArr := strings.Split(rangeStr, "-")
	if len(rangeArr) > 2 {
		return 0, 0, fmt.Errorf("length range %q: expected at most (2) numbers, got (%d)", rangeStr, len(rangeArr))
	}

	bounds := make([]int, len(rangeArr))
	for i, s := range rangeArr {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, 0, fmt.Errorf("length range %q: %w", rangeStr, err)
		} else if n <= 0 {
			return 0, 0, fmt.Errorf("length range %q: lengths must be positive", rangeStr)
		}
		bounds[i] = n
	}

	min, max = bounds[0], bounds[len(bounds)-1]
	if min > max {
		return 0, 0, fmt.Errorf("length range %q: min (%d) is larger than max (%d)", rangeStr, min, max)
	}

	return min, max, nil
}
