package service

import (
	"math"
	"strconv"
	"strings"
)

// ParsePriceRange parses a "min-max" query value into inclusive bounds.
// Each side is returned only when it is a finite number, so "2-" or "abc-5"
// yield a single bound and "" yields none.
func ParsePriceRange(raw string) (minPrice, maxPrice *float64) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	lo, hi, _ := strings.Cut(raw, "-")
	return parseBound(lo), parseBound(hi)
}

func parseBound(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
