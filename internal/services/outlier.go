package services

import (
	"math"
	"sort"
)

// minPricesForIQR is the smallest sample the quartile filter is applied to
const minPricesForIQR = 3

// quantile interpolates linearly between order statistics (R-7 / Excel)
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := float64(n-1) * p
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func validPrice(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// FilterPriceOutliers drops rows whose price lies outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Rows without a usable price are kept, input
// order is preserved, and samples with fewer than three prices are returned
// unchanged.
func FilterPriceOutliers[T any](rows []T, price func(T) *float64) []T {
	prices := make([]float64, 0, len(rows))
	for _, r := range rows {
		if p, ok := validPrice(price(r)); ok {
			prices = append(prices, p)
		}
	}
	if len(prices) < minPricesForIQR {
		return rows
	}

	sort.Float64s(prices)
	q1 := quantile(prices, 0.25)
	q3 := quantile(prices, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	kept := make([]T, 0, len(rows))
	for _, r := range rows {
		p, ok := validPrice(price(r))
		if !ok || (p >= lower && p <= upper) {
			kept = append(kept, r)
		}
	}
	return kept
}
