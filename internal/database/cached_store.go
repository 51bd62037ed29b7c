package database

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/codyseavey/grading-arbitrage/internal/metrics"
	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

// CachedStore caches grading rows per series key. Gemrate data is refreshed by
// a separate scraper a few times a day, so a short TTL is enough.
// All other calls go straight to the wrapped store.
type CachedStore struct {
	services.Store
	grading *expirable.LRU[string, []models.GradingStat]
}

// NewCachedStore wraps inner with a grading cache of size entries
func NewCachedStore(inner services.Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:   inner,
		grading: expirable.NewLRU[string, []models.GradingStat](size, nil, ttl),
	}
}

// FetchGradingStats serves keyed lookups from the cache and fetches only the
// missing keys. Unkeyed or capped reads bypass the cache. Rows come back in
// id order like the wrapped store.
func (s *CachedStore) FetchGradingStats(ctx context.Context, seriesKeys []string, limit int) ([]models.GradingStat, error) {
	if len(seriesKeys) == 0 || limit > 0 {
		return s.Store.FetchGradingStats(ctx, seriesKeys, limit)
	}

	keys := make([]string, 0, len(seriesKeys))
	seen := make(map[string]struct{}, len(seriesKeys))
	var missing []string
	rowsByKey := make(map[string][]models.GradingStat, len(seriesKeys))
	for _, k := range seriesKeys {
		k = models.NormalizeSeriesName(k)
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		if rows, ok := s.grading.Get(k); ok {
			rowsByKey[k] = rows
			metrics.GradingCacheHits.Inc()
			continue
		}
		metrics.GradingCacheMisses.Inc()
		missing = append(missing, k)
	}

	if len(missing) > 0 {
		rows, err := s.Store.FetchGradingStats(ctx, missing, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			name := models.NormalizeSeriesName(r.SeriesName)
			rowsByKey[name] = append(rowsByKey[name], r)
		}
		for _, k := range missing {
			// empty results are cached too so unknown keys do not hit the store every request
			s.grading.Add(k, rowsByKey[k])
		}
	}

	var out []models.GradingStat
	for _, k := range keys {
		out = append(out, rowsByKey[k]...)
	}
	// same order as an uncached read; the description fallback takes the first row
	slices.SortStableFunc(out, func(a, b models.GradingStat) int {
		return compareUint(a.ID, b.ID)
	})
	return out, nil
}

// Purge drops every cached grading row
func (s *CachedStore) Purge() {
	s.grading.Purge()
}
