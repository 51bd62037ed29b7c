package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/grading-arbitrage/internal/metrics"
	"github.com/codyseavey/grading-arbitrage/internal/models"
)

const (
	// DefaultGradingFee is used when no fee settings are stored (yen)
	DefaultGradingFee = 3300
	// DefaultSellingFeeRate is used when no fee settings are stored
	DefaultSellingFeeRate = 0.1
	// LiquidityWindow is how far back trades count towards the liquidity rank
	LiquidityWindow = 30 * 24 * time.Hour

	liquidityS = 20
	liquidityA = 10
	liquidityB = 5
)

// IsPSA10 matches "PSA 10" and "PSA10" condition labels
func IsPSA10(condition string) bool {
	return strings.Contains(condition, "PSA 10") || strings.Contains(condition, "PSA10")
}

// IsStateA matches the raw state-A condition: exactly "A", or containing "状態A".
// States B and C are deliberately excluded.
func IsStateA(condition string) bool {
	c := strings.TrimSpace(condition)
	if c == "" {
		return false
	}
	return c == "A" || strings.Contains(c, "状態A")
}

// ClassifyCondition maps a condition label to its bucket
func ClassifyCondition(condition string) models.ConditionBucket {
	switch {
	case IsPSA10(condition):
		return models.BucketPSA10
	case IsStateA(condition):
		return models.BucketBase
	default:
		return models.BucketOther
	}
}

// LiquidityRank maps a recent trade count to a tier
func LiquidityRank(count int) models.Liquidity {
	switch {
	case count >= liquidityS:
		return models.LiquidityS
	case count >= liquidityA:
		return models.LiquidityA
	case count >= liquidityB:
		return models.LiquidityB
	default:
		return models.LiquidityC
	}
}

// jsRound rounds half up, like Math.round
func jsRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

func historyPrice(h models.TradeHistory) *float64 {
	return h.Price
}

// StatsCalculator derives profitability stats from trade histories.
// Two calculators with equal fields produce identical results for the same
// input, which the list engine relies on when it recomputes a page.
type StatsCalculator struct {
	GradingFee      float64
	SellingFeeRate  float64
	LiquidityWindow time.Duration
	Now             time.Time
}

// NewStatsCalculator pins the clock so that every product in a request is
// evaluated against the same instant
func NewStatsCalculator(gradingFee, sellingFeeRate float64, now time.Time) StatsCalculator {
	return StatsCalculator{
		GradingFee:      gradingFee,
		SellingFeeRate:  sellingFeeRate,
		LiquidityWindow: LiquidityWindow,
		Now:             now,
	}
}

// sortByTradeDateDesc orders by resolved trade date, newest first.
// Unresolvable dates sort last.
func (c StatsCalculator) sortByTradeDateDesc(list []models.TradeHistory) []models.TradeHistory {
	type keyed struct {
		h  models.TradeHistory
		ms int64
	}
	ks := make([]keyed, len(list))
	for i, h := range list {
		var ms int64
		if t, ok := resolveTradeDateAt(h.TradeDate, h.ScrapedAt, c.Now); ok {
			ms = t.UnixMilli()
		}
		ks[i] = keyed{h, ms}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].ms > ks[j].ms })
	out := make([]models.TradeHistory, len(ks))
	for i, k := range ks {
		out[i] = k.h
	}
	return out
}

// latestFiltered sorts newest first and drops price outliers
func (c StatsCalculator) latestFiltered(list []models.TradeHistory) []models.TradeHistory {
	return FilterPriceOutliers(c.sortByTradeDateDesc(list), historyPrice)
}

func headPrice(list []models.TradeHistory) float64 {
	if len(list) == 0 || list[0].Price == nil {
		return 0
	}
	return *list[0].Price
}

// computeExpectedProfit returns floor(psa10*(1-rate) - base - fee), or 0
// when either price is unknown
func computeExpectedProfit(latestPSA10, latestBase, gradingFee, sellingFeeRate float64) int {
	if latestPSA10 <= 0 || latestBase <= 0 {
		return 0
	}
	net := decimal.NewFromFloat(latestPSA10).Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(sellingFeeRate)))
	profit := net.Sub(decimal.NewFromFloat(latestBase)).Sub(decimal.NewFromFloat(gradingFee))
	return int(profit.Floor().IntPart())
}

// Compute derives stats for one product's histories. PSA10Rate is left nil;
// the caller merges it from the grading match.
func (c StatsCalculator) Compute(histories []models.TradeHistory) models.Stats {
	var psa10, base []models.TradeHistory
	for _, h := range histories {
		if IsPSA10(h.Condition) {
			psa10 = append(psa10, h)
		}
		if IsStateA(h.Condition) {
			base = append(base, h)
		}
	}
	psa10Filtered := c.latestFiltered(psa10)
	baseFiltered := c.latestFiltered(base)

	stats := models.DefaultStats()
	stats.LatestPSA10 = headPrice(psa10Filtered)
	stats.LatestBase = headPrice(baseFiltered)
	stats.ExpectedProfit = computeExpectedProfit(stats.LatestPSA10, stats.LatestBase, c.GradingFee, c.SellingFeeRate)
	if cost := stats.LatestBase + c.GradingFee; cost > 0 {
		stats.ROI = jsRound(float64(stats.ExpectedProfit) / cost * 100)
	}

	// Liquidity only counts classified trades with an absolute trade date
	cutoff := c.Now.Add(-c.LiquidityWindow)
	recent := 0
	for _, h := range histories {
		if !IsPSA10(h.Condition) && !IsStateA(h.Condition) {
			continue
		}
		if t, ok := parseAbsolute(h.TradeDate); ok && !t.Before(cutoff) {
			recent++
		}
	}
	stats.Liquidity = LiquidityRank(recent)

	if len(psa10Filtered) >= 2 && psa10Filtered[0].Price != nil && psa10Filtered[1].Price != nil {
		prev := *psa10Filtered[1].Price
		if prev > 0 {
			trend := jsRound((*psa10Filtered[0].Price - prev) / prev * 100)
			stats.RecentTrend = &trend
		}
	}

	metrics.StatsComputedTotal.Inc()
	return stats
}

// ComputeForIDs computes stats for every id. Ids without histories get
// default stats.
func (c StatsCalculator) ComputeForIDs(ids []string, histories []models.TradeHistory) map[string]models.Stats {
	byProduct := make(map[string][]models.TradeHistory, len(ids))
	for _, h := range histories {
		byProduct[h.ProductID] = append(byProduct[h.ProductID], h)
	}
	out := make(map[string]models.Stats, len(ids))
	for _, id := range ids {
		out[id] = c.Compute(byProduct[id])
	}
	return out
}
