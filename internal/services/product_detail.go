package services

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

const (
	detailHistoryLimit   = 100
	defaultSimulatedRate = 75

	trendWindow1Month  = 30 * 24 * time.Hour
	trendWindow3Months = 90 * 24 * time.Hour
)

// HistoryEntry is a trade with its bucket and display date
type HistoryEntry struct {
	models.TradeHistory
	Bucket      models.ConditionBucket `json:"bucket"`
	DisplayDate string                 `json:"display_date"`
}

// ChartPoint is one price on the history chart (date in UTC, YYYY-MM-DD)
type ChartPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Simulation is the expected outcome of grading with one PSA plan
type Simulation struct {
	Plan           models.PSAPlan `json:"plan"`
	PSA10Rate      float64        `json:"psa10Rate"`
	ExpectedProfit int            `json:"expectedProfit"`
	ROI            int            `json:"roi"`
}

// ProductDetail is everything the product page shows
type ProductDetail struct {
	Product          models.Product       `json:"product"`
	Stats            models.Stats         `json:"stats"`
	ReleaseDateLabel string               `json:"release_date_label"`
	Histories        []HistoryEntry       `json:"histories"`
	PSA10Chart       []ChartPoint         `json:"psa10_chart"`
	BaseChart        []ChartPoint         `json:"base_chart"`
	Trend1Month      *int                 `json:"trend_1_month"`
	Trend3Months     *int                 `json:"trend_3_months"`
	Grading          *models.GradingMatch `json:"grading"`
	SeriesKey        string               `json:"series_key"`
	GemrateURL       string               `json:"gemrate_url,omitempty"`
	SnkrdunkURL      string               `json:"snkrdunk_url"`
	MercariURL       string               `json:"mercari_search_url"`
	Fees             models.FeeSettings   `json:"fees"`
	Simulations      []Simulation         `json:"simulations"`
}

// ProductDetailService assembles the product page
type ProductDetailService struct {
	store Store
}

func NewProductDetailService(store Store) *ProductDetailService {
	return &ProductDetailService{store: store}
}

// GetDetail returns ErrProductNotFound for unknown ids
func (s *ProductDetailService) GetDetail(ctx context.Context, id string) (*ProductDetail, error) {
	var (
		product   *models.Product
		histories []models.TradeHistory
		settings  *models.AppSettings
		mappings  []models.GradingMapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.FetchProduct(gctx, id)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return err
			}
			return storeFailure("fetch product", err)
		}
		product = p
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.FetchTradeHistories(gctx, []string{id}, detailHistoryLimit)
		if err != nil {
			return storeFailure("fetch trade histories", err)
		}
		histories = rows
		return nil
	})
	g.Go(func() error {
		st, err := s.store.LoadAppSettings(gctx)
		if err != nil {
			return storeFailure("load settings", err)
		}
		settings = st
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.FetchGradingMappings(gctx)
		if err != nil {
			return storeFailure("fetch grading mappings", err)
		}
		mappings = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seriesKey := models.NormalizeSeriesName(EffectiveSeriesKey(product))
	gradingRows, err := fetchGradingForProducts(ctx, s.store, []models.Product{*product})
	if err != nil {
		return nil, err
	}

	fees := models.DefaultFeeSettings()
	if f := settings.Fees(); f != nil {
		fees = *f
	}
	gradingFee, sellingFeeRate := ResolveFees(settings.Fees(), models.SalesMercari)
	calc := NewStatsCalculator(gradingFee, sellingFeeRate, timeNow())

	match := MatchGradingStats(product, gradingRows)
	stats := calc.Compute(histories)
	stats.PSA10Rate = roundedGemRate(match)

	var psa10, base []models.TradeHistory
	for _, h := range histories {
		if IsPSA10(h.Condition) {
			psa10 = append(psa10, h)
		}
		if IsStateA(h.Condition) {
			base = append(base, h)
		}
	}
	psa10Filtered := calc.latestFiltered(psa10)

	detail := &ProductDetail{
		Product:          *product,
		Stats:            stats,
		ReleaseDateLabel: FormatReleaseDate(product.ReleaseDate),
		Histories:        calc.historyEntries(histories),
		PSA10Chart:       calc.chartPoints(psa10),
		BaseChart:        calc.chartPoints(base),
		Trend1Month:      calc.trendSince(psa10Filtered, stats.LatestPSA10, trendWindow1Month),
		Trend3Months:     calc.trendSince(psa10Filtered, stats.LatestPSA10, trendWindow3Months),
		Grading:          match,
		SeriesKey:        seriesKey,
		SnkrdunkURL:      "https://snkrdunk.com/apparels/" + url.PathEscape(product.ID) + "?slide=right",
		MercariURL:       mercariSearchURL(product.NameJP),
		Fees:             fees,
	}
	detail.GemrateURL = gemrateURL(match, seriesKey, mappings, settings, product)

	rate := float64(defaultSimulatedRate)
	if match != nil {
		rate = float64(jsRound(match.GemRate))
	}
	for _, plan := range fees.PSAPlans() {
		profit, roi := SimulateROI(stats.LatestPSA10, stats.LatestBase, plan.Price, fees.SellingFeeRate(models.SalesMercari), rate)
		detail.Simulations = append(detail.Simulations, Simulation{Plan: plan, PSA10Rate: rate, ExpectedProfit: profit, ROI: roi})
	}
	return detail, nil
}

// SimulateROI weights the post-fee PSA10 price by the gem rate (percent)
// and subtracts purchase and grading costs
func SimulateROI(latestPSA10, purchasePrice, gradingFee, sellingFeeRate, psa10RatePercent float64) (profit, roi int) {
	cost := purchasePrice + gradingFee
	expectedSell := latestPSA10 * (1 - sellingFeeRate) * (psa10RatePercent / 100)
	profit = int(math.Floor(expectedSell - cost))
	if cost > 0 {
		roi = jsRound(float64(profit) / cost * 100)
	}
	return profit, roi
}

func (c StatsCalculator) historyEntries(histories []models.TradeHistory) []HistoryEntry {
	sorted := c.sortByTradeDateDesc(histories)
	out := make([]HistoryEntry, len(sorted))
	for i, h := range sorted {
		display := "-"
		if t, ok := resolveTradeDateAt(h.TradeDate, h.ScrapedAt, c.Now); ok {
			display = t.In(Location).Format("2006/01/02")
		}
		out[i] = HistoryEntry{TradeHistory: h, Bucket: ClassifyCondition(h.Condition), DisplayDate: display}
	}
	return out
}

// chartPoints lists resolvable trades oldest first
func (c StatsCalculator) chartPoints(list []models.TradeHistory) []ChartPoint {
	type dated struct {
		t     time.Time
		price float64
	}
	var ds []dated
	for _, h := range list {
		t, ok := resolveTradeDateAt(h.TradeDate, h.ScrapedAt, c.Now)
		if !ok {
			continue
		}
		var price float64
		if h.Price != nil {
			price = *h.Price
		}
		ds = append(ds, dated{t, price})
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].t.Before(ds[j].t) })
	out := make([]ChartPoint, len(ds))
	for i, d := range ds {
		out[i] = ChartPoint{Date: d.t.UTC().Format("2006-01-02"), Price: d.price}
	}
	return out
}

// trendSince compares the latest price with the newest trade at least window old
func (c StatsCalculator) trendSince(filtered []models.TradeHistory, latest float64, window time.Duration) *int {
	if latest <= 0 {
		return nil
	}
	cutoff := c.Now.Add(-window)
	for _, h := range filtered {
		t, ok := resolveTradeDateAt(h.TradeDate, h.ScrapedAt, c.Now)
		if !ok || h.Price == nil {
			continue
		}
		if t.After(cutoff) {
			continue
		}
		if *h.Price <= 0 {
			return nil
		}
		trend := jsRound((latest - *h.Price) / *h.Price * 100)
		return &trend
	}
	return nil
}

func mercariSearchURL(nameJP string) string {
	name, _, _ := strings.Cut(nameJP, "[")
	keyword := strings.TrimSpace(name)
	if pack, _ := ParseCatalogName(nameJP); pack != "" {
		keyword = strings.TrimSpace(keyword + " " + pack)
	}
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("status", "on_sale")
	q.Set("sort", "price")
	q.Set("order", "asc")
	return "https://jp.mercari.com/search?" + q.Encode()
}

// gemrateURL prefers the mapping for the matched series, then the URLs
// configured in settings
func gemrateURL(match *models.GradingMatch, seriesKey string, mappings []models.GradingMapping, settings *models.AppSettings, p *models.Product) string {
	series := seriesKey
	if match != nil && match.SeriesName != "" {
		series = models.NormalizeSeriesName(match.SeriesName)
	}
	if series != "" {
		for _, m := range mappings {
			if m.SeriesName == series && m.GemrateURL != "" {
				return m.GemrateURL
			}
		}
	}
	return settings.GemrateURL(series, p.ID, p.ProductCode)
}
