package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/grading-arbitrage/internal/metrics"
	"github.com/codyseavey/grading-arbitrage/internal/models"
)

const (
	// PageSize is the number of products per list page
	PageSize = 25

	historiesPerProduct = 100
	historyQueryLimit   = 18000
)

// ProductsListService builds the filterable, sortable product list
type ProductsListService struct {
	store Store
}

// NewProductsListService creates a list service reading from store
func NewProductsListService(store Store) *ProductsListService {
	return &ProductsListService{store: store}
}

// listPlan says which values have to be computed before sorting. When the
// sort key is a plain column and nothing filters on computed values, stats
// are only computed for the returned page.
type listPlan struct {
	computeAll bool
}

func (p listPlan) strategy() string {
	if p.computeAll {
		return "compute"
	}
	return "pushdown"
}

func planFor(params models.ListParams) listPlan {
	pushdown := params.Sort.StoreSortable() && !params.HasComputedFilter() && params.Query == ""
	return listPlan{computeAll: !pushdown}
}

// ResolveFees returns the grading fee and selling fee rate for a request.
// Without stored settings the built-in defaults apply.
func ResolveFees(fees *models.FeeSettings, dest models.SalesDestination) (gradingFee, sellingFeeRate float64) {
	if fees == nil {
		return DefaultGradingFee, DefaultSellingFeeRate
	}
	return fees.PSAValue, fees.SellingFeeRate(dest)
}

type listEntry struct {
	item         models.Product
	stats        models.Stats
	releaseMilli int64
}

// ListProducts returns one page of products with their stats. A store
// failure yields an empty page with Error set, never a partial list.
func (s *ProductsListService) ListProducts(ctx context.Context, params models.ListParams, fees *models.FeeSettings) models.ListResult {
	plan := planFor(params)
	start := time.Now()
	defer func() {
		metrics.ListQueriesTotal.WithLabelValues(plan.strategy()).Inc()
		metrics.ListQueryDuration.WithLabelValues(plan.strategy()).Observe(time.Since(start).Seconds())
	}()

	result, err := s.run(ctx, params, fees, plan)
	if err != nil {
		return FailedListResult(err)
	}
	return result
}

// FailedListResult is the empty page reported for a store failure
func FailedListResult(err error) models.ListResult {
	listErr := toListError(err)
	log.Error().Err(err).Str("code", listErr.Code).Msg("product list: store fetch failed")
	return models.ListResult{List: []models.ListItem{}, TotalCount: 0, TotalPages: 1, Error: listErr}
}

func (s *ProductsListService) run(ctx context.Context, params models.ListParams, fees *models.FeeSettings, plan listPlan) (models.ListResult, error) {
	gradingFee, sellingFeeRate := ResolveFees(fees, params.SalesDestination)
	calc := NewStatsCalculator(gradingFee, sellingFeeRate, timeNow())

	var order *ProductOrder
	if params.Sort.StoreSortable() {
		order = &ProductOrder{Column: params.Sort, Ascending: params.Order == models.OrderAsc}
	}
	products, err := s.store.FetchProducts(ctx, ProductFilter{
		FavoriteOnly: params.FavoriteOnly,
		Brands:       params.Brands(),
	}, order)
	if err != nil {
		return models.ListResult{}, storeFailure("fetch products", err)
	}

	entries := make([]listEntry, 0, len(products))
	for _, p := range products {
		if p.IsBlacklisted && !params.IncludeBlacklisted {
			continue
		}
		entries = append(entries, listEntry{item: p, stats: models.DefaultStats(), releaseMilli: ReleaseDateMillis(p.ReleaseDate)})
	}

	var matches map[string]*models.GradingMatch
	if plan.computeAll {
		all := make([]models.Product, len(entries))
		for i := range entries {
			all[i] = entries[i].item
		}
		var statsByID map[string]models.Stats
		statsByID, matches, err = s.computeStats(ctx, calc, all, nil)
		if err != nil {
			return models.ListResult{}, err
		}
		for i := range entries {
			entries[i].stats = statsByID[entries[i].item.ID]
		}
		entries = filterEntries(entries, params)
	}

	compare := compareEntries(params.Sort, params.Order)
	slices.SortStableFunc(entries, compare)

	totalCount := len(entries)
	totalPages := max(1, (totalCount+PageSize-1)/PageSize)
	result := models.ListResult{List: []models.ListItem{}, TotalCount: totalCount, TotalPages: totalPages}
	if params.Page > totalPages {
		return result, nil
	}

	from := (params.Page - 1) * PageSize
	to := min(from+PageSize, totalCount)
	page := slices.Clone(entries[from:to])
	if len(page) == 0 {
		return result, nil
	}

	// Recompute the page with the same calculator: the full pass may have been
	// truncated by the history row cap.
	pageProducts := make([]models.Product, len(page))
	for i := range page {
		pageProducts[i] = page[i].item
	}
	pageStats, _, err := s.computeStats(ctx, calc, pageProducts, matches)
	if err != nil {
		return models.ListResult{}, err
	}
	for i := range page {
		page[i].stats = pageStats[page[i].item.ID]
	}
	slices.SortStableFunc(page, compare)

	for _, e := range page {
		result.List = append(result.List, models.ListItem{Item: e.item, Stats: e.stats})
	}
	return result, nil
}

// computeStats fetches histories (and grading rows unless matches are
// given) concurrently and returns stats with PSA10Rate merged in
func (s *ProductsListService) computeStats(ctx context.Context, calc StatsCalculator, products []models.Product, matches map[string]*models.GradingMatch) (map[string]models.Stats, map[string]*models.GradingMatch, error) {
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	var histories []models.TradeHistory
	var gradingRows []models.GradingStat
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		histories, err = fetchHistoriesForIDs(gctx, s.store, ids)
		return err
	})
	if matches == nil {
		g.Go(func() error {
			var err error
			gradingRows, err = fetchGradingForProducts(gctx, s.store, products)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if matches == nil {
		matches = MatchGradingStatsBatch(products, gradingRows)
	}

	statsByID := calc.ComputeForIDs(ids, histories)
	for id, st := range statsByID {
		st.PSA10Rate = roundedGemRate(matches[id])
		statsByID[id] = st
	}
	return statsByID, matches, nil
}

func fetchHistoriesForIDs(ctx context.Context, store Store, ids []string) ([]models.TradeHistory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	limit := min(len(ids)*historiesPerProduct, historyQueryLimit)
	rows, err := store.FetchTradeHistories(ctx, ids, limit)
	if err != nil {
		return nil, storeFailure("fetch trade histories", err)
	}
	return rows, nil
}

// fetchGradingForProducts loads every row a product can match: the rows of
// its own series key and the rows carrying its card description. What a
// product matches therefore never depends on the other products in the batch.
func fetchGradingForProducts(ctx context.Context, store Store, products []models.Product) ([]models.GradingStat, error) {
	var keys, descriptions []string
	seenKeys := make(map[string]struct{})
	seenDescriptions := make(map[string]struct{})
	for i := range products {
		if key := models.NormalizeSeriesName(EffectiveSeriesKey(&products[i])); key != "" {
			if _, ok := seenKeys[key]; !ok {
				seenKeys[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		if desc := strings.TrimSpace(products[i].CardDescription); desc != "" {
			if _, ok := seenDescriptions[desc]; !ok {
				seenDescriptions[desc] = struct{}{}
				descriptions = append(descriptions, desc)
			}
		}
	}

	var byKey, byDescription []models.GradingStat
	if len(keys) > 0 {
		rows, err := store.FetchGradingStats(ctx, keys, 0)
		if err != nil {
			return nil, storeFailure("fetch grading stats", err)
		}
		byKey = rows
	}
	if len(descriptions) > 0 {
		rows, err := store.FetchGradingStatsByDescription(ctx, descriptions)
		if err != nil {
			return nil, storeFailure("fetch grading stats", err)
		}
		byDescription = rows
	}
	return mergeGradingRows(byKey, byDescription), nil
}

// mergeGradingRows unions two row sets by id in ascending id order, the
// order the matcher scans in
func mergeGradingRows(a, b []models.GradingStat) []models.GradingStat {
	if len(b) == 0 {
		return a
	}
	out := make([]models.GradingStat, 0, len(a)+len(b))
	seen := make(map[uint]struct{}, len(a)+len(b))
	for _, rows := range [][]models.GradingStat{a, b} {
		for _, r := range rows {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(x, y models.GradingStat) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

func storeFailure(op string, err error) error {
	metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
	return wrapStoreError(op, err)
}

// filterEntries applies the free-text query and every range filter
func filterEntries(entries []listEntry, params models.ListParams) []listEntry {
	query := strings.ToLower(params.Query)
	out := entries[:0:0]
	for _, e := range entries {
		if query != "" && !strings.Contains(strings.ToLower(searchText(&e.item)), query) {
			continue
		}
		if !passesRangeFilters(e, params) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func searchText(p *models.Product) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.NameJP, p.CardDescription, p.ProductCode} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func passesRangeFilters(e listEntry, p models.ListParams) bool {
	st := e.stats
	if p.MinProfit != nil && st.ExpectedProfit < *p.MinProfit {
		return false
	}
	if p.MinROI != nil && st.ROI < *p.MinROI {
		return false
	}
	if p.MinPSA10 != nil && st.LatestPSA10 < float64(*p.MinPSA10) {
		return false
	}
	if p.MaxPSA10 != nil && st.LatestPSA10 > float64(*p.MaxPSA10) {
		return false
	}
	if p.MinBase != nil && st.LatestBase < float64(*p.MinBase) {
		return false
	}
	if p.MaxBase != nil && st.LatestBase > float64(*p.MaxBase) {
		return false
	}
	if p.MinYear != nil || p.MaxYear != nil {
		year, ok := ReleaseYear(e.item.ReleaseDate)
		if !ok {
			return false
		}
		if p.MinYear != nil && year < *p.MinYear {
			return false
		}
		if p.MaxYear != nil && year > *p.MaxYear {
			return false
		}
	}
	if p.MinPSA10Rate != nil && (st.PSA10Rate == nil || *st.PSA10Rate < *p.MinPSA10Rate) {
		return false
	}
	return true
}

// compareNullable orders nil below every value
func compareNullable(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

// compareEntries builds the list comparator. Equal keys compare as 0 so the
// stable sort keeps the incoming order.
func compareEntries(key models.SortKey, order models.SortOrder) func(a, b listEntry) int {
	return func(a, b listEntry) int {
		var c int
		switch key {
		case models.SortExpectedProfit:
			c = cmp.Compare(a.stats.ExpectedProfit, b.stats.ExpectedProfit)
		case models.SortROI:
			c = cmp.Compare(a.stats.ROI, b.stats.ROI)
		case models.SortLatestPSA10:
			c = cmp.Compare(a.stats.LatestPSA10, b.stats.LatestPSA10)
		case models.SortReleaseDate:
			c = cmp.Compare(a.releaseMilli, b.releaseMilli)
		case models.SortRecentTrend:
			c = compareNullable(a.stats.RecentTrend, b.stats.RecentTrend)
		case models.SortPSA10Rate:
			c = compareNullable(a.stats.PSA10Rate, b.stats.PSA10Rate)
		default:
			c = strings.Compare(a.item.LastUpdated, b.item.LastUpdated)
		}
		if order == models.OrderAsc {
			return c
		}
		return -c
	}
}
