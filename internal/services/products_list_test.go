package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

var listNow = time.Date(2025, 6, 10, 12, 0, 0, 0, Location)

const seededSeries = "受け継がれる意志|2025"

// seedCatalog adds n products whose expected profit grows with the index
// (200 + 90*i at default fees). Even products have a gem rate equal to i.
func seedCatalog(st *memStore, n int) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%02d", i)
		st.products = append(st.products, models.Product{
			ID:          id,
			NameJP:      fmt.Sprintf("[OP13-%03d](ブースターパック「受け継がれる意志」)", i),
			Brand:       models.BrandOnePiece,
			ReleaseDate: "2025-11-08",
			ProductCode: fmt.Sprintf("CODE-%02d", i),
			IsTarget:    true,
			LastUpdated: fmt.Sprintf("2025-06-%02dT00:00:00", i%28+1),
		})
		st.histories = append(st.histories,
			trade(id, "A", 1000, "2025-06-01"),
			trade(id, "PSA10", float64(5000+100*i), "2025-06-02"),
		)
		if i%2 == 0 {
			st.grading = append(st.grading, models.GradingStat{
				SeriesName: seededSeries,
				CardNumber: fmt.Sprintf("%03d", i),
				GemRate:    price(float64(i)),
			})
		}
	}
}

func listIDs(r models.ListResult) []string {
	ids := make([]string, len(r.List))
	for i, it := range r.List {
		ids[i] = it.Item.ID
	}
	return ids
}

func TestListProductsPagesCoverEveryProductOnce(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 60)
	svc := NewProductsListService(st)

	seen := map[string]bool{}
	var all []string
	for page := 1; page <= 3; page++ {
		r := svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortExpectedProfit, Order: models.OrderDesc, Page: page}, nil)
		require.Nil(t, r.Error)
		assert.Equal(t, 60, r.TotalCount)
		assert.Equal(t, 3, r.TotalPages)
		for _, id := range listIDs(r) {
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
			all = append(all, id)
		}
	}
	require.Len(t, all, 60)
	assert.Equal(t, "p59", all[0])
	assert.Equal(t, "p00", all[59])
}

func TestListProductsStatsAndRate(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 3)

	r := NewProductsListService(st).ListProducts(context.Background(), models.ListParams{Sort: models.SortExpectedProfit, Order: models.OrderAsc, Page: 1}, nil)
	require.Len(t, r.List, 3)
	first := r.List[0]
	assert.Equal(t, "p00", first.Item.ID)
	assert.Equal(t, 200, first.Stats.ExpectedProfit)
	require.NotNil(t, first.Stats.PSA10Rate)
	assert.Equal(t, 0, *first.Stats.PSA10Rate)
	assert.Nil(t, r.List[1].Stats.PSA10Rate)
	assert.Equal(t, 2, *r.List[2].Stats.PSA10Rate)
}

func TestListProductsStableTies(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		st.products = append(st.products, models.Product{ID: id, IsTarget: true})
	}
	st.histories = []models.TradeHistory{
		trade("b", "A", 1000, "2025-06-01"), trade("b", "PSA10", 9000, "2025-06-01"),
		trade("d", "A", 1000, "2025-06-01"), trade("d", "PSA10", 9000, "2025-06-01"),
	}
	svc := NewProductsListService(st)

	for _, order := range []models.SortOrder{models.OrderDesc, models.OrderAsc} {
		r := svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortROI, Order: order, Page: 1}, nil)
		if order == models.OrderDesc {
			assert.Equal(t, []string{"b", "d", "a", "c", "e"}, listIDs(r))
		} else {
			assert.Equal(t, []string{"a", "c", "e", "b", "d"}, listIDs(r))
		}
	}
}

func TestListProductsNullableSortsLowest(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 4)
	svc := NewProductsListService(st)

	r := svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortPSA10Rate, Order: models.OrderDesc, Page: 1}, nil)
	assert.Equal(t, []string{"p02", "p00", "p01", "p03"}, listIDs(r))

	r = svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortPSA10Rate, Order: models.OrderAsc, Page: 1}, nil)
	assert.Equal(t, []string{"p01", "p03", "p00", "p02"}, listIDs(r))
}

func TestListPlansProduceSameResult(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 40)
	releases := []string{"2025-11-08", "2024年3月1日", "", "not a date", "2023-01-20", "2025-11-08"}
	for i := range st.products {
		st.products[i].ReleaseDate = releases[i%len(releases)]
	}
	addDescriptionOnlyProduct(st)
	svc := NewProductsListService(st)

	for _, sort := range []models.SortKey{models.SortReleaseDate, models.SortUpdatedAt} {
		for _, order := range []models.SortOrder{models.OrderAsc, models.OrderDesc} {
			for page := 1; page <= 2; page++ {
				params := models.ListParams{Sort: sort, Order: order, Page: page}
				require.False(t, planFor(params).computeAll)

				computed, err := svc.run(context.Background(), params, nil, listPlan{computeAll: true})
				require.NoError(t, err)
				pushed, err := svc.run(context.Background(), params, nil, listPlan{computeAll: false})
				require.NoError(t, err)
				assert.Equal(t, computed, pushed, "%s %s page %d", sort, order, page)
			}
		}
	}
}

// addDescriptionOnlyProduct turns p00 into a product without a series key
// whose description only appears on a row of the seeded series
func addDescriptionOnlyProduct(st *memStore) {
	st.products[0].NameJP = "Luffy promo without pack"
	st.products[0].CardDescription = "Luffy Alt Art"
	st.grading = append(st.grading, models.GradingStat{
		SeriesName:      seededSeries,
		CardNumber:      "999",
		CardDescription: "Luffy Alt Art",
		GemRate:         price(42),
	})
}

func TestListDescriptionMatchDoesNotDependOnPage(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 26)
	addDescriptionOnlyProduct(st)
	svc := NewProductsListService(st)
	ctx := context.Background()

	// p00 has the oldest update and lands alone on page 2
	params := models.ListParams{Sort: models.SortUpdatedAt, Order: models.OrderDesc, Page: 2}
	require.False(t, planFor(params).computeAll)

	for _, plan := range []listPlan{{computeAll: true}, {computeAll: false}} {
		r, err := svc.run(ctx, params, nil, plan)
		require.NoError(t, err)
		require.Equal(t, []string{"p00"}, listIDs(r), plan.strategy())
		require.NotNil(t, r.List[0].Stats.PSA10Rate, plan.strategy())
		assert.Equal(t, 42, *r.List[0].Stats.PSA10Rate, plan.strategy())
	}

	params.Query = "luffy"
	r := svc.ListProducts(ctx, params, nil)
	require.Nil(t, r.Error)
	assert.Empty(t, r.List)
	params.Page = 1
	r = svc.ListProducts(ctx, params, nil)
	require.Equal(t, []string{"p00"}, listIDs(r))
	assert.Equal(t, 42, *r.List[0].Stats.PSA10Rate)
}

func TestListPushdownOnlyComputesPage(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 30)

	r := NewProductsListService(st).ListProducts(context.Background(), models.ListParams{Sort: models.SortUpdatedAt, Order: models.OrderDesc, Page: 2}, nil)
	require.Nil(t, r.Error)
	assert.Len(t, r.List, 5)
	assert.Equal(t, 1, st.callCount("FetchTradeHistories"))
	assert.Equal(t, 1, st.callCount("FetchGradingStats"))
}

func TestListProductsPageOverflow(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 30)

	r := NewProductsListService(st).ListProducts(context.Background(), models.ListParams{Sort: models.SortROI, Order: models.OrderDesc, Page: 5}, nil)
	assert.Nil(t, r.Error)
	assert.NotNil(t, r.List)
	assert.Empty(t, r.List)
	assert.Equal(t, 30, r.TotalCount)
	assert.Equal(t, 2, r.TotalPages)
}

func TestListProductsEmptyCatalog(t *testing.T) {
	r := NewProductsListService(newMemStore()).ListProducts(context.Background(), models.ListParams{Sort: models.SortUpdatedAt, Page: 1}, nil)
	assert.Nil(t, r.Error)
	assert.Empty(t, r.List)
	assert.Equal(t, 0, r.TotalCount)
	assert.Equal(t, 1, r.TotalPages)
}

type sqlStateError struct{ code string }

func (e sqlStateError) Error() string    { return "canceling statement due to statement timeout" }
func (e sqlStateError) SQLState() string { return e.code }

func TestListProductsStoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		err      error
		sort     models.SortKey
		wantCode string
	}{
		{"products", "FetchProducts", errors.New("connection refused"), models.SortUpdatedAt, "STORE_FETCH"},
		{"histories", "FetchTradeHistories", errors.New("boom"), models.SortROI, "STORE_FETCH"},
		{"page histories", "FetchTradeHistories", errors.New("boom"), models.SortUpdatedAt, "STORE_FETCH"},
		{"grading", "FetchGradingStats", sqlStateError{"57014"}, models.SortExpectedProfit, "57014"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withNow(t, listNow)
			st := newMemStore()
			seedCatalog(st, 5)
			st.errs[tt.method] = tt.err

			r := NewProductsListService(st).ListProducts(context.Background(), models.ListParams{Sort: tt.sort, Order: models.OrderDesc, Page: 1}, nil)
			require.NotNil(t, r.Error)
			assert.Equal(t, tt.wantCode, r.Error.Code)
			assert.Equal(t, tt.err.Error(), r.Error.Message)
			assert.NotNil(t, r.List)
			assert.Empty(t, r.List)
			assert.Equal(t, 0, r.TotalCount)
			assert.Equal(t, 1, r.TotalPages)
		})
	}
}

func TestListProductsFilters(t *testing.T) {
	withNow(t, listNow)
	tests := []struct {
		name   string
		params models.ListParams
		want   []string
	}{
		{"query matches code case-insensitively", models.ListParams{Query: "code-03"}, []string{"p03"}},
		{"query matches description", models.ListParams{Query: "alt ART"}, []string{"p01"}},
		{"min profit", models.ListParams{MinProfit: intPtr(400)}, []string{"p04", "p03"}},
		{"max psa10", models.ListParams{MaxPSA10: intPtr(5100)}, []string{"p01", "p00"}},
		{"psa10 rate excludes unmatched", models.ListParams{MinPSA10Rate: intPtr(1)}, []string{"p04", "p02"}},
		{"year", models.ListParams{MinYear: intPtr(2025), MaxYear: intPtr(2025)}, []string{"p04", "p03", "p02", "p01", "p00"}},
		{"year out of range", models.ListParams{MinYear: intPtr(2026)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			seedCatalog(st, 5)
			st.products[1].CardDescription = "Luffy Alt Art"

			params := tt.params
			params.Sort, params.Order, params.Page = models.SortExpectedProfit, models.OrderDesc, 1
			r := NewProductsListService(st).ListProducts(context.Background(), params, nil)
			require.Nil(t, r.Error)
			assert.Equal(t, tt.want, listIDs(r))
			assert.Equal(t, len(tt.want), r.TotalCount)
		})
	}
}

func TestListProductsBlacklistAndBrand(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 3)
	st.products[0].IsBlacklisted = true
	st.products[2].Brand = models.BrandPokeca
	st.products = append(st.products, models.Product{ID: "hidden", IsTarget: false})
	svc := NewProductsListService(st)

	r := svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortUpdatedAt, Order: models.OrderAsc, Page: 1}, nil)
	assert.Equal(t, []string{"p01", "p02"}, listIDs(r))

	r = svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortUpdatedAt, Order: models.OrderAsc, Page: 1, IncludeBlacklisted: true}, nil)
	assert.Equal(t, []string{"p00", "p01", "p02"}, listIDs(r))

	r = svc.ListProducts(context.Background(), models.ListParams{Sort: models.SortUpdatedAt, Order: models.OrderAsc, Page: 1, BrandPokeca: true}, nil)
	assert.Equal(t, []string{"p02"}, listIDs(r))
}

func TestResolveFees(t *testing.T) {
	fee, rate := ResolveFees(nil, models.SalesSnkrdunk)
	assert.Equal(t, float64(DefaultGradingFee), fee)
	assert.Equal(t, DefaultSellingFeeRate, rate)

	fees := models.DefaultFeeSettings()
	fee, rate = ResolveFees(&fees, models.SalesSnkrdunk)
	assert.Equal(t, 4980.0, fee)
	assert.InDelta(t, 0.08, rate, 1e-12)

	fee, rate = ResolveFees(&fees, "")
	assert.Equal(t, 4980.0, fee)
	assert.InDelta(t, 0.1, rate, 1e-12)
}

func TestListProductsUsesStoredFees(t *testing.T) {
	withNow(t, listNow)
	st := newMemStore()
	seedCatalog(st, 1)
	fees := models.DefaultFeeSettings()

	r := NewProductsListService(st).ListProducts(context.Background(),
		models.ListParams{Sort: models.SortExpectedProfit, Page: 1, SalesDestination: models.SalesSnkrdunk}, &fees)
	require.Len(t, r.List, 1)
	// floor(5000*0.92 - 1000 - 4980)
	assert.Equal(t, -1380, r.List[0].Stats.ExpectedProfit)
}
