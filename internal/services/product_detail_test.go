package services

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

func detailStore() *memStore {
	st := newMemStore()
	p := luffy()
	p.IsTarget = true
	st.products = []models.Product{*p}
	st.histories = []models.TradeHistory{
		trade("p1", "PSA10", 6000, "2025-06-05"),
		trade("p1", "A", 1000, "2025-06-04"),
		trade("p1", "B", 800, "2025-06-03"),
		trade("p1", "PSA10", 5000, "2025-05-01"),
		trade("p1", "PSA10", 4000, "2025-02-01"),
		trade("other", "PSA10", 99999, "2025-06-05"),
	}
	st.grading = []models.GradingStat{
		{SeriesName: "受け継がれる意志｜2025", CardNumber: "120", GemRate: price(82.6), PSA10Count: intPtr(826), TotalGraded: intPtr(1000)},
	}
	st.mappings = []models.GradingMapping{{SeriesName: "受け継がれる意志|2025", GemrateURL: "https://www.gemrate.com/op13"}}
	return st
}

func TestGetDetail(t *testing.T) {
	withNow(t, statsNow)
	st := detailStore()

	d, err := NewProductDetailService(st).GetDetail(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", d.Product.ID)
	assert.Equal(t, "2025/11/08", d.ReleaseDateLabel)
	assert.Equal(t, 6000.0, d.Stats.LatestPSA10)
	assert.Equal(t, 1000.0, d.Stats.LatestBase)
	// floor(6000*0.9 - 1000 - 3300)
	assert.Equal(t, 1100, d.Stats.ExpectedProfit)
	assert.Equal(t, 26, d.Stats.ROI)
	require.NotNil(t, d.Stats.PSA10Rate)
	assert.Equal(t, 83, *d.Stats.PSA10Rate)
	require.NotNil(t, d.Stats.RecentTrend)
	assert.Equal(t, 20, *d.Stats.RecentTrend)

	require.Len(t, d.Histories, 5)
	assert.Equal(t, "2025/06/05", d.Histories[0].DisplayDate)
	assert.Equal(t, models.BucketPSA10, d.Histories[0].Bucket)
	assert.Equal(t, models.BucketOther, d.Histories[2].Bucket)

	assert.Equal(t, []ChartPoint{{"2025-02-01", 4000}, {"2025-05-01", 5000}, {"2025-06-05", 6000}}, d.PSA10Chart)
	assert.Equal(t, []ChartPoint{{"2025-06-04", 1000}}, d.BaseChart)

	require.NotNil(t, d.Trend1Month)
	assert.Equal(t, 20, *d.Trend1Month)
	require.NotNil(t, d.Trend3Months)
	assert.Equal(t, 50, *d.Trend3Months)

	require.NotNil(t, d.Grading)
	assert.Equal(t, 826, *d.Grading.PSA10Count)
	assert.Equal(t, "受け継がれる意志|2025", d.SeriesKey)
	assert.Equal(t, "https://www.gemrate.com/op13", d.GemrateURL)
	assert.Equal(t, "https://snkrdunk.com/apparels/p1?slide=right", d.SnkrdunkURL)
	assert.Equal(t, models.DefaultFeeSettings(), d.Fees)

	require.Len(t, d.Simulations, 6)
	assert.Equal(t, "psaValueBulk", d.Simulations[0].Plan.ID)
	for _, sim := range d.Simulations {
		assert.Equal(t, 83.0, sim.PSA10Rate)
	}
}

func TestGetDetailWithoutSeriesKey(t *testing.T) {
	withNow(t, statsNow)
	st := newMemStore()
	st.products = []models.Product{{ID: "x1", NameJP: "ピカチュウ", CardDescription: "Pikachu Promo", ProductCode: "SV-P-001"}}
	st.grading = []models.GradingStat{{SeriesName: "promo|2023", CardNumber: "1", CardDescription: "Pikachu Promo", GemRate: price(40)}}
	st.settings = &models.AppSettings{ID: 1, GemrateURLs: map[string]any{"SV-P-001": "https://www.gemrate.com/promo"}}

	d, err := NewProductDetailService(st).GetDetail(context.Background(), "x1")
	require.NoError(t, err)
	assert.Empty(t, d.SeriesKey)
	require.NotNil(t, d.Grading)
	assert.Equal(t, 40.0, d.Grading.GemRate)
	assert.Equal(t, "https://www.gemrate.com/promo", d.GemrateURL)
	assert.Nil(t, d.Trend1Month)
	assert.Empty(t, d.Histories)
}

func TestGetDetailSimulatesDefaultRateWithoutMatch(t *testing.T) {
	withNow(t, statsNow)
	st := detailStore()
	st.grading = nil

	d, err := NewProductDetailService(st).GetDetail(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, d.Grading)
	assert.Nil(t, d.Stats.PSA10Rate)
	for _, sim := range d.Simulations {
		assert.Equal(t, 75.0, sim.PSA10Rate)
	}
}

func TestGetDetailUsesStoredFees(t *testing.T) {
	withNow(t, statsNow)
	st := detailStore()
	fees := models.DefaultFeeSettings()
	fees.PSAValue = 3000
	st.settings = settingsWithFees(fees)

	d, err := NewProductDetailService(st).GetDetail(context.Background(), "p1")
	require.NoError(t, err)
	// floor(6000*0.9 - 1000 - 3000)
	assert.Equal(t, 1400, d.Stats.ExpectedProfit)
	assert.Equal(t, 3000.0, d.Fees.PSAValue)
}

func TestGetDetailErrors(t *testing.T) {
	withNow(t, statsNow)
	st := detailStore()
	_, err := NewProductDetailService(st).GetDetail(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	st.errs["LoadAppSettings"] = errors.New("db down")
	_, err = NewProductDetailService(st).GetDetail(context.Background(), "p1")
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load settings", se.Op)
}

func TestSimulateROI(t *testing.T) {
	profit, roi := SimulateROI(10000, 1000, 3300, 0.1, 50)
	assert.Equal(t, 200, profit)
	assert.Equal(t, 5, roi)

	profit, roi = SimulateROI(0, 0, 0, 0.1, 75)
	assert.Equal(t, 0, profit)
	assert.Equal(t, 0, roi)
}

func TestMercariSearchURL(t *testing.T) {
	u, err := url.Parse(mercariSearchURL("モンキー・D・ルフィ[OP13-120](ブースターパック「受け継がれる意志」)"))
	require.NoError(t, err)
	assert.Equal(t, "jp.mercari.com", u.Host)
	assert.Equal(t, "モンキー・D・ルフィ 受け継がれる意志", u.Query().Get("keyword"))
	assert.Equal(t, "on_sale", u.Query().Get("status"))
}
