package services

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// memStore is an in-memory Store. Setting errs[method] makes that call fail.
type memStore struct {
	mu        sync.Mutex
	products  []models.Product
	histories []models.TradeHistory
	grading   []models.GradingStat
	mappings  []models.GradingMapping
	settings  *models.AppSettings
	errs      map[string]error
	calls     map[string]int
}

func newMemStore() *memStore {
	return &memStore{errs: map[string]error{}, calls: map[string]int{}}
}

var _ Store = (*memStore)(nil)

func (m *memStore) hit(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	return m.errs[method]
}

func (m *memStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memStore) FetchProducts(_ context.Context, filter ProductFilter, order *ProductOrder) ([]models.Product, error) {
	if err := m.hit("FetchProducts"); err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range m.products {
		if !p.IsTarget || (filter.FavoriteOnly && !p.IsFavorite) {
			continue
		}
		if len(filter.Brands) > 0 && !slices.ContainsFunc(filter.Brands, func(b string) bool { return strings.Contains(p.Brand, b) }) {
			continue
		}
		out = append(out, p)
	}
	if order != nil {
		slices.SortStableFunc(out, func(a, b models.Product) int {
			var c int
			if order.Column == models.SortReleaseDate {
				c = strings.Compare(a.ReleaseDate, b.ReleaseDate)
			} else {
				c = strings.Compare(a.LastUpdated, b.LastUpdated)
			}
			if order.Ascending {
				return c
			}
			return -c
		})
	}
	return out, nil
}

func (m *memStore) FetchProduct(_ context.Context, id string) (*models.Product, error) {
	if err := m.hit("FetchProduct"); err != nil {
		return nil, err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *memStore) FetchTradeHistories(_ context.Context, ids []string, limit int) ([]models.TradeHistory, error) {
	if err := m.hit("FetchTradeHistories"); err != nil {
		return nil, err
	}
	var out []models.TradeHistory
	for _, h := range m.histories {
		if slices.Contains(ids, h.ProductID) {
			out = append(out, h)
		}
	}
	slices.SortStableFunc(out, func(a, b models.TradeHistory) int { return strings.Compare(b.ScrapedAt, a.ScrapedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FetchGradingStats(_ context.Context, keys []string, limit int) ([]models.GradingStat, error) {
	if err := m.hit("FetchGradingStats"); err != nil {
		return nil, err
	}
	var out []models.GradingStat
	for _, g := range m.gradingRows() {
		if len(keys) > 0 && !slices.Contains(keys, g.SeriesName) {
			continue
		}
		out = append(out, g)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// gradingRows returns the seeded rows normalised, numbering rows without an
// id by position
func (m *memStore) gradingRows() []models.GradingStat {
	rows := make([]models.GradingStat, len(m.grading))
	for i, g := range m.grading {
		if g.ID == 0 {
			g.ID = uint(i + 1)
		}
		g.SeriesName = models.NormalizeSeriesName(g.SeriesName)
		rows[i] = g
	}
	return rows
}

func (m *memStore) FetchGradingStatsByDescription(_ context.Context, descriptions []string) ([]models.GradingStat, error) {
	if err := m.hit("FetchGradingStatsByDescription"); err != nil {
		return nil, err
	}
	var out []models.GradingStat
	for _, g := range m.gradingRows() {
		if slices.Contains(descriptions, strings.TrimSpace(g.CardDescription)) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) UpsertGradingMapping(_ context.Context, mapping models.GradingMapping) error {
	if err := m.hit("UpsertGradingMapping"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.mappings {
		if m.mappings[i].SeriesName == mapping.SeriesName {
			m.mappings[i] = mapping
			return nil
		}
	}
	m.mappings = append(m.mappings, mapping)
	return nil
}

func (m *memStore) FetchGradingSeriesCounts(context.Context) ([]models.GradingSeriesCount, error) {
	if err := m.hit("FetchGradingSeriesCounts"); err != nil {
		return nil, err
	}
	var out []models.GradingSeriesCount
	for _, g := range m.gradingRows() {
		i := slices.IndexFunc(out, func(c models.GradingSeriesCount) bool { return c.SeriesName == g.SeriesName })
		if i < 0 {
			out = append(out, models.GradingSeriesCount{SeriesName: g.SeriesName})
			i = len(out) - 1
		}
		out[i].Rows++
	}
	slices.SortFunc(out, func(a, b models.GradingSeriesCount) int { return strings.Compare(a.SeriesName, b.SeriesName) })
	return out, nil
}

func (m *memStore) FetchGradingMappings(context.Context) ([]models.GradingMapping, error) {
	if err := m.hit("FetchGradingMappings"); err != nil {
		return nil, err
	}
	return slices.Clone(m.mappings), nil
}

func (m *memStore) FetchSeriesKeysWithSuffix(_ context.Context, suffixes []string, limit int) ([]string, error) {
	if err := m.hit("FetchSeriesKeysWithSuffix"); err != nil {
		return nil, err
	}
	var out []string
	for _, g := range m.grading {
		for _, suf := range suffixes {
			if strings.HasSuffix(g.SeriesName, suf) && !slices.Contains(out, g.SeriesName) {
				out = append(out, g.SeriesName)
			}
		}
	}
	return out, nil
}

func (m *memStore) FetchProductsReleasedIn(_ context.Context, year int) ([]models.Product, error) {
	if err := m.hit("FetchProductsReleasedIn"); err != nil {
		return nil, err
	}
	var out []models.Product
	for _, p := range m.products {
		if strings.HasPrefix(p.ReleaseDate, strconv.Itoa(year)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) PatchProduct(_ context.Context, id string, patch models.ProductPatch) (*models.ProductFlags, error) {
	if err := m.hit("PatchProduct"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		p := &m.products[i]
		if p.ID != id {
			continue
		}
		if patch.IsFavorite != nil {
			p.IsFavorite = *patch.IsFavorite
		}
		if patch.IsBlacklisted != nil {
			p.IsBlacklisted = *patch.IsBlacklisted
		}
		return &models.ProductFlags{ID: p.ID, IsFavorite: p.IsFavorite, IsBlacklisted: p.IsBlacklisted}, nil
	}
	return nil, ErrProductNotFound
}

func (m *memStore) UpdateCardDescription(_ context.Context, id, description string) error {
	if err := m.hit("UpdateCardDescription"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].CardDescription = description
			return nil
		}
	}
	return ErrProductNotFound
}

func (m *memStore) UpdateSeriesKey(_ context.Context, ids []string, key string) error {
	if err := m.hit("UpdateSeriesKey"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if slices.Contains(ids, m.products[i].ID) {
			m.products[i].GemrateSeriesName = key
		}
	}
	return nil
}

func (m *memStore) LoadAppSettings(context.Context) (*models.AppSettings, error) {
	if err := m.hit("LoadAppSettings"); err != nil {
		return nil, err
	}
	return m.settings, nil
}

func (m *memStore) SaveFeeSettings(_ context.Context, fees models.FeeSettings) error {
	if err := m.hit("SaveFeeSettings"); err != nil {
		return err
	}
	doc := datatypes.NewJSONType(fees)
	m.currentSettings().FeeSettings = &doc
	return nil
}

func (m *memStore) SaveListPreferences(_ context.Context, prefs models.ListPreferences) error {
	if err := m.hit("SaveListPreferences"); err != nil {
		return err
	}
	settings := m.currentSettings()
	if settings.UIPreferences == nil {
		settings.UIPreferences = datatypes.JSONMap{}
	}
	settings.UIPreferences[models.ListPreferencesKey] = prefs
	return nil
}

func (m *memStore) currentSettings() *models.AppSettings {
	if m.settings == nil {
		m.settings = &models.AppSettings{ID: 1}
	}
	return m.settings
}

func settingsWithFees(fees models.FeeSettings) *models.AppSettings {
	doc := datatypes.NewJSONType(fees)
	return &models.AppSettings{ID: 1, FeeSettings: &doc}
}

// withNow pins the clock for the duration of the test
func withNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

func price(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func trade(productID, condition string, p float64, tradeDate string) models.TradeHistory {
	return models.TradeHistory{
		ProductID: productID,
		Condition: condition,
		Price:     price(p),
		TradeDate: tradeDate,
		ScrapedAt: tradeDate,
	}
}
