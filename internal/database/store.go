package database

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

const (
	historyIDChunkSize = 500
	seriesKeyChunkSize = 100
	appSettingsRowID   = 1
	seriesKeyScanLimit = 2500
)

// GormStore implements services.Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ services.Store = (*GormStore)(nil)

func (s *GormStore) FetchProducts(ctx context.Context, filter services.ProductFilter, order *services.ProductOrder) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_target = ?", true)
	if filter.FavoriteOnly {
		q = q.Where("is_favorite = ?", true)
	}
	if len(filter.Brands) > 0 {
		brands := s.db.Where("brand LIKE ?", "%"+filter.Brands[0]+"%")
		for _, b := range filter.Brands[1:] {
			brands = brands.Or("brand LIKE ?", "%"+b+"%")
		}
		q = q.Where(brands)
	}
	if order != nil {
		switch order.Column {
		case models.SortReleaseDate, models.SortUpdatedAt:
			q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: string(order.Column)}, Desc: !order.Ascending})
		}
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) FetchProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchTradeHistories reads ids in chunks and merges them so the result is
// the same as one query ordered by scraped_at desc with the given limit
func (s *GormStore) FetchTradeHistories(ctx context.Context, productIDs []string, limit int) ([]models.TradeHistory, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var all []models.TradeHistory
	for chunk := range slices.Chunk(productIDs, historyIDChunkSize) {
		q := s.db.WithContext(ctx).
			Where("product_id IN ?", chunk).
			Order("scraped_at DESC").
			Order("id ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		var rows []models.TradeHistory
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	slices.SortStableFunc(all, func(a, b models.TradeHistory) int {
		if c := strings.Compare(b.ScrapedAt, a.ScrapedAt); c != 0 {
			return c
		}
		return compareUint(a.ID, b.ID)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// FetchGradingStats looks up both pipe spellings of every key and returns
// rows with the series name in ASCII form
func (s *GormStore) FetchGradingStats(ctx context.Context, seriesKeys []string, limit int) ([]models.GradingStat, error) {
	var out []models.GradingStat
	if len(seriesKeys) == 0 {
		q := s.db.WithContext(ctx).Order("id ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&out).Error; err != nil {
			return nil, err
		}
		return normalizeGradingRows(out), nil
	}

	for chunk := range slices.Chunk(seriesKeys, seriesKeyChunkSize) {
		var names []string
		for _, key := range chunk {
			names = append(names, models.SeriesNameVariants(key)...)
		}
		if len(names) == 0 {
			continue
		}
		var rows []models.GradingStat
		if err := s.db.WithContext(ctx).Where("series_name IN ?", names).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if limit > 0 && len(out) >= limit {
			out = out[:limit]
			break
		}
	}
	return normalizeGradingRows(out), nil
}

// FetchGradingStatsByDescription matches on the trimmed description so
// stray whitespace in scraped rows does not hide them
func (s *GormStore) FetchGradingStatsByDescription(ctx context.Context, descriptions []string) ([]models.GradingStat, error) {
	var out []models.GradingStat
	for chunk := range slices.Chunk(descriptions, seriesKeyChunkSize) {
		var rows []models.GradingStat
		if err := s.db.WithContext(ctx).Where("TRIM(card_description) IN ?", chunk).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return normalizeGradingRows(out), nil
}

// normalizeGradingRows rewrites series names to the ASCII pipe and orders
// rows by id across chunks
func normalizeGradingRows(rows []models.GradingStat) []models.GradingStat {
	for i := range rows {
		rows[i].SeriesName = models.NormalizeSeriesName(rows[i].SeriesName)
	}
	slices.SortStableFunc(rows, func(a, b models.GradingStat) int {
		return compareUint(a.ID, b.ID)
	})
	return rows
}

func (s *GormStore) FetchGradingMappings(ctx context.Context) ([]models.GradingMapping, error) {
	var rows []models.GradingMapping
	if err := s.db.WithContext(ctx).Order("series_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].SeriesName = models.NormalizeSeriesName(rows[i].SeriesName)
		rows[i].GemrateURL = strings.TrimSpace(rows[i].GemrateURL)
	}
	return rows, nil
}

// UpsertGradingMapping stores the mapping under the ASCII key and drops a
// full-width duplicate of it
func (s *GormStore) UpsertGradingMapping(ctx context.Context, mapping models.GradingMapping) error {
	key := models.NormalizeSeriesName(mapping.SeriesName)
	row := models.GradingMapping{SeriesName: key, GemrateURL: strings.TrimSpace(mapping.GemrateURL)}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if variants := models.SeriesNameVariants(key); len(variants) > 1 {
			if err := tx.Where("series_name IN ?", variants[1:]).Delete(&models.GradingMapping{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "series_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"gemrate_url"}),
		}).Create(&row).Error
	})
}

// FetchGradingSeriesCounts groups stats rows by series name. Both pipe
// spellings of a key are counted together.
func (s *GormStore) FetchGradingSeriesCounts(ctx context.Context) ([]models.GradingSeriesCount, error) {
	var grouped []struct {
		SeriesName string
		RowCount   int64
	}
	err := s.db.WithContext(ctx).Model(&models.GradingStat{}).
		Select("series_name, COUNT(*) AS row_count").
		Group("series_name").
		Scan(&grouped).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(grouped))
	for _, g := range grouped {
		name := models.NormalizeSeriesName(g.SeriesName)
		if name == "" {
			continue
		}
		counts[name] += g.RowCount
	}
	out := make([]models.GradingSeriesCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.GradingSeriesCount{SeriesName: name, Rows: n})
	}
	slices.SortFunc(out, func(a, b models.GradingSeriesCount) int {
		return strings.Compare(a.SeriesName, b.SeriesName)
	})
	return out, nil
}

// FetchSeriesKeysWithSuffix returns distinct stats series keys ending in one
// of the suffixes, at most limit per suffix
func (s *GormStore) FetchSeriesKeysWithSuffix(ctx context.Context, suffixes []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = seriesKeyScanLimit
	}
	seen := make(map[string]struct{})
	var keys []string
	for _, suffix := range suffixes {
		var names []string
		err := s.db.WithContext(ctx).Model(&models.GradingStat{}).
			Distinct("series_name").
			Where("series_name LIKE ?", "%"+suffix).
			Limit(limit).
			Pluck("series_name", &names).Error
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			n = models.NormalizeSeriesName(n)
			if _, ok := seen[n]; ok || n == "" {
				continue
			}
			seen[n] = struct{}{}
			keys = append(keys, n)
		}
	}
	return keys, nil
}

// FetchProductsReleasedIn returns products whose release date starts with the
// year. Callers re-check the parsed year.
func (s *GormStore) FetchProductsReleasedIn(ctx context.Context, year int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("release_date LIKE ?", strconv.Itoa(year)+"%").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) PatchProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.ProductFlags, error) {
	var flags models.ProductFlags
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Select("id", "is_favorite", "is_blacklisted").Where("id = ?", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrProductNotFound
			}
			return err
		}

		updates := map[string]any{}
		if patch.IsFavorite != nil {
			updates["is_favorite"] = *patch.IsFavorite
			p.IsFavorite = *patch.IsFavorite
		}
		if patch.IsBlacklisted != nil {
			updates["is_blacklisted"] = *patch.IsBlacklisted
			p.IsBlacklisted = *patch.IsBlacklisted
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		flags = models.ProductFlags{ID: p.ID, IsFavorite: p.IsFavorite, IsBlacklisted: p.IsBlacklisted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &flags, nil
}

func (s *GormStore) UpdateCardDescription(ctx context.Context, id string, description string) error {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("card_description", description)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.ensureProduct(ctx, id)
	}
	return nil
}

func (s *GormStore) UpdateSeriesKey(ctx context.Context, ids []string, seriesKey string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id IN ?", ids).
		Update("gemrate_series_name", models.NormalizeSeriesName(seriesKey)).Error
}

// ensureProduct tells "no such product" apart from an update that changed nothing
func (s *GormStore) ensureProduct(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return services.ErrProductNotFound
	}
	return nil
}

// LoadAppSettings returns nil when the settings row has never been saved
func (s *GormStore) LoadAppSettings(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := s.db.WithContext(ctx).Where("id = ?", appSettingsRowID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *GormStore) SaveFeeSettings(ctx context.Context, fees models.FeeSettings) error {
	doc := datatypes.NewJSONType(fees)
	row := models.AppSettings{ID: appSettingsRowID, FeeSettings: &doc}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fee_settings"}),
	}).Create(&row).Error
}

// SaveListPreferences merges prefs into ui_preferences so keys written by
// other screens survive
func (s *GormStore) SaveListPreferences(ctx context.Context, prefs models.ListPreferences) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.AppSettings
		err := tx.Select("id", "ui_preferences").Where("id = ?", appSettingsRowID).First(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ui := datatypes.JSONMap{}
		for k, v := range current.UIPreferences {
			ui[k] = v
		}
		ui[models.ListPreferencesKey] = prefs

		row := models.AppSettings{ID: appSettingsRowID, UIPreferences: ui}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"ui_preferences"}),
		}).Create(&row).Error
	})
}
